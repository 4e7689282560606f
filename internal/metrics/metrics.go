package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks payment lifecycle counts and the risk score distribution.
type Collector struct {
	registry         *prometheus.Registry
	paymentsCreated  *prometheus.CounterVec
	paymentsApproved *prometheus.CounterVec
	paymentsRejected prometheus.Counter
	riskScores       prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		paymentsCreated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "Payments created, by risk level",
		}, []string{"risk_level"}),
		paymentsApproved: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "payments_approved_total",
			Help: "Payments approved, by approval path",
		}, []string{"path"}),
		paymentsRejected: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Payments rejected",
		}),
		riskScores: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{0, 20, 30, 40, 60, 80, 100},
		}),
	}
}

func (c *Collector) PaymentCreated(riskLevel string, riskScore float64) {
	c.paymentsCreated.WithLabelValues(riskLevel).Inc()
	c.riskScores.Observe(riskScore)
}

func (c *Collector) PaymentApproved(auto bool) {
	path := "manual"
	if auto {
		path = "auto"
	}
	c.paymentsApproved.WithLabelValues(path).Inc()
}

func (c *Collector) PaymentRejected() {
	c.paymentsRejected.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

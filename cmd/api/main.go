package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transactiq/backend/internal/config"
	"github.com/transactiq/backend/internal/fx"
	"github.com/transactiq/backend/internal/logging"
	"github.com/transactiq/backend/internal/metrics"
	"github.com/transactiq/backend/internal/notify"
	"github.com/transactiq/backend/internal/repository"
	"github.com/transactiq/backend/internal/risk"
	"github.com/transactiq/backend/internal/service/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("transactiq-api", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rates := repository.NewRateRepository(db)
	if cfg.SeedDefaultRates {
		if err := fx.SeedDefaultRates(ctx, rates); err != nil {
			slog.Error("failed to seed exchange rates", "error", err)
			os.Exit(1)
		}
	}

	collector := metrics.NewCollector()
	notifier := notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyTimeout(), slog.Default())

	svc := payment.NewService(
		repository.NewPaymentRepository(db),
		repository.NewAccountRepository(db),
		repository.NewPaymentEventRepository(db),
		repository.NewUserRepository(db),
		fx.NewResolver(rates),
		risk.NewScorer(),
		notifier,
		collector,
		db,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", collector.Handler())
	mux.HandleFunc("GET /risk/{ref}", handleRiskSnapshot(svc))
	mux.HandleFunc("GET /rates", handleListRates(rates))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// handleRiskSnapshot is a read-only operational endpoint; the full payment
// API lives in a separate service that consumes this core as a library.
func handleRiskSnapshot(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPaymentByTransactionRef(r.Context(), r.PathValue("ref"))
		if err != nil {
			http.Error(w, "payment not found", http.StatusNotFound)
			return
		}
		snap := svc.GetRiskSnapshot(p)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"score":        snap.Score,
			"level":        snap.Level,
			"autoApproved": snap.AutoApproved,
		}); err != nil {
			slog.Error("failed to write risk snapshot response", "error", err)
		}
	}
}

func handleListRates(rates *repository.RateRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := rates.ListActive(r.Context())
		if err != nil {
			http.Error(w, "failed to list rates", http.StatusInternalServerError)
			return
		}

		out := make([]map[string]any, 0, len(active))
		for _, rate := range active {
			out = append(out, map[string]any{
				"from": rate.FromCurrency,
				"to":   rate.ToCurrency,
				"rate": rate.Rate,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			slog.Error("failed to write rates response", "error", err)
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}

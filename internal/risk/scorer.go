package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
)

// Input is the payment snapshot scored at creation time. The score is never
// re-evaluated after the payment is persisted.
type Input struct {
	Amount       decimal.Decimal
	FromCurrency domain.Currency
	ToCurrency   domain.Currency
	TransferType domain.TransferType
	FromBalance  decimal.Decimal
	CreatedAt    time.Time
}

var (
	maxScore = decimal.NewFromInt(100)

	amountTier1 = decimal.NewFromInt(1_000)
	amountTier2 = decimal.NewFromInt(10_000)
	amountTier3 = decimal.NewFromInt(50_000)
	amountTier4 = decimal.NewFromInt(100_000)

	levelLow    = decimal.NewFromInt(30)
	levelMedium = decimal.NewFromInt(60)
	levelHigh   = decimal.NewFromInt(80)

	autoApproveVeryLowScore  = decimal.NewFromInt(20)
	autoApproveVeryLowAmount = decimal.NewFromInt(10_000)
	autoApproveLowScore      = decimal.NewFromInt(30)
	autoApproveLowAmount     = decimal.NewFromInt(1_000)
)

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score sums six independently bounded factors, clamps at 100 and rounds
// half-up to two decimals.
func (s *Scorer) Score(in Input) decimal.Decimal {
	score := amountFactor(in.Amount).
		Add(currencyFactor(in.FromCurrency, in.ToCurrency)).
		Add(transferTypeFactor(in.TransferType)).
		Add(offHoursFactor(in.CreatedAt)).
		Add(balanceFactor(in.FromBalance, in.Amount)).
		Add(recipientHistoryFactor())

	if score.GreaterThan(maxScore) {
		score = maxScore
	}
	return score.Round(2)
}

// Level buckets a score, inclusive on the lower tier: 30 is still LOW,
// 60 still MEDIUM, 80 still HIGH.
func (s *Scorer) Level(score decimal.Decimal) domain.RiskLevel {
	switch {
	case score.LessThanOrEqual(levelLow):
		return domain.RiskLevelLow
	case score.LessThanOrEqual(levelMedium):
		return domain.RiskLevelMedium
	case score.LessThanOrEqual(levelHigh):
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelVeryHigh
	}
}

// ShouldAutoApprove grants very-low risk a higher ceiling than low risk:
// score <= 20 unlocks amounts up to 10,000, score <= 30 only up to 1,000.
func (s *Scorer) ShouldAutoApprove(amount, score decimal.Decimal) bool {
	if score.LessThanOrEqual(autoApproveVeryLowScore) {
		return amount.LessThanOrEqual(autoApproveVeryLowAmount)
	}
	if score.LessThanOrEqual(autoApproveLowScore) {
		return amount.LessThanOrEqual(autoApproveLowAmount)
	}
	return false
}

func amountFactor(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.LessThan(amountTier1):
		return decimal.Zero
	case amount.LessThan(amountTier2):
		return decimal.NewFromInt(5)
	case amount.LessThan(amountTier3):
		return decimal.NewFromInt(15)
	case amount.LessThan(amountTier4):
		return decimal.NewFromInt(25)
	default:
		return decimal.NewFromInt(30)
	}
}

func currencyFactor(from, to domain.Currency) decimal.Decimal {
	if from != to {
		return decimal.NewFromInt(20)
	}
	return decimal.Zero
}

func transferTypeFactor(t domain.TransferType) decimal.Decimal {
	if t == domain.TransferTypeExternal {
		return decimal.NewFromInt(15)
	}
	return decimal.Zero
}

// offHoursFactor flags creations between 02:00 and 05:59 local time.
func offHoursFactor(createdAt time.Time) decimal.Decimal {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	hour := createdAt.Local().Hour()
	if hour >= 2 && hour < 6 {
		return decimal.NewFromInt(10)
	}
	return decimal.Zero
}

// balanceFactor penalizes transfers that nearly drain the source account,
// measured against the payment amount rather than the balance.
func balanceFactor(balance, amount decimal.Decimal) decimal.Decimal {
	remaining := balance.Sub(amount)

	tenPct := amount.Mul(decimal.NewFromFloat(0.1))
	if remaining.LessThan(tenPct) {
		return decimal.NewFromInt(15)
	}

	fiftyPct := amount.Mul(decimal.NewFromFloat(0.5))
	if remaining.LessThan(fiftyPct) {
		return decimal.NewFromInt(8)
	}

	return decimal.Zero
}

// recipientHistoryFactor is an extension point for first-time-recipient
// scoring; it contributes nothing today.
func recipientHistoryFactor() decimal.Decimal {
	return decimal.Zero
}

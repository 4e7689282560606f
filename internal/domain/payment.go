package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
	// PaymentStatusCompleted is reserved for a future settlement step;
	// no transition here produces it.
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type TransferType string

const (
	TransferTypeInternal TransferType = "INTERNAL"
	TransferTypeExternal TransferType = "EXTERNAL"
)

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelVeryHigh RiskLevel = "VERY_HIGH"
)

// Payment is created once in PENDING and mutates only through the state
// machine transitions; rows are never deleted. Risk and conversion fields are
// computed at creation and never recomputed afterwards.
type Payment struct {
	ID                uuid.UUID
	TransactionRef    string
	FromAccountID     uuid.UUID
	ToAccountID       uuid.UUID
	Amount            decimal.Decimal
	Currency          Currency
	ConvertedAmount   decimal.Decimal
	ConvertedCurrency Currency
	ExchangeRate      decimal.Decimal
	Status            PaymentStatus
	TransferType      TransferType
	Description       *string
	RiskScore         decimal.Decimal
	RiskLevel         RiskLevel
	AutoApproved      bool
	ApprovedBy        *uuid.UUID
	ApprovedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RiskSnapshot is the read-only risk view exposed to callers, derived from
// the stored payment.
type RiskSnapshot struct {
	Score        decimal.Decimal
	Level        RiskLevel
	AutoApproved bool
}

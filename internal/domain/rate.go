package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is a directed pair: 1 FromCurrency = Rate ToCurrency.
// The table need not be symmetric or transitively complete; gaps are filled
// at lookup time by the fx resolver, never by mutating the table.
type ExchangeRate struct {
	ID           uuid.UUID
	FromCurrency Currency
	ToCurrency   Currency
	Rate         decimal.Decimal
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

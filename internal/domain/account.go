package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
	CurrencyEUR Currency = "EUR"
)

// BaseCurrency is the intermediate used for two-hop rate resolution.
const BaseCurrency = CurrencyUSD

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyCAD, CurrencyEUR:
		return true
	}
	return false
}

func SupportedCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyCAD, CurrencyEUR}
}

// Account balance is mutated only through the payment service's ledger
// transfer, never by direct field writes. Currency is fixed at creation.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Currency  Currency
	Balance   decimal.Decimal
	Version   int64
	Active    bool
	CreatedAt time.Time
}

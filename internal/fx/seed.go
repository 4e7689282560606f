package fx

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
)

type rateAdmin interface {
	rateStore
	Upsert(ctx context.Context, from, to domain.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error)
}

type seedPair struct {
	from, to domain.Currency
	rate     string
}

// defaultRates carries both directions for the USD pairs; the CAD/EUR cross
// rates are derived through USD below.
var defaultRates = []seedPair{
	{domain.CurrencyUSD, domain.CurrencyCAD, "1.350000"},
	{domain.CurrencyUSD, domain.CurrencyEUR, "0.920000"},
	{domain.CurrencyCAD, domain.CurrencyUSD, "0.740741"},
	{domain.CurrencyEUR, domain.CurrencyUSD, "1.086957"},
}

// SeedDefaultRates populates the rate table idempotently: existing active
// entries are left untouched.
func SeedDefaultRates(ctx context.Context, store rateAdmin) error {
	for _, p := range defaultRates {
		if err := seedIfMissing(ctx, store, p.from, p.to, decimal.RequireFromString(p.rate)); err != nil {
			return fmt.Errorf("SeedDefaultRates: %w", err)
		}
	}

	resolver := NewResolver(store)
	crosses := [][2]domain.Currency{
		{domain.CurrencyCAD, domain.CurrencyEUR},
		{domain.CurrencyEUR, domain.CurrencyCAD},
	}
	for _, pair := range crosses {
		from, to := pair[0], pair[1]
		if _, err := store.FindActive(ctx, from, to); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("SeedDefaultRates: %w", err)
		}

		rate, err := resolver.resolveViaBase(ctx, from, to)
		if err != nil {
			return fmt.Errorf("SeedDefaultRates: derive %s/%s: %w", from, to, err)
		}
		if _, err := store.Upsert(ctx, from, to, rate); err != nil {
			return fmt.Errorf("SeedDefaultRates: %w", err)
		}
	}

	return nil
}

func seedIfMissing(ctx context.Context, store rateAdmin, from, to domain.Currency, rate decimal.Decimal) error {
	_, err := store.FindActive(ctx, from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("seedIfMissing: %w", err)
	}
	if _, err := store.Upsert(ctx, from, to, rate); err != nil {
		return fmt.Errorf("seedIfMissing: %w", err)
	}
	return nil
}

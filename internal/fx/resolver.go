package fx

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
)

const (
	// rateScale is the scale of stored and derived rates.
	rateScale = 6
	// amountScale is the minor-unit precision of converted amounts.
	amountScale = 2
)

type rateStore interface {
	FindActive(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, error)
}

// Conversion is the resolved amount pair for a cross-currency payment. The
// rate is fixed here and reused verbatim at approval time.
type Conversion struct {
	SourceAmount    decimal.Decimal
	SourceCurrency  domain.Currency
	ConvertedAmount decimal.Decimal
	TargetCurrency  domain.Currency
	Rate            decimal.Decimal
}

type Resolver struct {
	rates rateStore
}

func NewResolver(rates rateStore) *Resolver {
	return &Resolver{rates: rates}
}

// Resolve returns the rate for converting one unit of from into to.
// Lookup order: direct active entry, reverse of an active entry, then a
// two-hop derivation through the base currency. Direct and reverse entries
// win over derived ones so rounding error never compounds unnecessarily.
func (r *Resolver) Resolve(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if !from.IsValid() {
		return decimal.Zero, fmt.Errorf("Resolve: %q: %w", from, domain.ErrInvalidCurrency)
	}
	if !to.IsValid() {
		return decimal.Zero, fmt.Errorf("Resolve: %q: %w", to, domain.ErrInvalidCurrency)
	}

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	direct, err := r.rates.FindActive(ctx, from, to)
	if err == nil {
		return direct.Rate, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("Resolve: direct %s/%s: %w", from, to, err)
	}

	reverse, err := r.rates.FindActive(ctx, to, from)
	if err == nil {
		return decimal.NewFromInt(1).DivRound(reverse.Rate, rateScale), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("Resolve: reverse %s/%s: %w", to, from, err)
	}

	if from != domain.BaseCurrency && to != domain.BaseCurrency {
		rate, err := r.resolveViaBase(ctx, from, to)
		if err == nil {
			return rate, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("Resolve: %w", err)
		}
	}

	return decimal.Zero, fmt.Errorf("Resolve: %s/%s: %w", from, to, domain.ErrRateNotFound)
}

// resolveViaBase composes direct(from, base) and direct(base, to). Only
// direct entries participate; a missing leg reports ErrNotFound.
func (r *Resolver) resolveViaBase(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	leg1, err := r.rates.FindActive(ctx, from, domain.BaseCurrency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolveViaBase: %s/%s: %w", from, domain.BaseCurrency, err)
	}
	leg2, err := r.rates.FindActive(ctx, domain.BaseCurrency, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolveViaBase: %s/%s: %w", domain.BaseCurrency, to, err)
	}
	return leg1.Rate.Mul(leg2.Rate).Round(rateScale), nil
}

// Convert resolves the pair and applies the rate, rounding half-up to the
// currency's minor-unit precision.
func (r *Resolver) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (*Conversion, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("Convert: %w", domain.ErrInvalidAmount)
	}

	rate, err := r.Resolve(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Convert: %w", err)
	}

	return &Conversion{
		SourceAmount:    amount,
		SourceCurrency:  from,
		ConvertedAmount: amount.Mul(rate).Round(amountScale),
		TargetCurrency:  to,
		Rate:            rate,
	}, nil
}

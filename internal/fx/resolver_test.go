package fx

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactiq/backend/internal/domain"
)

type stubRateStore struct {
	rates map[string]decimal.Decimal
}

func newStubStore(pairs map[string]string) *stubRateStore {
	rates := make(map[string]decimal.Decimal, len(pairs))
	for k, v := range pairs {
		rates[k] = decimal.RequireFromString(v)
	}
	return &stubRateStore{rates: rates}
}

func (s *stubRateStore) FindActive(_ context.Context, from, to domain.Currency) (*domain.ExchangeRate, error) {
	rate, ok := s.rates[string(from)+"_"+string(to)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Active:       true,
	}, nil
}

func (s *stubRateStore) Upsert(_ context.Context, from, to domain.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error) {
	s.rates[string(from)+"_"+string(to)] = rate
	return &domain.ExchangeRate{FromCurrency: from, ToCurrency: to, Rate: rate, Active: true}, nil
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		pairs    map[string]string
		from     domain.Currency
		to       domain.Currency
		wantRate string
		wantErr  error
	}{
		{
			name:     "same currency skips table",
			pairs:    map[string]string{},
			from:     domain.CurrencyUSD,
			to:       domain.CurrencyUSD,
			wantRate: "1",
		},
		{
			name:     "direct entry",
			pairs:    map[string]string{"USD_CAD": "1.35"},
			from:     domain.CurrencyUSD,
			to:       domain.CurrencyCAD,
			wantRate: "1.35",
		},
		{
			name:     "reverse entry inverted at six decimals",
			pairs:    map[string]string{"USD_CAD": "1.35"},
			from:     domain.CurrencyCAD,
			to:       domain.CurrencyUSD,
			wantRate: "0.740741",
		},
		{
			name: "direct preferred over reverse",
			pairs: map[string]string{
				"USD_EUR": "0.92",
				"EUR_USD": "1.09",
			},
			from:     domain.CurrencyEUR,
			to:       domain.CurrencyUSD,
			wantRate: "1.09",
		},
		{
			name: "two-hop through base currency",
			pairs: map[string]string{
				"EUR_USD": "1.086957",
				"USD_CAD": "1.35",
			},
			from:     domain.CurrencyEUR,
			to:       domain.CurrencyCAD,
			wantRate: "1.467392",
		},
		{
			name: "reverse preferred over two-hop",
			pairs: map[string]string{
				"CAD_EUR": "0.68",
				"EUR_USD": "1.086957",
				"USD_CAD": "1.35",
			},
			from:     domain.CurrencyEUR,
			to:       domain.CurrencyCAD,
			wantRate: "1.470588",
		},
		{
			name: "two-hop not attempted when one side is base",
			pairs: map[string]string{
				"EUR_USD": "1.086957",
			},
			from:    domain.CurrencyUSD,
			to:      domain.CurrencyCAD,
			wantErr: domain.ErrRateNotFound,
		},
		{
			name:    "no rate at all",
			pairs:   map[string]string{},
			from:    domain.CurrencyUSD,
			to:      domain.CurrencyEUR,
			wantErr: domain.ErrRateNotFound,
		},
		{
			name:    "unsupported from currency",
			pairs:   map[string]string{},
			from:    domain.Currency("XYZ"),
			to:      domain.CurrencyUSD,
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "unsupported to currency",
			pairs:   map[string]string{},
			from:    domain.CurrencyUSD,
			to:      domain.Currency("GBP"),
			wantErr: domain.ErrInvalidCurrency,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(newStubStore(tc.pairs))
			rate, err := resolver.Resolve(ctx, tc.from, tc.to)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"got %s, want %s", rate, tc.wantRate)
		})
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(newStubStore(map[string]string{
		"USD_CAD": "1.350000",
		"USD_EUR": "0.920000",
		"CAD_USD": "0.740741",
		"EUR_USD": "1.086957",
	}))

	tolerance := decimal.RequireFromString("0.00001")
	currencies := domain.SupportedCurrencies()

	for _, a := range currencies {
		for _, b := range currencies {
			forward, err := resolver.Resolve(ctx, a, b)
			require.NoError(t, err, "%s/%s", a, b)
			backward, err := resolver.Resolve(ctx, b, a)
			require.NoError(t, err, "%s/%s", b, a)

			product := forward.Mul(backward)
			diff := product.Sub(decimal.NewFromInt(1)).Abs()
			assert.True(t, diff.LessThan(tolerance),
				"%s/%s round trip drifted: %s * %s = %s", a, b, forward, backward, product)
		}
	}
}

func TestConvert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		pairs   map[string]string
		amount  string
		from    domain.Currency
		to      domain.Currency
		want    string
		wantErr error
	}{
		{
			name:   "direct conversion rounds to minor units",
			pairs:  map[string]string{"USD_CAD": "1.35"},
			amount: "100",
			from:   domain.CurrencyUSD,
			to:     domain.CurrencyCAD,
			want:   "135.00",
		},
		{
			name:   "half-up rounding",
			pairs:  map[string]string{"USD_CAD": "1.35"},
			amount: "1.005",
			from:   domain.CurrencyUSD,
			to:     domain.CurrencyCAD,
			want:   "1.36",
		},
		{
			name:   "same currency passthrough",
			pairs:  map[string]string{},
			amount: "250.50",
			from:   domain.CurrencyEUR,
			to:     domain.CurrencyEUR,
			want:   "250.50",
		},
		{
			name:    "zero amount",
			pairs:   map[string]string{"USD_CAD": "1.35"},
			amount:  "0",
			from:    domain.CurrencyUSD,
			to:      domain.CurrencyCAD,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			pairs:   map[string]string{"USD_CAD": "1.35"},
			amount:  "-10",
			from:    domain.CurrencyUSD,
			to:      domain.CurrencyCAD,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "missing rate",
			pairs:   map[string]string{},
			amount:  "10",
			from:    domain.CurrencyUSD,
			to:      domain.CurrencyEUR,
			wantErr: domain.ErrRateNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(newStubStore(tc.pairs))
			conv, err := resolver.Convert(ctx, decimal.RequireFromString(tc.amount), tc.from, tc.to)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.from, conv.SourceCurrency)
			assert.Equal(t, tc.to, conv.TargetCurrency)
			assert.True(t, conv.ConvertedAmount.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", conv.ConvertedAmount, tc.want)
		})
	}
}

func TestSeedDefaultRates(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(map[string]string{})

	require.NoError(t, SeedDefaultRates(ctx, store))

	resolver := NewResolver(store)

	rate, err := resolver.Resolve(ctx, domain.CurrencyEUR, domain.CurrencyCAD)
	require.NoError(t, err)
	// 1.086957 * 1.35 rounded to six decimals, stored as a direct entry.
	assert.True(t, rate.Equal(decimal.RequireFromString("1.467392")), "got %s", rate)

	// Seeding again must not overwrite existing entries.
	custom := decimal.RequireFromString("1.400000")
	_, err = store.Upsert(ctx, domain.CurrencyUSD, domain.CurrencyCAD, custom)
	require.NoError(t, err)
	require.NoError(t, SeedDefaultRates(ctx, store))

	rate, err = resolver.Resolve(ctx, domain.CurrencyUSD, domain.CurrencyCAD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(custom), "got %s", rate)
}

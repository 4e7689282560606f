package payment

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactiq/backend/internal/domain"
)

func account(userID uuid.UUID, currency domain.Currency) *domain.Account {
	return &domain.Account{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: currency,
		Active:   true,
	}
}

func TestClassifyTransfer(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()

	internal := domain.TransferTypeInternal
	external := domain.TransferTypeExternal

	tests := []struct {
		name    string
		hint    *domain.TransferType
		from    *domain.Account
		to      *domain.Account
		want    domain.TransferType
		wantErr error
	}{
		{
			name: "same owner derives internal",
			from: account(userA, domain.CurrencyUSD),
			to:   account(userA, domain.CurrencyEUR),
			want: domain.TransferTypeInternal,
		},
		{
			name: "different owners derive external",
			from: account(userA, domain.CurrencyUSD),
			to:   account(userB, domain.CurrencyUSD),
			want: domain.TransferTypeExternal,
		},
		{
			name: "matching internal hint accepted",
			hint: &internal,
			from: account(userA, domain.CurrencyUSD),
			to:   account(userA, domain.CurrencyUSD),
			want: domain.TransferTypeInternal,
		},
		{
			name: "matching external hint accepted",
			hint: &external,
			from: account(userA, domain.CurrencyUSD),
			to:   account(userB, domain.CurrencyUSD),
			want: domain.TransferTypeExternal,
		},
		{
			name:    "internal hint across owners rejected",
			hint:    &internal,
			from:    account(userA, domain.CurrencyUSD),
			to:      account(userB, domain.CurrencyUSD),
			wantErr: domain.ErrTransferTypeMismatch,
		},
		{
			name:    "external hint within one owner rejected",
			hint:    &external,
			from:    account(userA, domain.CurrencyUSD),
			to:      account(userA, domain.CurrencyCAD),
			wantErr: domain.ErrTransferTypeMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifyTransfer(CreateRequest{TransferType: tc.hint}, tc.from, tc.to)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateTransactionRef(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN[0-9A-F]{16}$`)

	seen := make(map[string]bool)
	for range 100 {
		ref := generateTransactionRef()
		assert.Regexp(t, pattern, ref)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestGetRiskSnapshot(t *testing.T) {
	svc := &Service{}
	p := &domain.Payment{
		RiskScore:    decimal.RequireFromString("42.50"),
		RiskLevel:    domain.RiskLevelMedium,
		AutoApproved: false,
	}

	snap := svc.GetRiskSnapshot(p)
	assert.True(t, snap.Score.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, domain.RiskLevelMedium, snap.Level)
	assert.False(t, snap.AutoApproved)
}

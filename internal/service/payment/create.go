package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
	"github.com/transactiq/backend/internal/fx"
	"github.com/transactiq/backend/internal/logging"
	"github.com/transactiq/backend/internal/risk"
)

// minAmount is one minor unit of any supported currency.
var minAmount = decimal.New(1, -2)

type CreateRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	// Currency is an optional hint; when supplied it must match the source
	// account's currency.
	Currency *domain.Currency
	// TransferType is an optional hint; when supplied it must agree with the
	// classification derived from account ownership.
	TransferType *domain.TransferType
	// TransactionRef lets callers supply their own reference; empty means
	// generate one.
	TransactionRef string
	Description    *string
	ActorUserID    uuid.UUID
}

// CreatePayment validates the request, fixes the conversion and risk fields,
// persists the payment as PENDING and, for low-risk payments, immediately
// drives the same approval transition a human approver would. A failed
// auto-approval attempt is logged and swallowed: the payment stays PENDING
// and creation still succeeds.
func (s *Service) CreatePayment(ctx context.Context, req CreateRequest) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	if req.Amount.LessThan(minAmount) {
		return nil, fmt.Errorf("CreatePayment: %w", domain.ErrInvalidAmount)
	}

	from, to, err := s.resolveAccounts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	transferType, err := classifyTransfer(req, from, to)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	if req.Currency != nil && *req.Currency != from.Currency {
		return nil, fmt.Errorf("CreatePayment: payment currency %s, account currency %s: %w",
			*req.Currency, from.Currency, domain.ErrCurrencyMismatch)
	}

	conv, err := s.resolveConversion(ctx, req.Amount, from.Currency, to.Currency)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	now := time.Now().UTC()

	score := s.risk.Score(risk.Input{
		Amount:       req.Amount,
		FromCurrency: from.Currency,
		ToCurrency:   to.Currency,
		TransferType: transferType,
		FromBalance:  from.Balance,
		CreatedAt:    now,
	})

	ref := req.TransactionRef
	if ref == "" {
		ref = generateTransactionRef()
	}

	p := &domain.Payment{
		ID:                uuid.New(),
		TransactionRef:    ref,
		FromAccountID:     from.ID,
		ToAccountID:       to.ID,
		Amount:            req.Amount,
		Currency:          from.Currency,
		ConvertedAmount:   conv.ConvertedAmount,
		ConvertedCurrency: conv.TargetCurrency,
		ExchangeRate:      conv.Rate,
		Status:            domain.PaymentStatusPending,
		TransferType:      transferType,
		Description:       req.Description,
		RiskScore:         score,
		RiskLevel:         s.risk.Level(score),
		AutoApproved:      false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.persistPending(ctx, p, req.ActorUserID); err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	s.metrics.PaymentCreated(string(p.RiskLevel), p.RiskScore.InexactFloat64())

	log.Info("payment created",
		"payment_id", p.ID,
		"transaction_ref", p.TransactionRef,
		"amount", p.Amount,
		"currency", p.Currency,
		"transfer_type", p.TransferType,
		"risk_score", p.RiskScore,
		"risk_level", p.RiskLevel,
	)

	if s.risk.ShouldAutoApprove(p.Amount, p.RiskScore) && from.Balance.GreaterThanOrEqual(p.Amount) {
		approved, err := s.approve(ctx, p.ID, nil)
		if err != nil {
			// The payment stays PENDING for a manual pass; creation already
			// succeeded from the caller's point of view.
			log.Warn("auto-approval failed, payment remains pending",
				"payment_id", p.ID,
				"error", err,
			)
			return p, nil
		}
		return approved, nil
	}

	return p, nil
}

func (s *Service) resolveAccounts(ctx context.Context, req CreateRequest) (*domain.Account, *domain.Account, error) {
	from, err := s.accounts.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolveAccounts: from: %w", mapAccountErr(err))
	}
	to, err := s.accounts.GetByID(ctx, req.ToAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolveAccounts: to: %w", mapAccountErr(err))
	}

	if from.UserID != req.ActorUserID {
		return nil, nil, fmt.Errorf("resolveAccounts: %w", domain.ErrForbidden)
	}
	if !from.Active {
		return nil, nil, fmt.Errorf("resolveAccounts: from: %w", domain.ErrAccountInactive)
	}
	if !to.Active {
		return nil, nil, fmt.Errorf("resolveAccounts: to: %w", domain.ErrAccountInactive)
	}
	if from.ID == to.ID {
		return nil, nil, fmt.Errorf("resolveAccounts: %w", domain.ErrSelfTransfer)
	}

	return from, to, nil
}

// classifyTransfer derives INTERNAL/EXTERNAL from account ownership and
// rejects a hint that disagrees with the derived classification.
func classifyTransfer(req CreateRequest, from, to *domain.Account) (domain.TransferType, error) {
	derived := domain.TransferTypeExternal
	if from.UserID == to.UserID {
		derived = domain.TransferTypeInternal
	}

	if req.TransferType != nil && *req.TransferType != derived {
		return "", fmt.Errorf("classifyTransfer: hint %s, derived %s: %w",
			*req.TransferType, derived, domain.ErrTransferTypeMismatch)
	}

	return derived, nil
}

// resolveConversion fixes the amount pair at creation time. The same-currency
// case sets rate 1 without touching the rate table; any resolution failure
// fails the whole creation as ConversionFailed.
func (s *Service) resolveConversion(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (*fx.Conversion, error) {
	if from == to {
		return &fx.Conversion{
			SourceAmount:    amount,
			SourceCurrency:  from,
			ConvertedAmount: amount,
			TargetCurrency:  to,
			Rate:            decimal.NewFromInt(1),
		}, nil
	}

	conv, err := s.fx.Convert(ctx, amount, from, to)
	if err != nil {
		return nil, fmt.Errorf("resolveConversion: %s to %s: %v: %w", from, to, err, domain.ErrConversionFailed)
	}
	return conv, nil
}

func (s *Service) persistPending(ctx context.Context, p *domain.Payment, actorUserID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistPending: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.payments.Create(ctx, tx, p); err != nil {
		return fmt.Errorf("persistPending: %w", err)
	}

	if err := s.writeEvent(ctx, tx, p.ID, domain.PaymentEventTypeCreated, actorRef(&actorUserID), p.CreatedAt); err != nil {
		return fmt.Errorf("persistPending: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persistPending: commit: %w", err)
	}
	return nil
}

func generateTransactionRef() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN" + strings.ToUpper(raw[:16])
}

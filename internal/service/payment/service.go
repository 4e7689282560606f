package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
	"github.com/transactiq/backend/internal/fx"
	"github.com/transactiq/backend/internal/notify"
	"github.com/transactiq/backend/internal/risk"
)

var decimalOne = decimal.NewFromInt(1)

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payment, error)
	MarkApproved(ctx context.Context, tx *sql.Tx, id uuid.UUID, approvedBy *uuid.UUID, approvedAt time.Time, autoApproved bool) error
	MarkRejected(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error)
	ListOutgoing(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error)
	ListIncoming(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.PaymentEvent) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]domain.PaymentEvent, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (*fx.Conversion, error)
}

type riskScorer interface {
	Score(in risk.Input) decimal.Decimal
	Level(score decimal.Decimal) domain.RiskLevel
	ShouldAutoApprove(amount, score decimal.Decimal) bool
}

type metricsRecorder interface {
	PaymentCreated(riskLevel string, riskScore float64)
	PaymentApproved(auto bool)
	PaymentRejected()
}

type Service struct {
	payments paymentRepo
	accounts accountRepo
	events   eventRepo
	users    userRepo
	fx       converter
	risk     riskScorer
	notifier notify.Notifier
	metrics  metricsRecorder
	db       *sql.DB
}

func NewService(
	payments paymentRepo,
	accounts accountRepo,
	events eventRepo,
	users userRepo,
	fxSvc converter,
	scorer riskScorer,
	notifier notify.Notifier,
	collector metricsRecorder,
	db *sql.DB,
) *Service {
	return &Service{
		payments: payments,
		accounts: accounts,
		events:   events,
		users:    users,
		fx:       fxSvc,
		risk:     scorer,
		notifier: notifier,
		metrics:  collector,
		db:       db,
	}
}

func (s *Service) GetPaymentByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPaymentByID: %w", err)
	}
	return p, nil
}

func (s *Service) GetPaymentByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error) {
	p, err := s.payments.GetByTransactionRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("GetPaymentByTransactionRef: %w", err)
	}
	return p, nil
}

func (s *Service) ListPaymentsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListPaymentsByAccount: %w", err)
	}
	return payments, nil
}

func (s *Service) ListOutgoingPayments(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListOutgoing(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListOutgoingPayments: %w", err)
	}
	return payments, nil
}

func (s *Service) ListIncomingPayments(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListIncoming(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListIncomingPayments: %w", err)
	}
	return payments, nil
}

// ListPaymentEvents returns the audit trail for a payment in write order.
func (s *Service) ListPaymentEvents(ctx context.Context, paymentID uuid.UUID) ([]domain.PaymentEvent, error) {
	events, err := s.events.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("ListPaymentEvents: %w", err)
	}
	return events, nil
}

// GetRiskSnapshot exposes the risk fields computed at creation; nothing is
// re-scored here.
func (s *Service) GetRiskSnapshot(p *domain.Payment) domain.RiskSnapshot {
	return domain.RiskSnapshot{
		Score:        p.RiskScore,
		Level:        p.RiskLevel,
		AutoApproved: p.AutoApproved,
	}
}

// lockAccountsInOrder acquires row locks in sorted id order so two transfers
// touching the same pair in opposite directions cannot deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}

func (s *Service) writeEvent(ctx context.Context, tx *sql.Tx, paymentID uuid.UUID, eventType domain.PaymentEventType, actor string, now time.Time) error {
	event := &domain.PaymentEvent{
		ID:        uuid.New(),
		PaymentID: paymentID,
		EventType: eventType,
		Actor:     actor,
		CreatedAt: now,
	}
	if err := s.events.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("writeEvent: %w", err)
	}
	return nil
}

func actorRef(userID *uuid.UUID) string {
	if userID == nil {
		return "system"
	}
	return fmt.Sprintf("user:%s", userID)
}

func mapAccountErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	return err
}

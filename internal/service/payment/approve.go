package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/transactiq/backend/internal/domain"
	"github.com/transactiq/backend/internal/logging"
)

// ApprovePayment drives the PENDING -> APPROVED transition and commits the
// ledger transfer. A nil approver means the system acted; a real approver
// additionally triggers the post-commit notification hook.
func (s *Service) ApprovePayment(ctx context.Context, paymentID uuid.UUID, approverUserID *uuid.UUID) (*domain.Payment, error) {
	p, err := s.approve(ctx, paymentID, approverUserID)
	if err != nil {
		return nil, fmt.Errorf("ApprovePayment: %w", err)
	}
	return p, nil
}

// approve performs the transition as one transactional unit: the payment row
// is locked first so the status check is serialized, then both accounts are
// locked in sorted order, the balance check runs against the locked rows, and
// the debit and credit commit together or not at all. The stored amount pair
// is trusted as-is; the conversion is never re-derived here.
func (s *Service) approve(ctx context.Context, paymentID uuid.UUID, approverUserID *uuid.UUID) (*domain.Payment, error) {
	log := logging.FromContext(ctx)
	auto := approverUserID == nil

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("approve: begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := s.payments.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}

	if p.Status.IsTerminal() {
		return nil, fmt.Errorf("approve: status %s: %w", p.Status, domain.ErrInvalidStateTransition)
	}

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, p.FromAccountID, p.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("approve: %w", mapAccountErr(err))
	}
	from, to := locked[p.FromAccountID], locked[p.ToAccountID]

	if !from.Active {
		return nil, fmt.Errorf("approve: from: %w", domain.ErrAccountInactive)
	}
	if !to.Active {
		return nil, fmt.Errorf("approve: to: %w", domain.ErrAccountInactive)
	}

	if from.Balance.LessThan(p.Amount) {
		return nil, fmt.Errorf("approve: balance %s, amount %s: %w",
			from.Balance, p.Amount, domain.ErrInsufficientBalance)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, from.ID, from.Balance.Sub(p.Amount), from.Version+1); err != nil {
		return nil, fmt.Errorf("approve: debit: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, to.ID, to.Balance.Add(p.ConvertedAmount), to.Version+1); err != nil {
		return nil, fmt.Errorf("approve: credit: %w", err)
	}

	now := time.Now().UTC()
	if err := s.payments.MarkApproved(ctx, tx, p.ID, approverUserID, now, auto); err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}

	if err := s.writeEvent(ctx, tx, p.ID, domain.PaymentEventTypeApproved, actorRef(approverUserID), now); err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("approve: commit: %w", err)
	}

	p.Status = domain.PaymentStatusApproved
	p.ApprovedBy = approverUserID
	p.ApprovedAt = &now
	p.AutoApproved = auto
	p.UpdatedAt = now

	s.metrics.PaymentApproved(auto)

	log.Info("payment approved",
		"payment_id", p.ID,
		"transaction_ref", p.TransactionRef,
		"debit_amount", p.Amount,
		"credit_amount", p.ConvertedAmount,
		"auto_approved", auto,
	)

	// The hook runs strictly after the commit and its outcome is never
	// awaited; a dropped notification cannot undo the approval.
	if !auto {
		go s.sendApprovedNotification(p, from.UserID, approverUserID)
	}

	return p, nil
}

// RejectPayment drives the PENDING -> REJECTED transition. Balances are never
// touched.
func (s *Service) RejectPayment(ctx context.Context, paymentID uuid.UUID, actorUserID *uuid.UUID) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RejectPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := s.payments.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("RejectPayment: %w", err)
	}

	if p.Status.IsTerminal() {
		return nil, fmt.Errorf("RejectPayment: status %s: %w", p.Status, domain.ErrInvalidStateTransition)
	}

	now := time.Now().UTC()
	if err := s.payments.MarkRejected(ctx, tx, p.ID); err != nil {
		return nil, fmt.Errorf("RejectPayment: %w", err)
	}

	if err := s.writeEvent(ctx, tx, p.ID, domain.PaymentEventTypeRejected, actorRef(actorUserID), now); err != nil {
		return nil, fmt.Errorf("RejectPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RejectPayment: commit: %w", err)
	}

	p.Status = domain.PaymentStatusRejected
	p.UpdatedAt = now

	s.metrics.PaymentRejected()

	log.Info("payment rejected", "payment_id", p.ID, "transaction_ref", p.TransactionRef)

	return p, nil
}

// sendApprovedNotification builds the payment_approved payload and emits it
// best-effort. Runs detached from the request; the originating context may
// already be gone.
func (s *Service) sendApprovedNotification(p *domain.Payment, payerUserID uuid.UUID, approverUserID *uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := logging.FromContext(ctx)

	payload := map[string]any{
		"transactionId": p.TransactionRef,
		"amount":        p.Amount,
		"currency":      p.Currency,
		"status":        p.Status,
		"transferType":  p.TransferType,
		"description":   p.Description,
	}
	if p.ApprovedAt != nil {
		payload["approvedAt"] = p.ApprovedAt.Format(time.RFC3339)
	}

	if !p.ExchangeRate.Equal(decimalOne) {
		payload["convertedAmount"] = p.ConvertedAmount
		payload["convertedCurrency"] = p.ConvertedCurrency
		payload["exchangeRate"] = p.ExchangeRate
	}

	if approverUserID != nil {
		if approver, err := s.users.GetByID(ctx, *approverUserID); err == nil {
			payload["approvedBy"] = approver.DisplayName()
			payload["approvedByEmail"] = approver.Email
		} else {
			log.Warn("approver lookup failed for notification", "user_id", *approverUserID, "error", err)
			payload["approvedBy"] = "Unknown"
		}
	} else {
		payload["approvedBy"] = "System"
	}

	if payer, err := s.users.GetByID(ctx, payerUserID); err == nil {
		payload["toEmail"] = payer.Email
		payload["toEmailName"] = payer.DisplayName()
	} else {
		log.Warn("payer lookup failed for notification", "user_id", payerUserID, "error", err)
	}

	if !s.notifier.Emit("payment_approved", payload) {
		log.Warn("approval notification not delivered", "payment_id", p.ID)
	}
}

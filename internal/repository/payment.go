package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/transactiq/backend/internal/domain"
)

const paymentColumns = `id, transaction_ref, from_account_id, to_account_id,
	amount, currency, converted_amount, converted_currency, exchange_rate,
	status, transfer_type, description, risk_score, risk_level, auto_approved,
	approved_by, approved_at, created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			id, transaction_ref, from_account_id, to_account_id,
			amount, currency, converted_amount, converted_currency, exchange_rate,
			status, transfer_type, description, risk_score, risk_level, auto_approved,
			approved_by, approved_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)`,
		p.ID, p.TransactionRef, p.FromAccountID, p.ToAccountID,
		p.Amount, p.Currency, p.ConvertedAmount, p.ConvertedCurrency, p.ExchangeRate,
		p.Status, p.TransferType, p.Description, p.RiskScore, p.RiskLevel, p.AutoApproved,
		p.ApprovedBy, p.ApprovedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_ref = $1`, ref,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByTransactionRef: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByTransactionRef: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row so concurrent approvals serialize on the
// status check.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapError(err))
	}
	return p, nil
}

func (r *PaymentRepository) MarkApproved(ctx context.Context, tx *sql.Tx, id uuid.UUID, approvedBy *uuid.UUID, approvedAt time.Time, autoApproved bool) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, approved_by = $2, approved_at = $3,
			auto_approved = $4, updated_at = now()
		WHERE id = $5 AND status = $6`,
		domain.PaymentStatusApproved, approvedBy, approvedAt, autoApproved,
		id, domain.PaymentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("MarkApproved: %w", mapError(err))
	}
	return requireRow(res, "MarkApproved")
}

func (r *PaymentRepository) MarkRejected(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		domain.PaymentStatusRejected, id, domain.PaymentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("MarkRejected: %w", mapError(err))
	}
	return requireRow(res, "MarkRejected")
}

func (r *PaymentRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE from_account_id = $1 OR to_account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
}

func (r *PaymentRepository) ListOutgoing(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE from_account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
}

func (r *PaymentRepository) ListIncoming(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE to_account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return payments, nil
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidStateTransition)
	}
	return nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	var approvedBy uuid.NullUUID

	err := s.Scan(
		&p.ID, &p.TransactionRef, &p.FromAccountID, &p.ToAccountID,
		&p.Amount, &p.Currency, &p.ConvertedAmount, &p.ConvertedCurrency, &p.ExchangeRate,
		&p.Status, &p.TransferType, &p.Description, &p.RiskScore, &p.RiskLevel, &p.AutoApproved,
		&approvedBy, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if approvedBy.Valid {
		p.ApprovedBy = &approvedBy.UUID
	}

	return &p, nil
}

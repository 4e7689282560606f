package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transactiq/backend/internal/domain"
)

const rateColumns = `id, from_currency, to_currency, rate, active, created_at, updated_at`

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// FindActive returns the active directed entry for the pair, or ErrNotFound.
func (r *RateRepository) FindActive(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND active = true`,
		from, to,
	)
	er, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindActive: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("FindActive: %w", err)
	}
	return er, nil
}

func (r *RateRepository) ListActive(ctx context.Context) ([]domain.ExchangeRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rateColumns+` FROM exchange_rates
		WHERE active = true ORDER BY from_currency, to_currency`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		er, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		rates = append(rates, *er)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return rates, nil
}

// Upsert updates the active entry for the pair in place, or inserts one.
func (r *RateRepository) Upsert(ctx context.Context, from, to domain.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error) {
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO exchange_rates (id, from_currency, to_currency, rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
		ON CONFLICT (from_currency, to_currency) DO UPDATE
			SET rate = EXCLUDED.rate, active = true, updated_at = EXCLUDED.updated_at
		RETURNING `+rateColumns,
		uuid.New(), from, to, rate, now,
	)
	er, err := scanRate(row)
	if err != nil {
		return nil, fmt.Errorf("Upsert: %w", mapError(err))
	}
	return er, nil
}

func scanRate(s scanner) (*domain.ExchangeRate, error) {
	var er domain.ExchangeRate
	err := s.Scan(
		&er.ID, &er.FromCurrency, &er.ToCurrency, &er.Rate,
		&er.Active, &er.CreatedAt, &er.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &er, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// TransactionRepository is a PostgreSQL implementation of repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction ledger.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction ledger using a transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Create appends a transaction. The unique index on intent_id turns a
// second settlement of the same intent into repository.ErrDuplicate.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, intent_id, paid_by, paid_to, amount_paid, unit_cost, distance, seats, ride_id, driver_name, source, destination, latest_charge, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		t.ID,
		t.IntentID,
		t.PaidBy,
		t.PaidTo,
		t.AmountPaid,
		t.UnitCost,
		t.Distance,
		t.Seats,
		t.RideID,
		t.DriverName,
		t.Source,
		t.Destination,
		nullString(t.LatestCharge),
		t.CreatedAt,
	)
	return translateError(err)
}

// GetByIntentID retrieves a transaction by gateway intent ID.
// Returns nil if no transaction exists for the intent.
func (r *TransactionRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Transaction, error) {
	query := `
		SELECT id, intent_id, paid_by, paid_to, amount_paid, unit_cost, distance, seats, ride_id, driver_name, source, destination, COALESCE(latest_charge, ''), created_at
		FROM transactions WHERE intent_id = $1
	`

	var t domain.Transaction
	err := r.q.QueryRowContext(ctx, query, intentID).Scan(
		&t.ID,
		&t.IntentID,
		&t.PaidBy,
		&t.PaidTo,
		&t.AmountPaid,
		&t.UnitCost,
		&t.Distance,
		&t.Seats,
		&t.RideID,
		&t.DriverName,
		&t.Source,
		&t.Destination,
		&t.LatestCharge,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &t, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

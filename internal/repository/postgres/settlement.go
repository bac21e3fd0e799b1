package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// SettlementFailureRepository is a PostgreSQL implementation of repository.SettlementFailureRepository.
type SettlementFailureRepository struct {
	q Querier
}

// NewSettlementFailureRepository creates a new PostgreSQL dead-letter store.
func NewSettlementFailureRepository(db *sql.DB) *SettlementFailureRepository {
	return &SettlementFailureRepository{q: db}
}

// NewSettlementFailureRepositoryWithTx creates a dead-letter store using a transaction.
func NewSettlementFailureRepositoryWithTx(tx *sql.Tx) *SettlementFailureRepository {
	return &SettlementFailureRepository{q: tx}
}

const failureColumns = `id, intent_id, payer_id, pending_key, ride_id, reason, detail, amount_minor, created_at, resolved_at`

// Create records a failure.
func (r *SettlementFailureRepository) Create(ctx context.Context, f *domain.SettlementFailure) error {
	query := `INSERT INTO settlement_failures (` + failureColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)`

	_, err := r.q.ExecContext(ctx, query,
		f.ID, f.IntentID, f.PayerID, f.PendingKey, f.RideID, f.Reason, f.Detail, f.AmountMinor, f.CreatedAt,
	)
	return translateError(err)
}

// GetByIntentID returns the failure for an intent, or nil if none.
func (r *SettlementFailureRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.SettlementFailure, error) {
	query := `SELECT ` + failureColumns + ` FROM settlement_failures WHERE intent_id = $1`

	f, err := scanFailure(r.q.QueryRowContext(ctx, query, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// ListUnresolved returns failures not yet resolved, oldest first.
func (r *SettlementFailureRepository) ListUnresolved(ctx context.Context, limit int) ([]*domain.SettlementFailure, error) {
	query := `SELECT ` + failureColumns + ` FROM settlement_failures WHERE resolved_at IS NULL ORDER BY created_at LIMIT $1`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*domain.SettlementFailure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// Resolve marks the failure for an intent as handled.
func (r *SettlementFailureRepository) Resolve(ctx context.Context, intentID string) error {
	query := `UPDATE settlement_failures SET resolved_at = $1 WHERE intent_id = $2 AND resolved_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, time.Now(), intentID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func scanFailure(row rowScanner) (*domain.SettlementFailure, error) {
	var f domain.SettlementFailure
	var resolvedAt sql.NullTime
	err := row.Scan(
		&f.ID, &f.IntentID, &f.PayerID, &f.PendingKey, &f.RideID, &f.Reason, &f.Detail, &f.AmountMinor, &f.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		f.ResolvedAt = resolvedAt.Time
	}
	return &f, nil
}

var _ repository.SettlementFailureRepository = (*SettlementFailureRepository)(nil)

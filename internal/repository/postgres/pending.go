package postgres

import (
	"context"
	"database/sql"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// PendingPaymentRepository is a PostgreSQL implementation of repository.PendingPaymentRepository.
type PendingPaymentRepository struct {
	q Querier
}

// NewPendingPaymentRepository creates a new PostgreSQL pending payment ledger.
func NewPendingPaymentRepository(db *sql.DB) *PendingPaymentRepository {
	return &PendingPaymentRepository{q: db}
}

// NewPendingPaymentRepositoryWithTx creates a pending payment ledger using a transaction.
func NewPendingPaymentRepositoryWithTx(tx *sql.Tx) *PendingPaymentRepository {
	return &PendingPaymentRepository{q: tx}
}

const pendingColumns = `payer_id, key, ride_id, seats, unit_cost, distance, amount,
	pickup_lat, pickup_lng, destination_lat, destination_lng,
	pickup_address, destination_address, pickup_date, pickup_time, created_at`

// Put stores a pending payment, replacing an earlier intent with the same key.
func (r *PendingPaymentRepository) Put(ctx context.Context, p *domain.PendingPayment) error {
	query := `
		INSERT INTO pending_payments (` + pendingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (payer_id, key) DO UPDATE SET
			ride_id = EXCLUDED.ride_id, seats = EXCLUDED.seats, unit_cost = EXCLUDED.unit_cost,
			distance = EXCLUDED.distance, amount = EXCLUDED.amount,
			pickup_lat = EXCLUDED.pickup_lat, pickup_lng = EXCLUDED.pickup_lng,
			destination_lat = EXCLUDED.destination_lat, destination_lng = EXCLUDED.destination_lng,
			pickup_address = EXCLUDED.pickup_address, destination_address = EXCLUDED.destination_address,
			pickup_date = EXCLUDED.pickup_date, pickup_time = EXCLUDED.pickup_time,
			created_at = EXCLUDED.created_at
	`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.q.ExecContext(ctx, query,
		p.PayerID, p.Key, p.RideID, p.Seats, p.UnitCost, p.Distance, p.Amount,
		p.PickUp.Lat, p.PickUp.Lng, p.Destination.Lat, p.Destination.Lng,
		p.PickUpAddress, p.DestinationAddress, p.PickUpDate, p.PickUpTime, createdAt,
	)
	return translateError(err)
}

// Take deletes the pending payment and returns the deleted row.
// DELETE ... RETURNING makes the read and the removal a single statement,
// so two concurrent takes of the same key cannot both succeed.
func (r *PendingPaymentRepository) Take(ctx context.Context, payerID, key string) (*domain.PendingPayment, error) {
	query := `DELETE FROM pending_payments WHERE payer_id = $1 AND key = $2 RETURNING ` + pendingColumns

	p, err := scanPending(r.q.QueryRowContext(ctx, query, payerID, key))
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

// ListByPayer returns all pending payments of a payer.
func (r *PendingPaymentRepository) ListByPayer(ctx context.Context, payerID string) ([]*domain.PendingPayment, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_payments WHERE payer_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*domain.PendingPayment
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// DeleteOlderThan removes pending payments created before cutoff.
func (r *PendingPaymentRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM pending_payments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row rowScanner) (*domain.PendingPayment, error) {
	var p domain.PendingPayment
	err := row.Scan(
		&p.PayerID, &p.Key, &p.RideID, &p.Seats, &p.UnitCost, &p.Distance, &p.Amount,
		&p.PickUp.Lat, &p.PickUp.Lng, &p.Destination.Lat, &p.Destination.Lng,
		&p.PickUpAddress, &p.DestinationAddress, &p.PickUpDate, &p.PickUpTime, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ repository.PendingPaymentRepository = (*PendingPaymentRepository)(nil)

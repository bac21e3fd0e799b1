package postgres

import (
	"context"
	"database/sql"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// PastRideRepository is a PostgreSQL implementation of repository.PastRideRepository.
type PastRideRepository struct {
	q Querier
}

// NewPastRideRepository creates a new PostgreSQL ride history store.
func NewPastRideRepository(db *sql.DB) *PastRideRepository {
	return &PastRideRepository{q: db}
}

// NewPastRideRepositoryWithTx creates a ride history store using a transaction.
func NewPastRideRepositoryWithTx(tx *sql.Tx) *PastRideRepository {
	return &PastRideRepository{q: tx}
}

// Create appends a history entry.
func (r *PastRideRepository) Create(ctx context.Context, p *domain.PastRide) error {
	query := `
		INSERT INTO past_rides (id, ride_id, user_id, role, source, destination, overview_polyline, source_lat, source_lng, destination_lat, destination_lng, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var rating sql.NullFloat64
	if p.Rating != nil {
		rating = sql.NullFloat64{Float64: *p.Rating, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.RideID, p.UserID, p.Role, p.Source, p.Destination, p.OverviewPolyline,
		p.SourceCo.Lat, p.SourceCo.Lng, p.DestinationCo.Lat, p.DestinationCo.Lng,
		rating, p.CreatedAt,
	)
	return translateError(err)
}

const pastRideColumns = `id, ride_id, user_id, role, source, destination, overview_polyline, source_lat, source_lng, destination_lat, destination_lng, rating, created_at`

func scanPastRide(row rowScanner) (*domain.PastRide, error) {
	var p domain.PastRide
	var rating sql.NullFloat64
	err := row.Scan(
		&p.ID, &p.RideID, &p.UserID, &p.Role, &p.Source, &p.Destination, &p.OverviewPolyline,
		&p.SourceCo.Lat, &p.SourceCo.Lng, &p.DestinationCo.Lat, &p.DestinationCo.Lng,
		&rating, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	return &p, nil
}

// GetByID retrieves a history entry by ID.
func (r *PastRideRepository) GetByID(ctx context.Context, id string) (*domain.PastRide, error) {
	query := `SELECT ` + pastRideColumns + ` FROM past_rides WHERE id = $1`

	p, err := scanPastRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

// ListByUser returns a user's history entries, oldest first.
func (r *PastRideRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PastRide, error) {
	query := `SELECT ` + pastRideColumns + ` FROM past_rides WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*domain.PastRide
	for rows.Next() {
		p, err := scanPastRide(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}
	return history, rows.Err()
}

var _ repository.PastRideRepository = (*PastRideRepository)(nil)

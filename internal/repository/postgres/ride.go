package postgres

import (
	"context"
	"database/sql"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// AvailableRideRepository is a PostgreSQL implementation of repository.AvailableRideRepository.
type AvailableRideRepository struct {
	q Querier
}

// NewAvailableRideRepository creates a new PostgreSQL ride availability store.
func NewAvailableRideRepository(db *sql.DB) *AvailableRideRepository {
	return &AvailableRideRepository{q: db}
}

// NewAvailableRideRepositoryWithTx creates a ride availability store using a transaction.
func NewAvailableRideRepositoryWithTx(tx *sql.Tx) *AvailableRideRepository {
	return &AvailableRideRepository{q: tx}
}

// Create persists a new ride offer.
func (r *AvailableRideRepository) Create(ctx context.Context, ride *domain.AvailableRide) error {
	query := `
		INSERT INTO available_rides (id, driver_id, available_seats, vehicle_type, overview_polyline, driver_past_ride_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.AvailableSeats,
		ride.VehicleType,
		ride.OverviewPolyline,
		nullString(ride.DriverPastRideID),
	)
	return translateError(err)
}

// GetByID retrieves a ride by ID.
func (r *AvailableRideRepository) GetByID(ctx context.Context, id string) (*domain.AvailableRide, error) {
	query := `
		SELECT id, driver_id, available_seats, vehicle_type, overview_polyline, COALESCE(driver_past_ride_id, '')
		FROM available_rides WHERE id = $1
	`

	var ride domain.AvailableRide
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.AvailableSeats,
		&ride.VehicleType,
		&ride.OverviewPolyline,
		&ride.DriverPastRideID,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &ride, nil
}

// DecrementSeats subtracts seats in a single guarded UPDATE. The row lock
// taken by the UPDATE serializes concurrent settlements on the same ride.
func (r *AvailableRideRepository) DecrementSeats(ctx context.Context, id string, seats int) error {
	query := `
		UPDATE available_rides
		SET available_seats = available_seats - $1
		WHERE id = $2 AND available_seats >= $1
	`

	result, err := r.q.ExecContext(ctx, query, seats, id)
	if err != nil {
		return err
	}

	if err := requireAffected(result); err != nil {
		// Distinguish a missing ride from a failed guard.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repository.ErrInsufficientSeats
	}

	return nil
}

var _ repository.AvailableRideRepository = (*AvailableRideRepository)(nil)

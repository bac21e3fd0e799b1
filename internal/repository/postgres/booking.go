package postgres

import (
	"context"
	"database/sql"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking store.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking store using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create appends a booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.BookedRide) error {
	query := `
		INSERT INTO booked_rides (
			id, ride_id, passenger_id, seats,
			pickup_lat, pickup_lng, destination_lat, destination_lng,
			pickup_address, destination_address, pickup_date, pickup_time,
			unit_cost, distance, transaction_id, verification_code,
			vehicle_type, overview_polyline, passenger_name, passenger_image_url,
			driver_id, driver_name, driver_image_url, past_ride_id, driver_past_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.q.ExecContext(ctx, query,
		b.ID, b.RideID, b.PassengerID, b.Seats,
		b.PickUp.Lat, b.PickUp.Lng, b.Destination.Lat, b.Destination.Lng,
		b.PickUpAddress, b.DestinationAddress, b.PickUpDate, b.PickUpTime,
		b.UnitCost, b.Distance, b.TransactionID, b.VerificationCode,
		b.VehicleType, b.OverviewPolyline, b.PassengerName, nullString(b.PassengerImageURL),
		b.DriverID, b.DriverName, nullString(b.DriverImageURL), b.PastRideID, nullString(b.DriverPastID), b.CreatedAt,
	)
	return translateError(err)
}

const bookingColumns = `id, ride_id, passenger_id, seats,
	pickup_lat, pickup_lng, destination_lat, destination_lng,
	pickup_address, destination_address, pickup_date, pickup_time,
	unit_cost, distance, transaction_id, verification_code,
	vehicle_type, overview_polyline, passenger_name, COALESCE(passenger_image_url, ''),
	driver_id, driver_name, COALESCE(driver_image_url, ''), past_ride_id, COALESCE(driver_past_id, ''), created_at`

func scanBooking(row rowScanner) (*domain.BookedRide, error) {
	var b domain.BookedRide
	err := row.Scan(
		&b.ID, &b.RideID, &b.PassengerID, &b.Seats,
		&b.PickUp.Lat, &b.PickUp.Lng, &b.Destination.Lat, &b.Destination.Lng,
		&b.PickUpAddress, &b.DestinationAddress, &b.PickUpDate, &b.PickUpTime,
		&b.UnitCost, &b.Distance, &b.TransactionID, &b.VerificationCode,
		&b.VehicleType, &b.OverviewPolyline, &b.PassengerName, &b.PassengerImageURL,
		&b.DriverID, &b.DriverName, &b.DriverImageURL, &b.PastRideID, &b.DriverPastID, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByTransactionID retrieves the booking created for a transaction.
func (r *BookingRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.BookedRide, error) {
	query := `SELECT ` + bookingColumns + ` FROM booked_rides WHERE transaction_id = $1`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		return nil, translateError(err)
	}
	return b, nil
}

// ListByPassenger returns a passenger's bookings, oldest first.
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.BookedRide, error) {
	query := `SELECT ` + bookingColumns + ` FROM booked_rides WHERE passenger_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.BookedRide
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

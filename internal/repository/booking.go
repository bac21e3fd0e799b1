package repository

import (
	"context"

	"ridepay/internal/domain"
)

// BookingRepository defines the persistence operations for booked rides.
type BookingRepository interface {
	// Create appends a booking.
	Create(ctx context.Context, booking *domain.BookedRide) error

	// GetByTransactionID retrieves the booking created for a transaction.
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.BookedRide, error)

	// ListByPassenger returns a passenger's bookings, oldest first.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.BookedRide, error)
}

// PastRideRepository defines the persistence operations for ride history.
type PastRideRepository interface {
	// Create appends a history entry.
	Create(ctx context.Context, pastRide *domain.PastRide) error

	// GetByID retrieves a history entry by ID.
	GetByID(ctx context.Context, id string) (*domain.PastRide, error)

	// ListByUser returns a user's history entries, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.PastRide, error)
}

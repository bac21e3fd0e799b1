package repository

import (
	"context"

	"ridepay/internal/domain"
)

// AvailableRideRepository defines the persistence operations for seat inventory.
type AvailableRideRepository interface {
	// Create persists a new ride offer.
	Create(ctx context.Context, ride *domain.AvailableRide) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.AvailableRide, error)

	// DecrementSeats atomically subtracts seats from the ride's inventory
	// if at least that many are available. Returns ErrInsufficientSeats when
	// the guard fails and ErrNotFound when the ride does not exist.
	DecrementSeats(ctx context.Context, id string, seats int) error
}

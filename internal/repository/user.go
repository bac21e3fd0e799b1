package repository

import (
	"context"

	"ridepay/internal/domain"
)

// UserRepository defines the persistence operations for riders and drivers.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

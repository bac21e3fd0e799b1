package repository

import (
	"context"

	"ridepay/internal/domain"
)

// SettlementFailureRepository stores payments that could not be settled.
type SettlementFailureRepository interface {
	// Create records a failure. Returns ErrDuplicate if the intent already
	// has a failure on record.
	Create(ctx context.Context, failure *domain.SettlementFailure) error

	// GetByIntentID returns the failure for an intent, or nil if none.
	GetByIntentID(ctx context.Context, intentID string) (*domain.SettlementFailure, error)

	// ListUnresolved returns failures not yet resolved by an operator.
	ListUnresolved(ctx context.Context, limit int) ([]*domain.SettlementFailure, error)

	// Resolve marks the failure for an intent as handled.
	Resolve(ctx context.Context, intentID string) error
}

package repository

import (
	"context"
	"time"

	"ridepay/internal/domain"
)

// PendingPaymentRepository is the per-payer ledger of checkout intents.
type PendingPaymentRepository interface {
	// Put stores a pending payment under (PayerID, Key), replacing any
	// previous intent with the same key.
	Put(ctx context.Context, pending *domain.PendingPayment) error

	// Take removes and returns the pending payment. A second Take for the
	// same key returns ErrNotFound.
	Take(ctx context.Context, payerID, key string) (*domain.PendingPayment, error)

	// ListByPayer returns all pending payments of a payer, oldest first.
	ListByPayer(ctx context.Context, payerID string) ([]*domain.PendingPayment, error)

	// DeleteOlderThan removes pending payments created before cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TransactionRepository is the append-only ledger of completed charges.
type TransactionRepository interface {
	// Create appends a transaction. Returns ErrDuplicate if a transaction
	// with the same intent ID already exists.
	Create(ctx context.Context, txn *domain.Transaction) error

	// GetByIntentID retrieves a transaction by gateway intent ID.
	// Returns nil if no transaction exists for the intent.
	GetByIntentID(ctx context.Context, intentID string) (*domain.Transaction, error)
}

package postgres

import (
	"context"
	"database/sql"

	"ridepay/internal/repository"
)

// TxRunner implements repository.TxRunner on a *sql.DB.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a new TxRunner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Repositories returns non-transactional repositories backed by db.
func Repositories(db *sql.DB) repository.Repositories {
	return repository.Repositories{
		Users:        NewUserRepository(db),
		Pending:      NewPendingPaymentRepository(db),
		Rides:        NewAvailableRideRepository(db),
		Transactions: NewTransactionRepository(db),
		PastRides:    NewPastRideRepository(db),
		Bookings:     NewBookingRepository(db),
		Failures:     NewSettlementFailureRepository(db),
	}
}

// WithinTx runs fn with transaction-scoped repositories and commits if fn
// returns nil.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	repos := repository.Repositories{
		Users:        NewUserRepositoryWithTx(tx),
		Pending:      NewPendingPaymentRepositoryWithTx(tx),
		Rides:        NewAvailableRideRepositoryWithTx(tx),
		Transactions: NewTransactionRepositoryWithTx(tx),
		PastRides:    NewPastRideRepositoryWithTx(tx),
		Bookings:     NewBookingRepositoryWithTx(tx),
		Failures:     NewSettlementFailureRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	return tx.Commit()
}

var _ repository.TxRunner = (*TxRunner)(nil)

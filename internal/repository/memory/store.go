// Package memory provides in-process implementations of the repository
// interfaces. Writes inside WithinTx are undone when the callback fails.
package memory

import (
	"context"
	"sync"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// Store holds every entity in maps guarded by a single mutex.
type Store struct {
	mu           sync.Mutex
	users        map[string]domain.User
	pending      map[pendingKey]domain.PendingPayment
	rides        map[string]domain.AvailableRide
	transactions map[string]domain.Transaction // by intent ID
	pastRides    map[string]domain.PastRide
	bookings     map[string]domain.BookedRide // by transaction ID
	failures     map[string]domain.SettlementFailure // by intent ID

	// txMu serializes transactions. Writes made outside WithinTx only take mu.
	txMu sync.Mutex
}

type pendingKey struct {
	payerID string
	key     string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		pending:      make(map[pendingKey]domain.PendingPayment),
		rides:        make(map[string]domain.AvailableRide),
		transactions: make(map[string]domain.Transaction),
		pastRides:    make(map[string]domain.PastRide),
		bookings:     make(map[string]domain.BookedRide),
		failures:     make(map[string]domain.SettlementFailure),
	}
}

// view is the Store seen through one set of repositories. Views handed out
// by WithinTx carry an undo log; plain views have none.
type view struct {
	store *Store
	undo  *undoLog
}

// Repositories returns repository views over the store.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(nil)
}

func (s *Store) repositories(undo *undoLog) repository.Repositories {
	return repository.Repositories{
		Users:        &UserRepository{store: s, undo: undo},
		Pending:      &PendingPaymentRepository{store: s, undo: undo},
		Rides:        &AvailableRideRepository{store: s, undo: undo},
		Transactions: &TransactionRepository{store: s, undo: undo},
		PastRides:    &PastRideRepository{store: s, undo: undo},
		Bookings:     &BookingRepository{store: s, undo: undo},
		Failures:     &SettlementFailureRepository{store: s, undo: undo},
	}
}

// WithinTx runs fn against the store. If fn returns an error, the writes fn
// made are undone in reverse order. Writes made concurrently outside the
// transaction are left alone.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := &undoLog{}
	if err := fn(ctx, s.repositories(undo)); err != nil {
		s.mu.Lock()
		undo.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// undoLog records inverse operations. Entries are added and replayed with
// Store.mu held.
type undoLog struct {
	steps []func()
}

func (u *undoLog) add(step func()) {
	if u == nil {
		return
	}
	u.steps = append(u.steps, step)
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

// remember records how to put m[k] back to its current state.
func remember[K comparable, V any](u *undoLog, m map[K]V, k K) {
	if u == nil {
		return
	}
	old, existed := m[k]
	u.add(func() {
		if existed {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

var _ repository.TxRunner = (*Store)(nil)

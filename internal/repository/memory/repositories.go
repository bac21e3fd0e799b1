package memory

import (
	"context"
	"sort"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// UserRepository is a view of the Store as a repository.UserRepository.
type UserRepository view

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	u := *user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	remember(r.undo, s.users, u.ID)
	s.users[u.ID] = u
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// PendingPaymentRepository is a view of the Store as a repository.PendingPaymentRepository.
type PendingPaymentRepository view

func (r *PendingPaymentRepository) Put(ctx context.Context, p *domain.PendingPayment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *p
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	k := pendingKey{payerID: p.PayerID, key: p.Key}
	remember(r.undo, s.pending, k)
	s.pending[k] = v
	return nil
}

func (r *PendingPaymentRepository) Take(ctx context.Context, payerID, key string) (*domain.PendingPayment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pendingKey{payerID: payerID, key: key}
	p, ok := s.pending[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	remember(r.undo, s.pending, k)
	delete(s.pending, k)
	return &p, nil
}

func (r *PendingPaymentRepository) ListByPayer(ctx context.Context, payerID string) ([]*domain.PendingPayment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PendingPayment
	for k, p := range s.pending {
		if k.payerID != payerID {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PendingPaymentRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, p := range s.pending {
		if p.CreatedAt.Before(cutoff) {
			remember(r.undo, s.pending, k)
			delete(s.pending, k)
			n++
		}
	}
	return n, nil
}

// AvailableRideRepository is a view of the Store as a repository.AvailableRideRepository.
type AvailableRideRepository view

func (r *AvailableRideRepository) Create(ctx context.Context, ride *domain.AvailableRide) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	remember(r.undo, s.rides, ride.ID)
	s.rides[ride.ID] = *ride
	return nil
}

func (r *AvailableRideRepository) GetByID(ctx context.Context, id string) (*domain.AvailableRide, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ride, ok := s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ride, nil
}

// DecrementSeats checks and updates under the store mutex, so concurrent
// callers observe a linearizable counter.
func (r *AvailableRideRepository) DecrementSeats(ctx context.Context, id string, seats int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ride, ok := s.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.AvailableSeats < seats {
		return repository.ErrInsufficientSeats
	}
	ride.AvailableSeats -= seats
	s.rides[id] = ride
	// Undo by adding the seats back, not by restoring the old count.
	r.undo.add(func() {
		if ride, ok := s.rides[id]; ok {
			ride.AvailableSeats += seats
			s.rides[id] = ride
		}
	})
	return nil
}

// TransactionRepository is a view of the Store as a repository.TransactionRepository.
type TransactionRepository view

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.IntentID]; ok {
		return repository.ErrDuplicate
	}
	remember(r.undo, s.transactions, t.IntentID)
	s.transactions[t.IntentID] = *t
	return nil
}

func (r *TransactionRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[intentID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// PastRideRepository is a view of the Store as a repository.PastRideRepository.
type PastRideRepository view

func (r *PastRideRepository) Create(ctx context.Context, p *domain.PastRide) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pastRides[p.ID]; ok {
		return repository.ErrDuplicate
	}
	remember(r.undo, s.pastRides, p.ID)
	s.pastRides[p.ID] = *p
	return nil
}

func (r *PastRideRepository) GetByID(ctx context.Context, id string) (*domain.PastRide, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pastRides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// ListByUser returns a user's history entries, oldest first.
func (r *PastRideRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PastRide, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PastRide
	for _, p := range s.pastRides {
		if p.UserID != userID {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// BookingRepository is a view of the Store as a repository.BookingRepository.
type BookingRepository view

func (r *BookingRepository) Create(ctx context.Context, b *domain.BookedRide) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.TransactionID]; ok {
		return repository.ErrDuplicate
	}
	remember(r.undo, s.bookings, b.TransactionID)
	s.bookings[b.TransactionID] = *b
	return nil
}

func (r *BookingRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.BookedRide, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[transactionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

// ListByPassenger returns a passenger's bookings, oldest first.
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.BookedRide, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BookedRide
	for _, b := range s.bookings {
		if b.PassengerID != passengerID {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SettlementFailureRepository is a view of the Store as a repository.SettlementFailureRepository.
type SettlementFailureRepository view

func (r *SettlementFailureRepository) Create(ctx context.Context, f *domain.SettlementFailure) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failures[f.IntentID]; ok {
		return repository.ErrDuplicate
	}
	remember(r.undo, s.failures, f.IntentID)
	s.failures[f.IntentID] = *f
	return nil
}

func (r *SettlementFailureRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.SettlementFailure, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[intentID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r *SettlementFailureRepository) ListUnresolved(ctx context.Context, limit int) ([]*domain.SettlementFailure, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.SettlementFailure
	for _, f := range s.failures {
		if f.Resolved() {
			continue
		}
		f := f
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SettlementFailureRepository) Resolve(ctx context.Context, intentID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[intentID]
	if !ok || f.Resolved() {
		return repository.ErrNotFound
	}
	remember(r.undo, s.failures, intentID)
	f.ResolvedAt = time.Now()
	s.failures[intentID] = f
	return nil
}

// Ensure interfaces are satisfied.
var (
	_ repository.UserRepository              = (*UserRepository)(nil)
	_ repository.PendingPaymentRepository    = (*PendingPaymentRepository)(nil)
	_ repository.AvailableRideRepository     = (*AvailableRideRepository)(nil)
	_ repository.TransactionRepository       = (*TransactionRepository)(nil)
	_ repository.PastRideRepository          = (*PastRideRepository)(nil)
	_ repository.BookingRepository           = (*BookingRepository)(nil)
	_ repository.SettlementFailureRepository = (*SettlementFailureRepository)(nil)
)

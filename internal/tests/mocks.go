package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/events"
	"ridepay/internal/gateway"
	"ridepay/internal/redis"
	"ridepay/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireSettlementLock(ctx context.Context, intentID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:settlement:" + intentID
	if expiry, exists := m.locks[key]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseSettlementLock(ctx context.Context, intentID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:settlement:"+intentID)
	return nil
}

// Hold takes the lock for an intent as if another worker owned it.
func (m *MockLockStore) Hold(intentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:settlement:"+intentID] = time.Now().Add(time.Hour)
}

// IsLocked checks if an intent is locked (for test assertions).
func (m *MockLockStore) IsLocked(intentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:settlement:"+intentID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK RIDE CACHE
// ──────────────────────────────────────────────

// MockRideCache is a mock implementation of the ride availability cache.
type MockRideCache struct {
	mu    sync.Mutex
	rides map[string]redis.CachedRide

	// Counters
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockRideCache creates a new mock ride cache.
func NewMockRideCache() *MockRideCache {
	return &MockRideCache{rides: make(map[string]redis.CachedRide)}
}

func (m *MockRideCache) GetRide(ctx context.Context, rideID string) (*redis.CachedRide, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	return &ride, nil
}

func (m *MockRideCache) SetRide(ctx context.Context, ride *redis.CachedRide) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = *ride
	return nil
}

func (m *MockRideCache) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

// Has reports whether a ride is cached (for test assertions).
func (m *MockRideCache) Has(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rides[rideID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published settlement events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.SettlementEvent

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event events.SettlementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Events returns the published events of a kind.
func (m *MockPublisher) Events(kind events.Kind) []events.SettlementEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.SettlementEvent
	for _, e := range m.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK CHECKOUT GATEWAY
// ──────────────────────────────────────────────

// MockCheckoutGateway is a mock hosted checkout provider.
type MockCheckoutGateway struct {
	mu       sync.Mutex
	requests []gateway.SessionRequest

	// Control behavior
	URL       string
	FailError error

	// Counters
	CreateCallCount int32
}

// NewMockCheckoutGateway creates a new mock checkout gateway.
func NewMockCheckoutGateway() *MockCheckoutGateway {
	return &MockCheckoutGateway{URL: "https://checkout.test/session"}
}

func (m *MockCheckoutGateway) CreateSession(ctx context.Context, req gateway.SessionRequest) (string, error) {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailError != nil {
		return "", m.FailError
	}
	m.requests = append(m.requests, req)
	return m.URL, nil
}

// LastRequest returns the most recent session request.
func (m *MockCheckoutGateway) LastRequest() (gateway.SessionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return gateway.SessionRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// ──────────────────────────────────────────────
// FAULTY TRANSACTION RUNNER
// ──────────────────────────────────────────────

// FaultyTxRunner wraps a TxRunner and makes one store inside the unit of
// work fail, to exercise rollback on store failures.
type FaultyTxRunner struct {
	Inner repository.TxRunner

	// Error injection
	BookingCreateError error
	DecrementError     error
}

func (f *FaultyTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return f.Inner.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if f.BookingCreateError != nil {
			repos.Bookings = faultyBookings{BookingRepository: repos.Bookings, err: f.BookingCreateError}
		}
		if f.DecrementError != nil {
			repos.Rides = faultyRides{AvailableRideRepository: repos.Rides, err: f.DecrementError}
		}
		return fn(ctx, repos)
	})
}

type faultyBookings struct {
	repository.BookingRepository
	err error
}

func (f faultyBookings) Create(ctx context.Context, booking *domain.BookedRide) error {
	return f.err
}

type faultyRides struct {
	repository.AvailableRideRepository
	err error
}

func (f faultyRides) DecrementSeats(ctx context.Context, id string, seats int) error {
	return f.err
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockConnReset = errors.New("mock: connection reset")
	ErrMockTimeout   = errors.New("mock: operation timeout")
)

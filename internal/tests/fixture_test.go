package tests

import (
	"context"
	"testing"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/logging"
	"ridepay/internal/repository"
	"ridepay/internal/repository/memory"
	"ridepay/internal/service"
)

type fixture struct {
	store     *memory.Store
	repos     repository.Repositories
	locks     *MockLockStore
	cache     *MockRideCache
	publisher *MockPublisher
	svc       *service.SettlementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil)
}

// newFixtureWith builds a settlement service over a fresh memory store.
// runner defaults to the store itself; locks may be nil.
func newFixtureWith(t *testing.T, runner func(*memory.Store) repository.TxRunner, locks *MockLockStore) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:     store,
		repos:     store.Repositories(),
		locks:     locks,
		cache:     NewMockRideCache(),
		publisher: NewMockPublisher(),
	}

	var tx repository.TxRunner = store
	if runner != nil {
		tx = runner(store)
	}

	deps := service.SettlementDeps{
		TxRunner:  tx,
		Repos:     f.repos,
		LockTTL:   time.Minute,
		Cache:     f.cache,
		Publisher: f.publisher,
		Logger:    logging.Discard(),
	}
	if locks != nil {
		deps.Locks = locks
	}
	f.svc = service.NewSettlementService(deps)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	err := f.repos.Users.Create(context.Background(), &domain.User{
		ID:       id,
		Name:     name,
		Email:    id + "@example.com",
		ImageURL: "https://img.example.com/" + id,
	})
	if err != nil {
		t.Fatalf("failed to add user: %v", err)
	}
}

// addRide adds a ride offered by driverID, creating the driver if needed.
func (f *fixture) addRide(t *testing.T, rideID, driverID string, seats int) {
	t.Helper()
	if _, err := f.repos.Users.GetByID(context.Background(), driverID); err != nil {
		f.addUser(t, driverID, "Driver "+driverID)
	}
	f.addRideOnly(t, rideID, driverID, seats)
}

func (f *fixture) addRideOnly(t *testing.T, rideID, driverID string, seats int) {
	t.Helper()
	err := f.repos.Rides.Create(context.Background(), &domain.AvailableRide{
		ID:               rideID,
		DriverID:         driverID,
		AvailableSeats:   seats,
		VehicleType:      "sedan",
		OverviewPolyline: "a~l~Fjk~uOwHJy@P",
		DriverPastRideID: "past-" + driverID,
	})
	if err != nil {
		t.Fatalf("failed to add ride: %v", err)
	}
}

func (f *fixture) addPending(t *testing.T, payerID, key, rideID string, seats int) {
	t.Helper()
	err := f.repos.Pending.Put(context.Background(), &domain.PendingPayment{
		Key:                key,
		PayerID:            payerID,
		RideID:             rideID,
		Seats:              seats,
		UnitCost:           12.5,
		Distance:           8.2,
		Amount:             12.5 * float64(seats),
		PickUp:             domain.Coordinates{Lat: 12.97, Lng: 77.59},
		Destination:        domain.Coordinates{Lat: 13.01, Lng: 77.66},
		PickUpAddress:      "MG Road",
		DestinationAddress: "Indiranagar",
		PickUpDate:         "2024-05-01",
		PickUpTime:         "09:30",
	})
	if err != nil {
		t.Fatalf("failed to add pending payment: %v", err)
	}
}

func (f *fixture) seats(t *testing.T, rideID string) int {
	t.Helper()
	ride, err := f.repos.Rides.GetByID(context.Background(), rideID)
	if err != nil {
		t.Fatalf("failed to load ride: %v", err)
	}
	return ride.AvailableSeats
}

func (f *fixture) transaction(t *testing.T, intentID string) *domain.Transaction {
	t.Helper()
	txn, err := f.repos.Transactions.GetByIntentID(context.Background(), intentID)
	if err != nil {
		t.Fatalf("failed to load transaction: %v", err)
	}
	return txn
}

func (f *fixture) pendingCount(t *testing.T, payerID string) int {
	t.Helper()
	list, err := f.repos.Pending.ListByPayer(context.Background(), payerID)
	if err != nil {
		t.Fatalf("failed to list pending payments: %v", err)
	}
	return len(list)
}

func succeeded(intentID, payerID, key string, amountMinor int64) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		Type:         domain.PaymentEventSucceeded,
		IntentID:     intentID,
		PayerID:      payerID,
		PendingKey:   key,
		AmountMinor:  amountMinor,
		LatestCharge: "ch_" + intentID,
	}
}

package repository

import "context"

// Repositories groups the stores a settlement touches. Inside WithinTx all
// of them share one unit of work.
type Repositories struct {
	Users        UserRepository
	Pending      PendingPaymentRepository
	Rides        AvailableRideRepository
	Transactions TransactionRepository
	PastRides    PastRideRepository
	Bookings     BookingRepository
	Failures     SettlementFailureRepository
}

// TxRunner runs fn inside a single transaction. If fn returns an error
// every write made through repos is rolled back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

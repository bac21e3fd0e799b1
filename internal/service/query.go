package service

import (
	"context"
	"errors"
	"log/slog"

	"ridepay/internal/domain"
	"ridepay/internal/redis"
	"ridepay/internal/repository"
)

// QueryService serves read-side lookups and dead-letter administration.
type QueryService struct {
	repos  repository.Repositories
	cache  redis.RideCacheInterface
	logger *slog.Logger
}

// NewQueryService creates a new QueryService. cache may be nil.
func NewQueryService(repos repository.Repositories, cache redis.RideCacheInterface, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{repos: repos, cache: cache, logger: logger}
}

// RideAvailability is the seat inventory of a ride.
type RideAvailability struct {
	RideID         string
	DriverID       string
	AvailableSeats int
	VehicleType    string
	Cached         bool
}

// PendingPayments lists a payer's unconfirmed checkouts.
func (s *QueryService) PendingPayments(ctx context.Context, payerID string) ([]*domain.PendingPayment, error) {
	if payerID == "" {
		return nil, ErrInvalidPayerID
	}
	return s.repos.Pending.ListByPayer(ctx, payerID)
}

// Bookings lists a passenger's settled bookings.
func (s *QueryService) Bookings(ctx context.Context, passengerID string) ([]*domain.BookedRide, error) {
	if passengerID == "" {
		return nil, ErrInvalidPayerID
	}
	return s.repos.Bookings.ListByPassenger(ctx, passengerID)
}

// History lists a user's past rides as passenger and as driver.
func (s *QueryService) History(ctx context.Context, userID string) ([]*domain.PastRide, error) {
	if userID == "" {
		return nil, ErrInvalidPayerID
	}
	return s.repos.PastRides.ListByUser(ctx, userID)
}

// Transaction returns the settled transaction for a gateway intent.
func (s *QueryService) Transaction(ctx context.Context, intentID string) (*domain.Transaction, error) {
	if intentID == "" {
		return nil, ErrInvalidIntentID
	}
	txn, err := s.repos.Transactions.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

// Booking returns the booking created for a transaction.
func (s *QueryService) Booking(ctx context.Context, transactionID string) (*domain.BookedRide, error) {
	booking, err := s.repos.Bookings.GetByTransactionID(ctx, transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	return booking, err
}

// Availability reads a ride's seat count through the cache.
func (s *QueryService) Availability(ctx context.Context, rideID string) (*RideAvailability, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	if s.cache != nil {
		cached, err := s.cache.GetRide(ctx, rideID)
		if err != nil {
			s.logger.WarnContext(ctx, "ride cache read failed", "ride_id", rideID, "error", err)
		} else if cached != nil {
			return &RideAvailability{
				RideID:         cached.ID,
				DriverID:       cached.DriverID,
				AvailableSeats: cached.AvailableSeats,
				VehicleType:    cached.VehicleType,
				Cached:         true,
			}, nil
		}
	}

	ride, err := s.repos.Rides.GetByID(ctx, rideID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRide(ctx, &redis.CachedRide{
			ID:             ride.ID,
			DriverID:       ride.DriverID,
			AvailableSeats: ride.AvailableSeats,
			VehicleType:    ride.VehicleType,
		}); err != nil {
			s.logger.WarnContext(ctx, "ride cache write failed", "ride_id", rideID, "error", err)
		}
	}

	return &RideAvailability{
		RideID:         ride.ID,
		DriverID:       ride.DriverID,
		AvailableSeats: ride.AvailableSeats,
		VehicleType:    ride.VehicleType,
	}, nil
}

// Failures lists unresolved settlement failures, oldest first.
func (s *QueryService) Failures(ctx context.Context, limit int) ([]*domain.SettlementFailure, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repos.Failures.ListUnresolved(ctx, limit)
}

// ResolveFailure marks a settlement failure as reconciled by an operator.
func (s *QueryService) ResolveFailure(ctx context.Context, intentID string) error {
	if intentID == "" {
		return ErrInvalidIntentID
	}
	err := s.repos.Failures.Resolve(ctx, intentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFailureNotFound
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "settlement failure resolved", "intent_id", intentID)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridepay/internal/domain"
	"ridepay/internal/events"
	"ridepay/internal/observability"
	"ridepay/internal/redis"
	"ridepay/internal/repository"
)

// Outcome is how a settlement attempt ended when it did not fail.
type Outcome string

const (
	// OutcomeSettled means the payment became a booking.
	OutcomeSettled Outcome = "settled"
	// OutcomeDuplicate means the intent was already handled, either settled
	// or recorded as a failure.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored means the event kind is not a successful payment.
	OutcomeIgnored Outcome = "ignored"
)

// SettlementResult describes a completed settlement attempt.
type SettlementResult struct {
	Outcome     Outcome
	Transaction *domain.Transaction
	Booking     *domain.BookedRide
	PastRide    *domain.PastRide
}

// SettlementDeps holds the collaborators of SettlementService. Locks, Cache
// and Publisher are optional.
type SettlementDeps struct {
	TxRunner  repository.TxRunner
	Repos     repository.Repositories
	Locks     redis.LockStoreInterface
	LockTTL   time.Duration
	Cache     redis.RideCacheInterface
	Publisher events.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// SettlementService turns verified payment confirmations into bookings.
type SettlementService struct {
	tx        repository.TxRunner
	repos     repository.Repositories
	locks     redis.LockStoreInterface
	lockTTL   time.Duration
	cache     redis.RideCacheInterface
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(deps SettlementDeps) *SettlementService {
	s := &SettlementService{
		tx:        deps.TxRunner,
		repos:     deps.Repos,
		locks:     deps.Locks,
		lockTTL:   deps.LockTTL,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 30 * time.Second
	}
	return s
}

// settlementFailure carries the dead-letter details of a terminal error out
// of the rolled-back unit of work.
type settlementFailure struct {
	err    error
	reason domain.FailureReason
	rideID string
	detail string
}

func (f *settlementFailure) Error() string { return f.err.Error() + ": " + f.detail }
func (f *settlementFailure) Unwrap() error { return f.err }

func fail(err error, reason domain.FailureReason, rideID, detail string) error {
	return &settlementFailure{err: err, reason: reason, rideID: rideID, detail: detail}
}

// Settle applies a payment confirmation exactly once per intent ID.
//
// Terminal errors (see IsTerminal) are recorded as settlement failures and
// should be acknowledged to the gateway. Any other error leaves no trace and
// the event may be redelivered.
func (s *SettlementService) Settle(ctx context.Context, event *domain.PaymentEvent) (*SettlementResult, error) {
	start := s.now()
	result, err := s.settle(ctx, event)
	observability.SettlementLatency.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		observability.SettlementsTotal.WithLabelValues(string(result.Outcome)).Inc()
	case IsTerminal(err):
		observability.SettlementsTotal.WithLabelValues("terminal").Inc()
	case errors.Is(err, ErrSettlementInProgress):
		observability.SettlementsTotal.WithLabelValues("in_progress").Inc()
	default:
		observability.SettlementsTotal.WithLabelValues("error").Inc()
	}
	return result, err
}

func (s *SettlementService) settle(ctx context.Context, event *domain.PaymentEvent) (*SettlementResult, error) {
	if event == nil {
		return nil, ErrInvalidEvent
	}
	if event.Type != domain.PaymentEventSucceeded {
		s.logger.InfoContext(ctx, "ignoring payment event", "type", string(event.Type), "intent_id", event.IntentID)
		return &SettlementResult{Outcome: OutcomeIgnored}, nil
	}
	if event.IntentID == "" {
		return nil, ErrInvalidEvent
	}

	log := s.logger.With("intent_id", event.IntentID, "payer_id", event.PayerID)

	if s.locks != nil {
		acquired, err := s.locks.AcquireSettlementLock(ctx, event.IntentID, s.lockTTL)
		switch {
		case err != nil:
			// The database guards still hold without the lock.
			log.WarnContext(ctx, "settlement lock unavailable", "error", err)
		case !acquired:
			return nil, ErrSettlementInProgress
		default:
			defer func() {
				if err := s.locks.ReleaseSettlementLock(context.WithoutCancel(ctx), event.IntentID); err != nil {
					log.WarnContext(ctx, "failed to release settlement lock", "error", err)
				}
			}()
		}
	}

	handled, err := s.alreadyHandled(ctx, event.IntentID)
	if err != nil {
		return nil, err
	}
	if handled {
		log.InfoContext(ctx, "payment already handled")
		return &SettlementResult{Outcome: OutcomeDuplicate}, nil
	}

	var result *SettlementResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := s.apply(ctx, repos, event)
		result = r
		return err
	})

	if errors.Is(err, repository.ErrDuplicate) {
		log.InfoContext(ctx, "payment settled concurrently")
		return &SettlementResult{Outcome: OutcomeDuplicate}, nil
	}

	var sf *settlementFailure
	if errors.As(err, &sf) {
		return s.handleFailure(ctx, log, event, sf)
	}
	if err != nil {
		log.ErrorContext(ctx, "settlement failed", "error", err)
		return nil, fmt.Errorf("settle payment %s: %w", event.IntentID, err)
	}

	s.afterCommit(ctx, log, event, result)
	return result, nil
}

// alreadyHandled reports whether the intent has a transaction or a recorded
// failure.
func (s *SettlementService) alreadyHandled(ctx context.Context, intentID string) (bool, error) {
	txn, err := s.repos.Transactions.GetByIntentID(ctx, intentID)
	if err != nil {
		return false, fmt.Errorf("lookup transaction: %w", err)
	}
	if txn != nil {
		return true, nil
	}

	failure, err := s.repos.Failures.GetByIntentID(ctx, intentID)
	if err != nil {
		return false, fmt.Errorf("lookup settlement failure: %w", err)
	}
	return failure != nil, nil
}

// apply runs the settlement steps against one unit of work. Any error rolls
// every write back.
func (s *SettlementService) apply(ctx context.Context, repos repository.Repositories, event *domain.PaymentEvent) (*SettlementResult, error) {
	payer, err := repos.Users.GetByID(ctx, event.PayerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrPayerNotFound, domain.FailurePayerNotFound, "", "payer "+event.PayerID)
	}
	if err != nil {
		return nil, fmt.Errorf("load payer: %w", err)
	}

	pending, err := repos.Pending.Take(ctx, event.PayerID, event.PendingKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrPendingPaymentNotFound, domain.FailurePendingNotFound, "", "pending key "+event.PendingKey)
	}
	if err != nil {
		return nil, fmt.Errorf("take pending payment: %w", err)
	}

	ride, err := repos.Rides.GetByID(ctx, pending.RideID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrRideNotFound, domain.FailureRideNotFound, pending.RideID, "ride "+pending.RideID)
	}
	if err != nil {
		return nil, fmt.Errorf("load ride: %w", err)
	}

	err = repos.Rides.DecrementSeats(ctx, ride.ID, pending.Seats)
	switch {
	case errors.Is(err, repository.ErrInsufficientSeats):
		return nil, fail(ErrOversold, domain.FailureOversold, ride.ID,
			fmt.Sprintf("requested %d seats", pending.Seats))
	case errors.Is(err, repository.ErrNotFound):
		return nil, fail(ErrRideNotFound, domain.FailureRideNotFound, ride.ID, "ride "+ride.ID)
	case err != nil:
		return nil, fmt.Errorf("decrement seats: %w", err)
	}

	driver, err := repos.Users.GetByID(ctx, ride.DriverID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrDriverNotFound, domain.FailureDriverNotFound, ride.ID, "driver "+ride.DriverID)
	}
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}

	now := s.now()

	txn := &domain.Transaction{
		ID:           uuid.New().String(),
		IntentID:     event.IntentID,
		PaidBy:       payer.ID,
		PaidTo:       ride.DriverID,
		AmountPaid:   event.AmountMajor(),
		UnitCost:     pending.UnitCost,
		Distance:     pending.Distance,
		Seats:        pending.Seats,
		RideID:       ride.ID,
		DriverName:   driver.Name,
		Source:       pending.PickUpAddress,
		Destination:  pending.DestinationAddress,
		LatestCharge: event.LatestCharge,
		CreatedAt:    now,
	}
	if err := repos.Transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	pastRide := &domain.PastRide{
		ID:               uuid.New().String(),
		RideID:           ride.ID,
		UserID:           payer.ID,
		Role:             domain.RolePassenger,
		Source:           pending.PickUpAddress,
		Destination:      pending.DestinationAddress,
		OverviewPolyline: ride.OverviewPolyline,
		SourceCo:         pending.PickUp,
		DestinationCo:    pending.Destination,
		CreatedAt:        now,
	}
	if err := repos.PastRides.Create(ctx, pastRide); err != nil {
		return nil, fmt.Errorf("append past ride: %w", err)
	}

	booking := &domain.BookedRide{
		ID:                 uuid.New().String(),
		RideID:             ride.ID,
		PassengerID:        payer.ID,
		Seats:              pending.Seats,
		PickUp:             pending.PickUp,
		Destination:        pending.Destination,
		PickUpAddress:      pending.PickUpAddress,
		DestinationAddress: pending.DestinationAddress,
		PickUpDate:         pending.PickUpDate,
		PickUpTime:         pending.PickUpTime,
		UnitCost:           pending.UnitCost,
		Distance:           pending.Distance,
		TransactionID:      txn.ID,
		VerificationCode:   NewVerificationCode(now),
		VehicleType:        ride.VehicleType,
		OverviewPolyline:   ride.OverviewPolyline,
		PassengerName:      payer.Name,
		PassengerImageURL:  payer.ImageURL,
		DriverID:           driver.ID,
		DriverName:         driver.Name,
		DriverImageURL:     driver.ImageURL,
		PastRideID:         pastRide.ID,
		DriverPastID:       ride.DriverPastRideID,
		CreatedAt:          now,
	}
	if err := repos.Bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("append booking: %w", err)
	}

	return &SettlementResult{
		Outcome:     OutcomeSettled,
		Transaction: txn,
		Booking:     booking,
		PastRide:    pastRide,
	}, nil
}

// handleFailure records a terminal failure once the settlement unit has been
// rolled back and publishes it as a dead letter.
func (s *SettlementService) handleFailure(ctx context.Context, log *slog.Logger, event *domain.PaymentEvent, sf *settlementFailure) (*SettlementResult, error) {
	// A concurrent delivery of the same intent may have consumed the pending
	// row and committed between our check and our take.
	txn, err := s.repos.Transactions.GetByIntentID(ctx, event.IntentID)
	if err != nil {
		return nil, fmt.Errorf("lookup transaction: %w", err)
	}
	if txn != nil {
		log.InfoContext(ctx, "payment settled concurrently")
		return &SettlementResult{Outcome: OutcomeDuplicate}, nil
	}

	failure := &domain.SettlementFailure{
		ID:          uuid.New().String(),
		IntentID:    event.IntentID,
		PayerID:     event.PayerID,
		PendingKey:  event.PendingKey,
		RideID:      sf.rideID,
		Reason:      sf.reason,
		Detail:      sf.detail,
		AmountMinor: event.AmountMinor,
		CreatedAt:   s.now(),
	}

	log.ErrorContext(ctx, "settlement rejected",
		"reason", string(sf.reason),
		"ride_id", sf.rideID,
		"detail", sf.detail,
		"amount_minor", event.AmountMinor,
	)

	if err := s.repos.Failures.Create(ctx, failure); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("record settlement failure: %w", err)
	}

	s.publish(ctx, log, events.SettlementEvent{
		Kind:        events.KindDeadLetter,
		IntentID:    event.IntentID,
		PayerID:     event.PayerID,
		PendingKey:  event.PendingKey,
		RideID:      sf.rideID,
		AmountMinor: event.AmountMinor,
		Reason:      string(sf.reason),
		Detail:      sf.detail,
		OccurredAt:  failure.CreatedAt,
	})

	return nil, sf
}

func (s *SettlementService) afterCommit(ctx context.Context, log *slog.Logger, event *domain.PaymentEvent, result *SettlementResult) {
	txn := result.Transaction
	observability.SeatsSold.Add(float64(txn.Seats))

	if s.cache != nil {
		if err := s.cache.InvalidateRide(ctx, txn.RideID); err != nil {
			log.WarnContext(ctx, "failed to invalidate ride cache", "ride_id", txn.RideID, "error", err)
		}
	}

	s.publish(ctx, log, events.SettlementEvent{
		Kind:          events.KindSettled,
		IntentID:      event.IntentID,
		PayerID:       txn.PaidBy,
		PendingKey:    event.PendingKey,
		RideID:        txn.RideID,
		TransactionID: txn.ID,
		BookingID:     result.Booking.ID,
		Seats:         txn.Seats,
		AmountMinor:   event.AmountMinor,
		OccurredAt:    txn.CreatedAt,
	})

	log.InfoContext(ctx, "payment settled",
		"ride_id", txn.RideID,
		"seats", txn.Seats,
		"transaction_id", txn.ID,
		"booking_id", result.Booking.ID,
	)
}

// publish is best effort. The settlement is already durable.
func (s *SettlementService) publish(ctx context.Context, log *slog.Logger, event events.SettlementEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.EventsPublishFailures.WithLabelValues(string(event.Kind)).Inc()
		log.WarnContext(ctx, "failed to publish settlement event", "kind", string(event.Kind), "error", err)
	}
}

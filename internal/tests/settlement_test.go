package tests

import (
	"context"
	"errors"
	"testing"

	"ridepay/internal/domain"
	"ridepay/internal/events"
	"ridepay/internal/repository"
	"ridepay/internal/repository/memory"
	"ridepay/internal/service"
)

// ──────────────────────────────────────────────
// 1. SETTLEMENT SCENARIOS
// ──────────────────────────────────────────────

func TestSettle_BooksAllSeatsOfRide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 2)

	result, err := f.svc.Settle(ctx, succeeded("pi_1", "p1", "key-1", 2500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.OutcomeSettled {
		t.Fatalf("expected outcome %s, got %s", service.OutcomeSettled, result.Outcome)
	}

	if got := f.seats(t, "ride-1"); got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}

	txn := f.transaction(t, "pi_1")
	if txn == nil {
		t.Fatal("expected transaction")
	}
	if txn.Seats != 2 {
		t.Errorf("expected 2 seats, got %d", txn.Seats)
	}
	if txn.PaidBy != "p1" || txn.PaidTo != "d1" {
		t.Errorf("unexpected counterparties %s -> %s", txn.PaidBy, txn.PaidTo)
	}
	if txn.AmountPaid != 25 {
		t.Errorf("expected amount 25, got %v", txn.AmountPaid)
	}
	if txn.DriverName != "Driver d1" {
		t.Errorf("unexpected driver name %q", txn.DriverName)
	}
	if txn.Source != "MG Road" || txn.Destination != "Indiranagar" {
		t.Errorf("unexpected route %q -> %q", txn.Source, txn.Destination)
	}
	if txn.LatestCharge != "ch_pi_1" {
		t.Errorf("unexpected latest charge %q", txn.LatestCharge)
	}

	booking, err := f.repos.Bookings.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		t.Fatalf("expected booking: %v", err)
	}
	if booking.PassengerID != "p1" || booking.DriverID != "d1" || booking.Seats != 2 {
		t.Errorf("unexpected booking %+v", booking)
	}
	if booking.VerificationCode < 100000 || booking.VerificationCode > 999999 {
		t.Errorf("verification code %d out of range", booking.VerificationCode)
	}
	if booking.DriverPastID != "past-d1" {
		t.Errorf("expected driver history reference past-d1, got %q", booking.DriverPastID)
	}
	if booking.PassengerName != "Asha" || booking.DriverImageURL == "" {
		t.Errorf("expected display data to be copied, got %+v", booking)
	}

	past, err := f.repos.PastRides.GetByID(ctx, booking.PastRideID)
	if err != nil {
		t.Fatalf("expected passenger history entry: %v", err)
	}
	if past.Role != domain.RolePassenger || past.UserID != "p1" || past.RideID != "ride-1" {
		t.Errorf("unexpected history entry %+v", past)
	}
	if past.Rating != nil {
		t.Error("expected rating placeholder to be empty")
	}

	if f.pendingCount(t, "p1") != 0 {
		t.Error("expected pending payment to be consumed")
	}

	settled := f.publisher.Events(events.KindSettled)
	if len(settled) != 1 || settled[0].TransactionID != txn.ID {
		t.Errorf("expected one settled event for %s, got %+v", txn.ID, settled)
	}
	if f.cache.InvalidateCallCount != 1 {
		t.Errorf("expected ride cache invalidation, got %d", f.cache.InvalidateCallCount)
	}
}

func TestSettle_OversoldRideIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addUser(t, "p2", "Ravi")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 2)
	f.addPending(t, "p2", "key-2", "ride-1", 1)

	if _, err := f.svc.Settle(ctx, succeeded("pi_1", "p1", "key-1", 2500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Settle(ctx, succeeded("pi_2", "p2", "key-2", 1250))
	if !errors.Is(err, service.ErrOversold) {
		t.Fatalf("expected ErrOversold, got %v", err)
	}
	if !service.IsTerminal(err) {
		t.Error("expected oversold to be terminal")
	}

	if got := f.seats(t, "ride-1"); got != 0 {
		t.Errorf("expected seats to stay 0, got %d", got)
	}
	if f.transaction(t, "pi_2") != nil {
		t.Error("expected no transaction for oversold payment")
	}
	if f.pendingCount(t, "p2") != 1 {
		t.Error("expected rolled back pending payment to remain for reconciliation")
	}
	if bookings, _ := f.repos.Bookings.ListByPassenger(ctx, "p2"); len(bookings) != 0 {
		t.Errorf("expected no booking for oversold payment, got %d", len(bookings))
	}
	if history, _ := f.repos.PastRides.ListByUser(ctx, "p2"); len(history) != 0 {
		t.Errorf("expected no ride history for oversold payment, got %d", len(history))
	}
	if bookings, _ := f.repos.Bookings.ListByPassenger(ctx, "p1"); len(bookings) != 1 {
		t.Errorf("expected the first payer's booking to stand, got %d", len(bookings))
	}

	failure, err := f.repos.Failures.GetByIntentID(ctx, "pi_2")
	if err != nil || failure == nil {
		t.Fatalf("expected recorded failure, got %v, %v", failure, err)
	}
	if failure.Reason != domain.FailureOversold || failure.RideID != "ride-1" || failure.AmountMinor != 1250 {
		t.Errorf("unexpected failure %+v", failure)
	}

	dead := f.publisher.Events(events.KindDeadLetter)
	if len(dead) != 1 || dead[0].Reason != string(domain.FailureOversold) {
		t.Errorf("expected one oversold dead letter, got %+v", dead)
	}
}

func TestSettle_RedeliveryIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 3)
	f.addPending(t, "p1", "key-1", "ride-1", 2)

	event := succeeded("pi_1", "p1", "key-1", 2500)
	first, err := f.svc.Settle(ctx, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.svc.Settle(ctx, event)
	if err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
	if second.Outcome != service.OutcomeDuplicate {
		t.Errorf("expected outcome %s, got %s", service.OutcomeDuplicate, second.Outcome)
	}

	if got := f.seats(t, "ride-1"); got != 1 {
		t.Errorf("expected seats decremented once to 1, got %d", got)
	}
	if txn := f.transaction(t, "pi_1"); txn.ID != first.Transaction.ID {
		t.Errorf("expected original transaction %s, got %s", first.Transaction.ID, txn.ID)
	}
	if n := len(f.publisher.Events(events.KindSettled)); n != 1 {
		t.Errorf("expected one settled event, got %d", n)
	}
	if n := len(f.publisher.Events(events.KindDeadLetter)); n != 0 {
		t.Errorf("expected no dead letters, got %d", n)
	}
}

func TestSettle_UnknownPendingKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)

	_, err := f.svc.Settle(ctx, succeeded("pi_9", "p1", "missing", 1000))
	if !errors.Is(err, service.ErrPendingPaymentNotFound) {
		t.Fatalf("expected ErrPendingPaymentNotFound, got %v", err)
	}
	if !service.IsTerminal(err) {
		t.Error("expected missing pending payment to be terminal")
	}
	if got := f.seats(t, "ride-1"); got != 2 {
		t.Errorf("expected seats unchanged, got %d", got)
	}
	if f.transaction(t, "pi_9") != nil {
		t.Error("expected no transaction")
	}
}

func TestSettle_PendingKeyConsumedOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 4)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	if _, err := f.svc.Settle(ctx, succeeded("pi_a", "p1", "key-1", 1250)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Settle(ctx, succeeded("pi_b", "p1", "key-1", 1250))
	if !errors.Is(err, service.ErrPendingPaymentNotFound) {
		t.Fatalf("expected ErrPendingPaymentNotFound, got %v", err)
	}
	if got := f.seats(t, "ride-1"); got != 3 {
		t.Errorf("expected 3 seats, got %d", got)
	}
	if f.transaction(t, "pi_b") != nil {
		t.Error("expected no transaction for second intent")
	}
}

func TestSettle_IgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.svc.Settle(context.Background(), &domain.PaymentEvent{
		Type:     "payment_intent.payment_failed",
		IntentID: "pi_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.OutcomeIgnored {
		t.Errorf("expected outcome %s, got %s", service.OutcomeIgnored, result.Outcome)
	}
}

func TestSettle_RejectsEventWithoutIntent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Settle(context.Background(), succeeded("", "p1", "key-1", 100))
	if !errors.Is(err, service.ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. TERMINAL FAILURES
// ──────────────────────────────────────────────

func TestSettle_PayerNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addRide(t, "ride-1", "d1", 2)

	_, err := f.svc.Settle(ctx, succeeded("pi_1", "ghost", "key-1", 1000))
	if !errors.Is(err, service.ErrPayerNotFound) {
		t.Fatalf("expected ErrPayerNotFound, got %v", err)
	}

	failure, _ := f.repos.Failures.GetByIntentID(ctx, "pi_1")
	if failure == nil || failure.Reason != domain.FailurePayerNotFound {
		t.Errorf("expected payer_not_found failure, got %+v", failure)
	}
}

func TestSettle_RideNotFoundKeepsPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addPending(t, "p1", "key-1", "ride-gone", 1)

	_, err := f.svc.Settle(ctx, succeeded("pi_1", "p1", "key-1", 1000))
	if !errors.Is(err, service.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
	if f.pendingCount(t, "p1") != 1 {
		t.Error("expected pending take to be rolled back")
	}

	failure, _ := f.repos.Failures.GetByIntentID(ctx, "pi_1")
	if failure == nil || failure.Reason != domain.FailureRideNotFound || failure.RideID != "ride-gone" {
		t.Errorf("expected ride_not_found failure, got %+v", failure)
	}
}

func TestSettle_DriverNotFoundRollsBackSeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRideOnly(t, "ride-1", "missing-driver", 3)
	f.addPending(t, "p1", "key-1", "ride-1", 2)

	_, err := f.svc.Settle(ctx, succeeded("pi_1", "p1", "key-1", 2500))
	if !errors.Is(err, service.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
	if got := f.seats(t, "ride-1"); got != 3 {
		t.Errorf("expected seat decrement rolled back to 3, got %d", got)
	}
	if f.transaction(t, "pi_1") != nil {
		t.Error("expected no transaction")
	}
}

func TestSettle_RecordedFailureIsFinal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 1)
	f.addPending(t, "p1", "key-1", "ride-1", 2)

	event := succeeded("pi_1", "p1", "key-1", 2500)
	if _, err := f.svc.Settle(ctx, event); !errors.Is(err, service.ErrOversold) {
		t.Fatalf("expected ErrOversold, got %v", err)
	}

	result, err := f.svc.Settle(ctx, event)
	if err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
	if result.Outcome != service.OutcomeDuplicate {
		t.Errorf("expected outcome %s, got %s", service.OutcomeDuplicate, result.Outcome)
	}
	if n := len(f.publisher.Events(events.KindDeadLetter)); n != 1 {
		t.Errorf("expected one dead letter, got %d", n)
	}
}

// ──────────────────────────────────────────────
// 3. STORE FAILURES
// ──────────────────────────────────────────────

func TestSettle_StoreFailureRollsBackAndAllowsRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	faulty := &FaultyTxRunner{BookingCreateError: ErrMockConnReset}
	f := newFixtureWith(t, func(s *memory.Store) repository.TxRunner {
		faulty.Inner = s
		return faulty
	}, nil)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	event := succeeded("pi_1", "p1", "key-1", 1250)
	_, err := f.svc.Settle(ctx, event)
	if !errors.Is(err, ErrMockConnReset) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if service.IsTerminal(err) {
		t.Error("expected store failure to be retryable")
	}

	if got := f.seats(t, "ride-1"); got != 2 {
		t.Errorf("expected seats rolled back to 2, got %d", got)
	}
	if f.transaction(t, "pi_1") != nil {
		t.Error("expected transaction to be rolled back")
	}
	if f.pendingCount(t, "p1") != 1 {
		t.Error("expected pending payment to be restored")
	}
	if failure, _ := f.repos.Failures.GetByIntentID(ctx, "pi_1"); failure != nil {
		t.Error("expected no failure record for a retryable error")
	}

	// The gateway redelivers once the store recovers.
	faulty.BookingCreateError = nil
	result, err := f.svc.Settle(ctx, event)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if result.Outcome != service.OutcomeSettled {
		t.Errorf("expected outcome %s, got %s", service.OutcomeSettled, result.Outcome)
	}
	if got := f.seats(t, "ride-1"); got != 1 {
		t.Errorf("expected 1 seat left, got %d", got)
	}
}

func TestSettle_DecrementFailureIsRetryable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixtureWith(t, func(s *memory.Store) repository.TxRunner {
		return &FaultyTxRunner{Inner: s, DecrementError: ErrMockTimeout}
	}, nil)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	_, err := f.svc.Settle(ctx, succeeded("pi_1", "p1", "key-1", 1250))
	if !errors.Is(err, ErrMockTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if f.pendingCount(t, "p1") != 1 {
		t.Error("expected pending payment to be restored")
	}
}

func TestSettle_PublishFailureDoesNotFailSettlement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.publisher.PublishError = ErrMockConnReset
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	result, err := f.svc.Settle(context.Background(), succeeded("pi_1", "p1", "key-1", 1250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.OutcomeSettled {
		t.Errorf("expected outcome %s, got %s", service.OutcomeSettled, result.Outcome)
	}
}

// ──────────────────────────────────────────────
// 4. SETTLEMENT LOCK
// ──────────────────────────────────────────────

func TestSettle_LockHeldByAnotherWorker(t *testing.T) {
	t.Parallel()

	locks := NewMockLockStore()
	f := newFixtureWith(t, nil, locks)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	locks.Hold("pi_1")

	_, err := f.svc.Settle(context.Background(), succeeded("pi_1", "p1", "key-1", 1250))
	if !errors.Is(err, service.ErrSettlementInProgress) {
		t.Fatalf("expected ErrSettlementInProgress, got %v", err)
	}
	if service.IsTerminal(err) {
		t.Error("expected in-progress to be retryable")
	}
	if got := f.seats(t, "ride-1"); got != 2 {
		t.Errorf("expected seats unchanged, got %d", got)
	}
}

func TestSettle_ReleasesLock(t *testing.T) {
	t.Parallel()

	locks := NewMockLockStore()
	f := newFixtureWith(t, nil, locks)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	if _, err := f.svc.Settle(context.Background(), succeeded("pi_1", "p1", "key-1", 1250)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locks.IsLocked("pi_1") {
		t.Error("expected lock to be released")
	}
	if locks.AcquireCallCount != 1 || locks.ReleaseCallCount != 1 {
		t.Errorf("expected one acquire and one release, got %d/%d", locks.AcquireCallCount, locks.ReleaseCallCount)
	}
}

func TestSettle_LockStoreDownFallsBackToDatabase(t *testing.T) {
	t.Parallel()

	locks := NewMockLockStore()
	locks.AcquireError = ErrMockTimeout
	f := newFixtureWith(t, nil, locks)
	f.addUser(t, "p1", "Asha")
	f.addRide(t, "ride-1", "d1", 2)
	f.addPending(t, "p1", "key-1", "ride-1", 1)

	result, err := f.svc.Settle(context.Background(), succeeded("pi_1", "p1", "key-1", 1250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.OutcomeSettled {
		t.Errorf("expected outcome %s, got %s", service.OutcomeSettled, result.Outcome)
	}
	if locks.ReleaseCallCount != 0 {
		t.Error("expected no release for a lock never acquired")
	}
}

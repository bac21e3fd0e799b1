package memory

import (
	"context"
	"errors"
	"testing"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

var errAbort = errors.New("abort")

func TestWithinTx_RollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	outside := s.Repositories()

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Pending.Put(ctx, &domain.PendingPayment{Key: "k1", PayerID: "p1", RideID: "r1", Seats: 1}); err != nil {
			return err
		}
		// Lands while the transaction is still open.
		if err := outside.Failures.Create(ctx, &domain.SettlementFailure{IntentID: "pi_other", PayerID: "p2", Reason: domain.FailureOversold}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected errAbort, got %v", err)
	}

	if _, err := outside.Pending.Take(ctx, "p1", "k1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected pending write to be undone, got %v", err)
	}
	if _, err := outside.Failures.GetByIntentID(ctx, "pi_other"); err != nil {
		t.Errorf("expected failure recorded outside the transaction to survive, got %v", err)
	}
}

func TestWithinTx_RollbackRestoresSeatsAndTakenRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	repos := s.Repositories()
	_ = repos.Rides.Create(ctx, &domain.AvailableRide{ID: "r1", DriverID: "d1", AvailableSeats: 3})
	_ = repos.Pending.Put(ctx, &domain.PendingPayment{Key: "k1", PayerID: "p1", RideID: "r1", Seats: 2, PickUpAddress: "MG Road"})

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if _, err := tx.Pending.Take(ctx, "p1", "k1"); err != nil {
			return err
		}
		if err := tx.Rides.DecrementSeats(ctx, "r1", 2); err != nil {
			return err
		}
		if err := tx.Transactions.Create(ctx, &domain.Transaction{ID: "t1", IntentID: "pi_1", PaidBy: "p1"}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected errAbort, got %v", err)
	}

	ride, err := repos.Rides.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.AvailableSeats != 3 {
		t.Errorf("expected 3 seats after rollback, got %d", ride.AvailableSeats)
	}
	if _, err := repos.Transactions.GetByIntentID(ctx, "pi_1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected transaction to be undone, got %v", err)
	}
	p, err := repos.Pending.Take(ctx, "p1", "k1")
	if err != nil {
		t.Fatalf("expected taken pending row to be restored, got %v", err)
	}
	if p.PickUpAddress != "MG Road" || p.Seats != 2 {
		t.Errorf("unexpected restored row %+v", p)
	}
}

func TestWithinTx_SeatRollbackKeepsConcurrentDecrement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	outside := s.Repositories()
	_ = outside.Rides.Create(ctx, &domain.AvailableRide{ID: "r1", DriverID: "d1", AvailableSeats: 4})

	_ = s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := tx.Rides.DecrementSeats(ctx, "r1", 1); err != nil {
			return err
		}
		if err := outside.Rides.DecrementSeats(ctx, "r1", 2); err != nil {
			return err
		}
		return errAbort
	})

	ride, _ := outside.Rides.GetByID(ctx, "r1")
	if ride.AvailableSeats != 2 {
		t.Errorf("expected the outside decrement to stand, got %d seats", ride.AvailableSeats)
	}
}

func TestWithinTx_CommitKeepsWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return tx.Users.Create(ctx, &domain.User{ID: "p1", Name: "Asha"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Repositories().Users.GetByID(ctx, "p1"); err != nil {
		t.Errorf("expected committed user, got %v", err)
	}
}

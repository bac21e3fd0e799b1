package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridepay/internal/repository"
)

// PendingSweeper abandons pending payments that were never confirmed.
// Nothing is released because settlement is the only step that holds seats.
type PendingSweeper struct {
	pending repository.PendingPaymentRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewPendingSweeper creates a new PendingSweeper.
func NewPendingSweeper(pending repository.PendingPaymentRepository, logger *slog.Logger) *PendingSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingSweeper{pending: pending, logger: logger, now: time.Now}
}

// Sweep deletes pending payments older than maxAge and returns the count.
func (s *PendingSweeper) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("max age must be positive, got %s", maxAge)
	}

	cutoff := s.now().Add(-maxAge)
	n, err := s.pending.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep pending payments: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "abandoned pending payments", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *PendingSweeper) Run(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, maxAge); err != nil {
				s.logger.ErrorContext(ctx, "pending sweep failed", "error", err)
			}
		}
	}
}

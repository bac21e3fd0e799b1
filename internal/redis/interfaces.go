package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for per-intent settlement locks.
type LockStoreInterface interface {
	AcquireSettlementLock(ctx context.Context, intentID string, ttl time.Duration) (bool, error)
	ReleaseSettlementLock(ctx context.Context, intentID string) error
}

// RideCacheInterface defines the interface for the ride availability cache.
type RideCacheInterface interface {
	GetRide(ctx context.Context, rideID string) (*CachedRide, error)
	SetRide(ctx context.Context, ride *CachedRide) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ RideCacheInterface = (*CacheStore)(nil)
)

package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries our token, so a
// lock that expired and was taken by another worker is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string // intent ID -> token this process holds
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, tokens: make(map[string]string)}
}

func settlementLockKey(intentID string) string {
	return fmt.Sprintf("lock:settlement:%s", intentID)
}

// AcquireSettlementLock marks a payment intent as being settled by this
// worker. Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireSettlementLock(ctx context.Context, intentID string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, settlementLockKey(intentID), token, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		s.mu.Lock()
		s.tokens[intentID] = token
		s.mu.Unlock()
	}

	return ok, nil
}

// ReleaseSettlementLock releases the lock for the given intent if this
// process still owns it. Releasing a lock it never acquired is a no-op.
func (s *LockStore) ReleaseSettlementLock(ctx context.Context, intentID string) error {
	s.mu.Lock()
	token, ok := s.tokens[intentID]
	delete(s.tokens, intentID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	return releaseScript.Run(ctx, s.client, []string{settlementLockKey(intentID)}, token).Err()
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ridepay/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryResponseStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
}

func newMemoryResponseStore() *memoryResponseStore {
	return &memoryResponseStore{data: make(map[string][]byte)}
}

func (s *memoryResponseStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data[key], nil
}

func (s *memoryResponseStore) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func newCheckoutLikeRouter(store ResponseStore, calls *int32, status int) *gin.Engine {
	r := gin.New()
	r.Use(IdempotencyMiddleware(store, logging.Discard()))
	r.POST("/checkout", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		if status == http.StatusSeeOther {
			c.Header("X-Pending-Key", "key-1")
			c.Redirect(http.StatusSeeOther, "https://checkout.test/"+strconv.Itoa(int(n)))
			return
		}
		c.JSON(status, gin.H{"call": n})
	})
	return r
}

func send(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysRedirect(t *testing.T) {
	t.Parallel()

	var calls int32
	r := newCheckoutLikeRouter(newMemoryResponseStore(), &calls, http.StatusSeeOther)

	first := send(r, "abc")
	second := send(r, "abc")

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusSeeOther {
		t.Errorf("expected replayed 303, got %d", second.Code)
	}
	if first.Header().Get("Location") != second.Header().Get("Location") {
		t.Errorf("expected same location, got %q and %q", first.Header().Get("Location"), second.Header().Get("Location"))
	}
	if second.Header().Get("X-Pending-Key") != "key-1" {
		t.Error("expected pending key header to be replayed")
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker")
	}
}

func TestIdempotency_DifferentKeysRunSeparately(t *testing.T) {
	t.Parallel()

	var calls int32
	r := newCheckoutLikeRouter(newMemoryResponseStore(), &calls, http.StatusOK)

	send(r, "a")
	send(r, "b")
	send(r, "")

	if calls != 3 {
		t.Errorf("expected 3 handler runs, got %d", calls)
	}
}

func TestIdempotency_ServerErrorsAreNotPinned(t *testing.T) {
	t.Parallel()

	var calls int32
	r := newCheckoutLikeRouter(newMemoryResponseStore(), &calls, http.StatusInternalServerError)

	send(r, "abc")
	send(r, "abc")

	if calls != 2 {
		t.Errorf("expected retry to reach the handler, got %d runs", calls)
	}
}

func TestIdempotency_StoreErrorFallsThrough(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	store.loadErr = errors.New("redis down")

	var calls int32
	r := newCheckoutLikeRouter(store, &calls, http.StatusOK)

	if w := send(r, "abc"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if calls != 1 {
		t.Errorf("expected handler to run, got %d", calls)
	}
}

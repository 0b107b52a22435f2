package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// fakeCounterStore is an in-memory port.RateLimitStore with manual expiry
// control and per-operation error injection.
type fakeCounterStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration

	countErr  error
	incrErr   error
	expireErr error
	ttlErr    error
	resetErr  error

	expireCalls int
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeCounterStore) Count(_ context.Context, key string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[key], nil
}

func (f *fakeCounterStore) Increment(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounterStore) SetExpiry(_ context.Context, key string, ttl time.Duration) error {
	if f.expireErr != nil {
		return f.expireErr
	}
	f.expireCalls++
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCounterStore) TimeToLive(_ context.Context, key string) (time.Duration, bool, error) {
	if f.ttlErr != nil {
		return 0, false, f.ttlErr
	}
	ttl, ok := f.ttls[key]
	return ttl, ok, nil
}

func (f *fakeCounterStore) Reset(_ context.Context, key string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	delete(f.counts, key)
	delete(f.ttls, key)
	return nil
}

// expire simulates the store dropping the key after its TTL elapsed.
func (f *fakeCounterStore) expire(key string) {
	delete(f.counts, key)
	delete(f.ttls, key)
}

func TestRateLimiterQuotaMonotonicity(t *testing.T) {
	store := newFakeCounterStore()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	ctx := context.Background()
	const max = 5

	for n := 1; n <= max; n++ {
		result, err := limiter.Limit(ctx, "chat:user-1", max, time.Hour)
		if err != nil {
			t.Fatalf("call %d returned error: %v", n, err)
		}
		if !result.Allowed {
			t.Fatalf("call %d expected allowed", n)
		}
		if result.Remaining != max-n {
			t.Fatalf("call %d expected remaining %d, got %d", n, max-n, result.Remaining)
		}
	}

	result, err := limiter.Limit(ctx, "chat:user-1", max, time.Hour)
	if err != nil {
		t.Fatalf("over-quota call returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected call %d to be denied", max+1)
	}
	if result.Remaining != 0 {
		t.Fatalf("expected remaining 0 when denied, got %d", result.Remaining)
	}
	if !result.ResetTime.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected reset time %v, got %v", now.Add(time.Hour), result.ResetTime)
	}
}

func TestRateLimiterWindowAnchorsAtFirstUse(t *testing.T) {
	store := newFakeCounterStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Limit(ctx, "chat:user-1", 10, time.Hour); err != nil {
			t.Fatalf("Limit returned error: %v", err)
		}
	}

	// Only the first call of the window sets the expiry.
	if store.expireCalls != 1 {
		t.Fatalf("expected a single expiry write, got %d", store.expireCalls)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	store := newFakeCounterStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	ctx := context.Background()
	const max = 3

	for i := 0; i <= max; i++ {
		if _, err := limiter.Limit(ctx, "chat:user-1", max, time.Minute); err != nil {
			t.Fatalf("Limit returned error: %v", err)
		}
	}

	store.expire("chat:user-1")

	result, err := limiter.Limit(ctx, "chat:user-1", max, time.Minute)
	if err != nil {
		t.Fatalf("Limit after expiry returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected fresh window to allow")
	}
	if result.Remaining != max-1 {
		t.Fatalf("expected remaining %d in fresh window, got %d", max-1, result.Remaining)
	}
}

func TestRateLimiterResetRestoresQuota(t *testing.T) {
	store := newFakeCounterStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	ctx := context.Background()
	const max = 2

	for i := 0; i < max; i++ {
		if _, err := limiter.Limit(ctx, "chat:user-1", max, time.Minute); err != nil {
			t.Fatalf("Limit returned error: %v", err)
		}
	}

	if err := limiter.Reset(ctx, "chat:user-1"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	result, err := limiter.Limit(ctx, "chat:user-1", max, time.Minute)
	if err != nil {
		t.Fatalf("Limit after reset returned error: %v", err)
	}
	if !result.Allowed || result.Remaining != max-1 {
		t.Fatalf("expected full quota after reset, got allowed=%v remaining=%d", result.Allowed, result.Remaining)
	}
}

func TestRateLimiterDeniesWithoutExpiryInformation(t *testing.T) {
	store := newFakeCounterStore()
	store.counts["chat:user-1"] = 5
	// No TTL recorded: the key exists but carries no expiry.

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	result, err := limiter.Limit(context.Background(), "chat:user-1", 5, time.Hour)
	if err != nil {
		t.Fatalf("Limit returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected denial at quota even without expiry info")
	}
	if !result.ResetTime.Equal(now) {
		t.Fatalf("expected immediate reset time for unknown window, got %v", result.ResetTime)
	}
}

func TestRateLimiterRepairsMissingExpiry(t *testing.T) {
	store := newFakeCounterStore()
	// A previous caller crashed between INCR and EXPIRE.
	store.counts["chat:user-1"] = 1

	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	result, err := limiter.Limit(context.Background(), "chat:user-1", 5, time.Hour)
	if err != nil {
		t.Fatalf("Limit returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowance below quota")
	}
	if ttl, ok := store.ttls["chat:user-1"]; !ok || ttl != time.Hour {
		t.Fatalf("expected repaired expiry of 1h, got %v (present=%v)", ttl, ok)
	}
}

func TestRateLimiterPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")

	store := newFakeCounterStore()
	store.countErr = storeErr

	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	if _, err := limiter.Limit(context.Background(), "chat:user-1", 5, time.Hour); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}

	store.countErr = nil
	store.incrErr = storeErr
	if _, err := limiter.Limit(context.Background(), "chat:user-1", 5, time.Hour); !errors.Is(err, storeErr) {
		t.Fatalf("expected increment error to propagate, got %v", err)
	}

	store.incrErr = nil
	store.resetErr = storeErr
	if err := limiter.Reset(context.Background(), "chat:user-1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected reset error to propagate, got %v", err)
	}
}

func TestRateLimiterValidatesInput(t *testing.T) {
	limiter := NewRateLimiter(newFakeCounterStore(), zaptest.NewLogger(t))

	if _, err := limiter.Limit(context.Background(), "  ", 5, time.Hour); !errors.Is(err, ErrRateLimitKeyRequired) {
		t.Fatalf("expected key validation error, got %v", err)
	}
	if _, err := limiter.Limit(context.Background(), "chat:user-1", 0, time.Hour); !errors.Is(err, ErrRateLimitQuotaInvalid) {
		t.Fatalf("expected quota validation error, got %v", err)
	}
	if _, err := limiter.Limit(context.Background(), "chat:user-1", 5, 0); !errors.Is(err, ErrRateLimitQuotaInvalid) {
		t.Fatalf("expected window validation error, got %v", err)
	}
	if err := limiter.Reset(context.Background(), ""); !errors.Is(err, ErrRateLimitKeyRequired) {
		t.Fatalf("expected key validation error on reset, got %v", err)
	}
}

package port

import (
	"context"
	"time"
)

// RateLimitStore defines the key-value operations the fixed-window limiter
// relies on. Increment must be atomic at the store level; the surrounding
// check-then-increment sequence is not transactional (see usecase.RateLimiter).
type RateLimitStore interface {
	// Count returns the current counter value for key, 0 when absent.
	Count(ctx context.Context, key string) (int64, error)
	// Increment atomically increments the counter, creating it at 1 when
	// absent, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)
	// SetExpiry attaches a time-to-live to the key.
	SetExpiry(ctx context.Context, key string, ttl time.Duration) error
	// TimeToLive reports the remaining window for the key. hasExpiry is false
	// when the key is absent or carries no expiry.
	TimeToLive(ctx context.Context, key string) (ttl time.Duration, hasExpiry bool, err error)
	// Reset deletes the key outright, restoring the full quota immediately.
	Reset(ctx context.Context, key string) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
)

var (
	// ErrRateLimitKeyRequired indicates an empty subject key.
	ErrRateLimitKeyRequired = errors.New("rate limit key is required")
	// ErrRateLimitQuotaInvalid indicates a non-positive quota or window.
	ErrRateLimitQuotaInvalid = errors.New("rate limit quota and window must be positive")
)

// RateLimiter bounds how often a subject may perform a guarded action within a
// fixed window. The window is anchored to first use, not sliding: bursts at
// the window seam can admit up to 2*max requests across it. The
// check-then-increment sequence is not transactional either; concurrent
// callers racing on the same key can each admit one extra request per race
// window. Both are accepted properties of this design, relying only on the
// store's increment being atomic.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter constructs the limiter service.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Limit checks and consumes one unit of quota for key. A denied check is
// returned as Allowed=false, never as an error; errors mean the store itself
// failed and must be handled loudly by the caller.
func (l *RateLimiter) Limit(ctx context.Context, key string, max int, window time.Duration) (*domain.RateLimitResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrRateLimitKeyRequired
	}
	if max <= 0 || window <= 0 {
		return nil, ErrRateLimitQuotaInvalid
	}

	now := l.now()

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read rate limit counter: %w", err)
	}

	if count >= int64(max) {
		ttl, hasExpiry, err := l.store.TimeToLive(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read rate limit ttl: %w", err)
		}

		// A counter without an expiry has an unknown remaining window; deny
		// with an immediate reset time rather than guessing.
		reset := now
		if hasExpiry {
			reset = now.Add(ttl)
		}

		return &domain.RateLimitResult{
			Allowed:   false,
			Limit:     max,
			Remaining: 0,
			ResetTime: reset,
		}, nil
	}

	total, err := l.store.Increment(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("increment rate limit counter: %w", err)
	}

	if total == 1 {
		if err := l.store.SetExpiry(ctx, key, window); err != nil {
			return nil, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	ttl, hasExpiry, err := l.store.TimeToLive(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read rate limit ttl: %w", err)
	}
	if !hasExpiry {
		// The key exists but lost its expiry, e.g. a crash between the
		// increment and the expire of a previous caller. Repair it so the
		// window cannot stay open forever.
		if err := l.store.SetExpiry(ctx, key, window); err != nil {
			return nil, fmt.Errorf("repair rate limit window: %w", err)
		}
		ttl = window
	}

	remaining := max - int(total)
	if remaining < 0 {
		remaining = 0
	}

	l.logger.Debug("rate limit consumed",
		zap.String("key", key),
		zap.Int64("count", total),
		zap.Int("remaining", remaining),
		zap.Duration("window_remaining", ttl),
	)

	return &domain.RateLimitResult{
		Allowed:   true,
		Limit:     max,
		Remaining: remaining,
		ResetTime: now.Add(ttl),
	}, nil
}

// Reset deletes the subject's counter, immediately restoring the full quota.
func (l *RateLimiter) Reset(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrRateLimitKeyRequired
	}

	if err := l.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("reset rate limit counter: %w", err)
	}

	return nil
}

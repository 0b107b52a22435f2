package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
)

const defaultRateLimitPrefix = "wedding:rate-limit"

// RateLimitRepository implements the fixed-window counter operations backed by
// Redis. Counters share their lifecycle with the Redis key: the store deletes
// the key when its TTL elapses and a fresh window starts at 1 on the next
// increment.
type RateLimitRepository struct {
	client *red.Client
	prefix string
}

// NewRateLimitRepository wires a Redis client into a rate-limit counter store.
func NewRateLimitRepository(client *red.Client, keyPrefix string) *RateLimitRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}

	return &RateLimitRepository{client: client, prefix: prefix}
}

// Count returns the current window counter for key, 0 when absent.
func (r *RateLimitRepository) Count(ctx context.Context, key string) (int64, error) {
	storageKey, err := r.key(key)
	if err != nil {
		return 0, err
	}

	value, err := r.client.Get(ctx, storageKey).Int64()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get counter: %w", err)
	}

	return value, nil
}

// Increment atomically bumps the counter, creating it at 1 when absent.
func (r *RateLimitRepository) Increment(ctx context.Context, key string) (int64, error) {
	storageKey, err := r.key(key)
	if err != nil {
		return 0, err
	}

	value, err := r.client.Incr(ctx, storageKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr counter: %w", err)
	}

	return value, nil
}

// SetExpiry attaches the window TTL to the counter key.
func (r *RateLimitRepository) SetExpiry(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	storageKey, err := r.key(key)
	if err != nil {
		return err
	}

	if err := r.client.Expire(ctx, storageKey, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire counter: %w", err)
	}

	return nil
}

// TimeToLive reports the remaining window. hasExpiry is false both for absent
// keys (Redis TTL -2) and for keys without an expiry (Redis TTL -1).
func (r *RateLimitRepository) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	storageKey, err := r.key(key)
	if err != nil {
		return 0, false, err
	}

	ttl, err := r.client.TTL(ctx, storageKey).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis ttl counter: %w", err)
	}

	if ttl < 0 {
		return 0, false, nil
	}

	return ttl, true, nil
}

// Reset deletes the counter key, immediately restoring the full quota.
func (r *RateLimitRepository) Reset(ctx context.Context, key string) error {
	storageKey, err := r.key(key)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, storageKey).Err(); err != nil {
		return fmt.Errorf("redis del counter: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) key(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("rate limit key must not be empty")
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed), nil
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)

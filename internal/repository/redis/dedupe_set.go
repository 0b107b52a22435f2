package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	red "github.com/redis/go-redis/v9"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
)

const defaultDedupePrefix = "wedding:guest-import"

// DedupeSetRepository tracks processed import keys in a Redis set. The set key
// embeds a hash of the target database DSN so imports against different
// environments never see each other's processed members.
type DedupeSetRepository struct {
	client *red.Client
	key    string
}

// NewDedupeSetRepository wires a Redis client into a dedupe set scoped to the
// given target DSN.
func NewDedupeSetRepository(client *red.Client, keyPrefix, targetDSN string) *DedupeSetRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultDedupePrefix
	}

	digest := sha256.Sum256([]byte(targetDSN))

	return &DedupeSetRepository{
		client: client,
		key:    fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(digest[:])[:12]),
	}
}

// Key exposes the fully namespaced set key, mainly for logging and tests.
func (r *DedupeSetRepository) Key() string {
	return r.key
}

// Seen reports whether the member was already processed.
func (r *DedupeSetRepository) Seen(ctx context.Context, member string) (bool, error) {
	trimmed := strings.TrimSpace(member)
	if trimmed == "" {
		return false, errors.New("dedupe member must not be empty")
	}

	present, err := r.client.SIsMember(ctx, r.key, trimmed).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}

	return present, nil
}

// MarkSeen records the member. added is false when the member was already in
// the set; SADD itself is atomic, so two concurrent runs racing on the same
// member observe exactly one added=true.
func (r *DedupeSetRepository) MarkSeen(ctx context.Context, member string) (bool, error) {
	trimmed := strings.TrimSpace(member)
	if trimmed == "" {
		return false, errors.New("dedupe member must not be empty")
	}

	added, err := r.client.SAdd(ctx, r.key, trimmed).Result()
	if err != nil {
		return false, fmt.Errorf("redis sadd: %w", err)
	}

	return added == 1, nil
}

// Clear deletes the whole set, allowing a full re-import.
func (r *DedupeSetRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del dedupe set: %w", err)
	}
	return nil
}

var _ port.DedupeStore = (*DedupeSetRepository)(nil)

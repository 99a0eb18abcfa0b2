package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyKeyPrefix namespaces processed event ids in Redis
const DefaultIdempotencyKeyPrefix = "installments:processed:"

// RedisIdempotencyStore implements IdempotencyStore using Redis so that every
// instance of the service agrees on which events were already handled
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on a shared client.
// The store does not own the client; Close is a no-op.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records key with a TTL using SET NX.
// Returns true if the key was newly marked.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s as processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed checks if key has already been processed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

// Close implements IdempotencyStore
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

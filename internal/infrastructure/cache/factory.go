package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the coordination primitives built by the factory
type Backends struct {
	Idempotency shared.IdempotencyStore
	Locker      contract.ContractLocker
	Settings    setting.Cache
	client      *redis.Client
}

// Distributed reports whether the backends are shared through Redis
func (b *Backends) Distributed() bool {
	return b.client != nil
}

// RateLimiter returns a limiter allowing limit requests per window and client,
// shared through Redis when available
func (b *Backends) RateLimiter(limit int, window time.Duration, clock shared.Clock) RateLimiter {
	if b.client != nil {
		return NewRedisRateLimiter(b.client, limit, window)
	}
	return NewInMemoryRateLimiter(limit, window, clock)
}

// Ping checks the Redis connection. In-memory backends are always ready.
func (b *Backends) Ping(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Ping(ctx).Err()
}

// Close releases the idempotency store and the Redis client
func (b *Backends) Close() error {
	var firstErr error
	if b.Idempotency != nil {
		firstErr = b.Idempotency.Close()
	}
	if b.client != nil {
		if err := b.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory builds idempotency stores, contract lockers and the settings cache from configuration
type Factory struct {
	redisConfig           config.RedisConfig
	lockConfig            config.LockConfig
	clock                 shared.Clock
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithClock sets the clock for in-memory stores
func WithClock(clock shared.Clock) FactoryOption {
	return func(f *Factory) {
		f.clock = clock
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory backends
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(redisCfg config.RedisConfig, lockCfg config.LockConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           redisCfg,
		lockConfig:            lockCfg,
		clock:                 shared.SystemClock{},
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// InMemory builds process-local backends.
// They do not coordinate across instances: replicas may send a notification
// twice or interleave a regeneration with a payment.
func (f *Factory) InMemory() *Backends {
	return &Backends{
		Idempotency: NewInMemoryIdempotencyStore(f.clock),
		Locker:      NewInMemoryContractLocker(),
		Settings:    NewInMemorySettingsCache(DefaultSettingsTTL, f.clock),
	}
}

// Create builds Redis backends when Redis is reachable, otherwise falls back
// to in-memory backends if allowed
func (f *Factory) Create() (*Backends, error) {
	if !f.redisConfig.Enabled() {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis is required but redis.host is empty")
		}
		f.logger.Info("redis not configured, using in-memory locks, idempotency store and settings cache")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory locks and idempotency store. "+
			"Contract locks will not be shared between instances.",
			zap.Error(err),
		)
		return f.InMemory(), nil
	}

	f.logger.Info("using Redis locks, idempotency store and settings cache", zap.String("addr", f.redisConfig.Addr()))
	return &Backends{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisContractLocker(client, f.lockConfig.TTL, f.lockConfig.RetryInterval, f.logger),
		Settings:    NewRedisSettingsCache(client, DefaultSettingsTTL, f.logger),
		client:      client,
	}, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultSettingsKey is where the effective settings document lives in Redis
	DefaultSettingsKey = "installments:settings"

	// DefaultSettingsTTL bounds how stale a cached settings document may get
	DefaultSettingsTTL = 5 * time.Minute
)

// RedisSettingsCache stores the effective settings as one JSON document so
// every instance sees an update as soon as the writer invalidates it
type RedisSettingsCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSettingsCache creates a cache on a shared client
func NewRedisSettingsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSettingsCache{
		client: client,
		key:    DefaultSettingsKey,
		ttl:    ttl,
		logger: logger,
	}
}

// Get reads the cached settings
func (c *RedisSettingsCache) Get(ctx context.Context) (setting.Settings, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get settings from cache: %w", err)
	}

	var s setting.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("dropping corrupted settings cache entry", zap.Error(err))
		_ = c.client.Del(ctx, c.key)
		return nil, false, nil
	}
	return s, true, nil
}

// Set stores the settings until the TTL runs out
func (c *RedisSettingsCache) Set(ctx context.Context, s setting.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache settings: %w", err)
	}
	return nil
}

// Invalidate drops the cached settings
func (c *RedisSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings: %w", err)
	}
	return nil
}

// InMemorySettingsCache keeps the settings in process for a single instance
type InMemorySettingsCache struct {
	mu        sync.RWMutex
	value     setting.Settings
	expiresAt time.Time
	ttl       time.Duration
	clock     shared.Clock
}

// NewInMemorySettingsCache creates an in-process settings cache.
// A nil clock means the system clock.
func NewInMemorySettingsCache(ttl time.Duration, clock shared.Clock) *InMemorySettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InMemorySettingsCache{ttl: ttl, clock: clock}
}

// Get returns a copy of the cached settings while they are fresh
func (c *InMemorySettingsCache) Get(_ context.Context) (setting.Settings, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil || !c.clock.Now().Before(c.expiresAt) {
		return nil, false, nil
	}
	return copySettings(c.value), true, nil
}

// Set stores a copy of s
func (c *InMemorySettingsCache) Set(_ context.Context, s setting.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = copySettings(s)
	c.expiresAt = c.clock.Now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached settings
func (c *InMemorySettingsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = nil
	return nil
}

func copySettings(s setting.Settings) setting.Settings {
	out := make(setting.Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

var (
	_ setting.Cache = (*RedisSettingsCache)(nil)
	_ setting.Cache = (*InMemorySettingsCache)(nil)
)

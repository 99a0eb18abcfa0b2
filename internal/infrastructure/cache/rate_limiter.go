package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultRateLimitKeyPrefix namespaces rate limit windows in Redis
const DefaultRateLimitKeyPrefix = "installments:ratelimit:"

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	// Allow consumes one request and returns whether it fits and how many remain
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	// Limit returns the requests allowed per window
	Limit() int
}

// InMemoryRateLimiter is a fixed window limiter keyed by client
type InMemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	limit     int
	window    time.Duration
	clock     shared.Clock
	lastSweep time.Time
}

type rateWindow struct {
	used    int
	startAt time.Time
}

// NewInMemoryRateLimiter allows limit requests per window and key. A nil clock means the system clock.
func NewInMemoryRateLimiter(limit int, window time.Duration, clock shared.Clock) *InMemoryRateLimiter {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InMemoryRateLimiter{
		windows:   make(map[string]*rateWindow),
		limit:     limit,
		window:    window,
		clock:     clock,
		lastSweep: clock.Now(),
	}
}

// Allow consumes one request for key and reports what is left in the window
func (l *InMemoryRateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.window {
		w = &rateWindow{startAt: now}
		l.windows[key] = w
	}
	if w.used >= l.limit {
		return false, 0, nil
	}
	w.used++
	return true, l.limit - w.used, nil
}

// Limit returns the requests allowed per window
func (l *InMemoryRateLimiter) Limit() int {
	return l.limit
}

// sweep drops windows that ended long ago; the caller holds the lock
func (l *InMemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < 2*l.window {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.startAt) >= l.window {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// RedisRateLimiter shares fixed windows between instances with INCR and PEXPIRE
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

// NewRedisRateLimiter creates a limiter on a shared client
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: DefaultRateLimitKeyPrefix,
	}
}

// Allow consumes one request for key. The window starts with the first request.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := l.keyPrefix + key

	used, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, l.limit, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if used == 1 {
		if err := l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return true, l.limit - 1, fmt.Errorf("rate limit expiry %s: %w", key, err)
		}
	}

	if int(used) > l.limit {
		return false, 0, nil
	}
	return true, l.limit - int(used), nil
}

// Limit returns the requests allowed per window
func (l *RedisRateLimiter) Limit() int {
	return l.limit
}

var (
	_ RateLimiter = (*InMemoryRateLimiter)(nil)
	_ RateLimiter = (*RedisRateLimiter)(nil)
)

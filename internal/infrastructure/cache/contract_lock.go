package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockKeyPrefix        = "installments:lock:contract:"
	defaultLockTTL       = 30 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// releaseScript deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisContractLocker implements contract.ContractLocker with SET NX PX.
// The TTL bounds how long a crashed holder can block a contract.
type RedisContractLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	logger        *zap.Logger
}

// NewRedisContractLocker creates a locker on a shared client
func NewRedisContractLocker(client *redis.Client, ttl, retryInterval time.Duration, logger *zap.Logger) *RedisContractLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisContractLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
		logger:        logger,
	}
}

// Lock retries SET NX until it succeeds or ctx is done
func (l *RedisContractLocker) Lock(ctx context.Context, contractID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + contractID.String()
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire lock for contract %s: %w", contractID, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, contract.ErrContractBusy
		case <-ticker.C:
		}
	}
}

func (l *RedisContractLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("failed to release contract lock", zap.String("key", key), zap.Error(err))
	}
}

// InMemoryContractLocker implements contract.ContractLocker within one process
type InMemoryContractLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*lockSlot
}

type lockSlot struct {
	ch      chan struct{}
	waiters int
}

// NewInMemoryContractLocker creates an empty locker
func NewInMemoryContractLocker() *InMemoryContractLocker {
	return &InMemoryContractLocker{slots: make(map[uuid.UUID]*lockSlot)}
}

// Lock waits for the contract's slot or until ctx is done
func (l *InMemoryContractLocker) Lock(ctx context.Context, contractID uuid.UUID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[contractID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[contractID] = slot
	}
	slot.waiters++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.leave(contractID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.leave(contractID, slot)
		return nil, contract.ErrContractBusy
	}
}

// leave drops the slot once nobody holds or waits for it
func (l *InMemoryContractLocker) leave(contractID uuid.UUID, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 {
		delete(l.slots, contractID)
	}
}

// Len returns the number of contracts currently held or awaited
func (l *InMemoryContractLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

var (
	_ contract.ContractLocker = (*RedisContractLocker)(nil)
	_ contract.ContractLocker = (*InMemoryContractLocker)(nil)
)

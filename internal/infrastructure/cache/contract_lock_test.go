package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryContractLocker_SerializesSameContract(t *testing.T) {
	locker := NewInMemoryContractLocker()
	id := uuid.New()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), id)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, locker.Len(), "slots are dropped once released")
}

func TestInMemoryContractLocker_DifferentContractsDoNotBlock(t *testing.T) {
	locker := NewInMemoryContractLocker()

	unlockA, err := locker.Lock(context.Background(), uuid.New())
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(ctx, uuid.New())
	require.NoError(t, err)
	unlockB()
}

func TestInMemoryContractLocker_ContextCancelled(t *testing.T) {
	locker := NewInMemoryContractLocker()
	id := uuid.New()

	unlock, err := locker.Lock(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, id)
	assert.True(t, errors.Is(err, contract.ErrContractBusy))

	unlock()
	unlock() // double release is harmless
	assert.Equal(t, 0, locker.Len())

	again, err := locker.Lock(context.Background(), id)
	require.NoError(t, err)
	again()
}

func TestFactory_FallsBackWithoutRedis(t *testing.T) {
	t.Run("redis not configured", func(t *testing.T) {
		f := NewFactory(config.RedisConfig{}, config.LockConfig{})
		b, err := f.Create()
		require.NoError(t, err)
		defer b.Close()

		assert.False(t, b.Distributed())
		assert.IsType(t, &InMemoryIdempotencyStore{}, b.Idempotency)
		assert.IsType(t, &InMemoryContractLocker{}, b.Locker)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		f := NewFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, config.LockConfig{})
		b, err := f.Create()
		require.NoError(t, err)
		defer b.Close()
		assert.False(t, b.Distributed())
	})

	t.Run("fallback disabled", func(t *testing.T) {
		f := NewFactory(config.RedisConfig{}, config.LockConfig{}, WithInMemoryFallback(false))
		_, err := f.Create()
		require.Error(t, err)
	})
}

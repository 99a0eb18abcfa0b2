package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeEpoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := shared.NewFixedClock(storeEpoch)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new key as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "event-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("returns false for already processed key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "event-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "event-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("allows reprocessing after expiration", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "event-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		clock.Advance(time.Minute)

		isNew, err = store.MarkProcessed(ctx, "event-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew, "expired key should be reprocessable")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	clock := shared.NewFixedClock(storeEpoch)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Hour)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(2 * time.Hour)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_SweepsExpiredClaims(t *testing.T) {
	clock := shared.NewFixedClock(storeEpoch)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()
	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Len())

	clock.Advance(2 * time.Minute)
	_, _ = store.MarkProcessed(ctx, "next", time.Hour)
	assert.Equal(t, 3, store.Len(), "no sweep before the interval elapses")

	clock.Advance(idempotencySweepEvery)
	_, _ = store.MarkProcessed(ctx, "later", time.Hour)
	assert.Equal(t, 3, store.Len())
	processed, _ := store.IsProcessed(ctx, "short")
	assert.False(t, processed)
	processed, _ = store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(nil)
	defer store.Close()

	ctx := context.Background()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("event-%d", i%5)
			if ok, _ := store.MarkProcessed(ctx, key, time.Hour); ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(5), wins.Load(), "each key is claimed exactly once")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(nil)
	_, _ = store.MarkProcessed(context.Background(), "event-1", time.Hour)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	assert.Zero(t, store.Len())
}

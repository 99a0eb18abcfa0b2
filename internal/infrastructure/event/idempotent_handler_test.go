package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_HandlesEachEventOnce(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(shared.NewFixedClock(busNow))
	defer store.Close()

	inner := newTestHandler(contract.EventTypeInstallmentPaid)
	h := NewIdempotentHandler(inner, store, time.Hour, nil)

	ev := newTestEvent(contract.EventTypeInstallmentPaid)
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), newTestEvent(contract.EventTypeInstallmentPaid)))

	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{contract.EventTypeInstallmentPaid}, h.EventTypes())
	assert.Same(t, inner, h.Unwrap())
}

func TestIdempotentHandler_KeysByTypeAndID(t *testing.T) {
	store := new(MockIdempotencyStore)
	ev := newTestEvent(contract.EventTypeInstallmentPaid)
	key := contract.EventTypeInstallmentPaid + ":" + ev.EventID().String()
	store.On("MarkProcessed", mock.Anything, key, shared.DefaultIdempotencyTTL).Return(true, nil)

	h := NewIdempotentHandler(newTestHandler(), store, 0, nil)
	require.NoError(t, h.Handle(context.Background(), ev))

	store.AssertExpectations(t)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	inner := newTestHandler()
	h := NewIdempotentHandler(inner, store, time.Hour, nil)

	require.NoError(t, h.Handle(context.Background(), newTestEvent("X")))
	assert.Len(t, inner.getHandled(), 1)
}

func TestIdempotentHandler_HandlerErrorIsReturnedAndNotRetried(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(nil)
	defer store.Close()

	inner := newTestHandler()
	inner.err = errors.New("send failed")
	h := NewIdempotentHandler(inner, store, time.Hour, nil)

	ev := newTestEvent("X")
	require.Error(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(1), h.Stats().Failed)
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(nil)
	defer store.Close()

	inner := newTestHandler()
	h := NewIdempotentHandler(inner, store, time.Hour, nil)
	ev := newTestEvent("X")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), ev)
		}()
	}
	wg.Wait()

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(19), h.Stats().Duplicate)
}

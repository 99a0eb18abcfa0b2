package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var busNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), busNow)}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	paid := newTestHandler(contract.EventTypeInstallmentPaid)
	bus.Subscribe(paid)

	ev := newTestEvent(contract.EventTypeInstallmentPaid)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Len(t, paid.getHandled(), 1)
	assert.Equal(t, ev, paid.getHandled()[0])
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	paid := newTestHandler()
	completed := newTestHandler()
	all := newTestHandler()
	bus.Subscribe(paid, contract.EventTypeInstallmentPaid)
	bus.Subscribe(completed, contract.EventTypeContractCompleted)
	bus.Subscribe(all)

	_ = bus.Publish(context.Background(),
		newTestEvent(contract.EventTypeInstallmentPaid),
		newTestEvent(contract.EventTypeContractCompleted),
		newTestEvent(contract.EventTypeInstallmentsMarkedOverdue),
	)

	assert.Len(t, paid.getHandled(), 1)
	assert.Len(t, completed.getHandled(), 1)
	assert.Len(t, all.getHandled(), 3)
	assert.Equal(t, 2, bus.HandlerCount(contract.EventTypeInstallmentPaid))
}

func TestInMemoryEventBus_HandlerFailureIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("X")
	failing.err = errors.New("boom")
	panicking := &HandlerFunc{Types: []string{"X"}, Fn: func(context.Context, shared.DomainEvent) error {
		panic("handler bug")
	}}
	healthy := newTestHandler("X")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("X"))
	require.NoError(t, err)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("X")
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent("X"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("X"))

	assert.Len(t, h.getHandled(), 1)
	assert.Equal(t, 0, bus.HandlerCount("X"))
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
}

package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// MockEventHandler records the events it receives
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler subscribes to eventTypes, or to everything when empty
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle implements shared.EventHandler
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the received events
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// HandledOfType counts received events of eventType
func (h *MockEventHandler) HandledOfType(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.handled {
		if ev.EventType() == eventType {
			n++
		}
	}
	return n
}

// SetError makes Handle fail with err
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// TestEvent is a bare domain event
type TestEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewTestEvent creates an event of eventType on a fresh aggregate
func NewTestEvent(eventType string) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), time.Now()),
		Data:            "test-data",
	}
}

// WaitForEventCount waits until handler has seen at least count events of eventType
func WaitForEventCount(t *testing.T, handler *MockEventHandler, eventType string, count int, timeout time.Duration) bool {
	t.Helper()
	return WaitForCondition(t, func() bool {
		return handler.HandledOfType(eventType) >= count
	}, timeout, 10*time.Millisecond)
}

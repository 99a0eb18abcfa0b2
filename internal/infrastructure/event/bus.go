package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// HandlerFunc adapts a function into a shared.EventHandler
type HandlerFunc struct {
	Types []string
	Fn    func(ctx context.Context, event shared.DomainEvent) error
}

// Handle implements shared.EventHandler
func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.Fn(ctx, event)
}

// EventTypes implements shared.EventHandler
func (h *HandlerFunc) EventTypes() []string {
	return h.Types
}

// InMemoryEventBus delivers events to subscribed handlers in-process.
// Publish runs handlers on the caller's goroutine; handlers that do slow work
// hand it to their own worker pool.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	logger   *zap.Logger
	running  atomic.Bool
	inflight sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		logger: logger,
	}
}

// Publish delivers each event to its handlers. Handler errors and panics are
// logged and never returned, so a failing subscriber cannot undo the
// already-committed change that raised the event.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.inflight.Add(1)
	defer b.inflight.Done()

	for _, ev := range events {
		for _, handler := range b.handlersFor(ev.EventType()) {
			if err := b.dispatch(ctx, handler, ev); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for the handler's own
// EventTypes when none are given. An empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
	b.mu.Unlock()

	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every subscription
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.wildcard = without(b.wildcard, handler)
	for t, hs := range b.byType {
		if hs = without(hs, handler); len(hs) == 0 {
			delete(b.byType, t)
		} else {
			b.byType[t] = hs
		}
	}
}

// HandlerCount returns how many handlers would receive eventType
func (b *InMemoryEventBus) HandlerCount(eventType string) int {
	return len(b.handlersFor(eventType))
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop waits for in-flight Publish calls or ctx expiry
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	typed := b.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(b.wildcard))
	out = append(out, typed...)
	return append(out, b.wildcard...)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, ev)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := handlers[:0:0]
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so each event id is handled once
// per TTL window, even if the event is delivered again
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler. A non-positive ttl means
// shared.DefaultIdempotencyTTL.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event id, then delegates. A store failure does not drop
// the event: a duplicate notification is preferable to a lost one.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	key := ev.EventType() + ":" + ev.EventID().String()

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, processing anyway",
			zap.String("event_id", ev.EventID().String()),
			zap.String("event_type", ev.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", ev.EventID().String()),
			zap.String("event_type", ev.EventType()),
		)
		return nil
	}

	// The key is kept on failure so a poison event is not retried in a loop.
	if err := h.handler.Handle(ctx, ev); err != nil {
		h.failed.Add(1)
		return err
	}

	h.processed.Add(1)
	return nil
}

// Stats returns the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

package shared

import "context"

// EventHandler reacts to published domain events. EventTypes lists the event
// types it wants; an empty list subscribes it to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services publish through. Publishing
// happens after the originating transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers. Start and Stop
// bound the lifetime of its delivery goroutines.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

package shared

import "time"

// AggregateRoot is a versioned entity that records domain events until the
// application layer publishes them after commit.
type AggregateRoot interface {
	Entity
	GetVersion() int
	MarkChanged(now time.Time)
	Record(event DomainEvent)
	PendingEvents() []DomainEvent
	PullEvents() []DomainEvent
}

// BaseAggregateRoot implements AggregateRoot. Version starts at 1 and backs
// optimistic locking in the repositories.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
	pending []DomainEvent
}

func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// MarkChanged touches the aggregate and bumps its version
func (a *BaseAggregateRoot) MarkChanged(now time.Time) {
	a.Touch(now)
	a.Version++
}

// Record queues an event for publishing
func (a *BaseAggregateRoot) Record(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the queued events without clearing them
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

// PullEvents returns the queued events and clears the queue
func (a *BaseAggregateRoot) PullEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// NewBaseAggregateRoot creates version 1 of a new aggregate
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(now), Version: 1}
}

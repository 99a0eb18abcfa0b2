package shared

import (
	"sync"
	"time"
)

// Clock supplies the current time. Everything that compares against "now"
// (overdue sweep, payment stamping, schedule regeneration, reports) reads it
// through a Clock so tests can pin the date.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a manually driven clock
type FixedClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixedClock creates a clock stopped at t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned time
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

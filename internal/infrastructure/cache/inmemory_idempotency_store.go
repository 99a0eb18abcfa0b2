package cache

import (
	"context"
	"sync"
	"time"

	"github.com/installments/backend/internal/domain/shared"
)

// idempotencySweepEvery bounds how often MarkProcessed scans for expired keys
const idempotencySweepEvery = 5 * time.Minute

// InMemoryIdempotencyStore remembers processed event ids of one process.
// Expired ids are dropped lazily while marking, so no goroutine is needed.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expires   map[string]time.Time
	clock     shared.Clock
	lastSweep time.Time
}

// NewInMemoryIdempotencyStore creates an empty store. A nil clock means the system clock.
func NewInMemoryIdempotencyStore(clock shared.Clock) *InMemoryIdempotencyStore {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InMemoryIdempotencyStore{
		expires:   make(map[string]time.Time),
		clock:     clock,
		lastSweep: clock.Now(),
	}
}

// MarkProcessed claims key until now+ttl. It reports false while an earlier
// claim is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweep(now)
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds a live claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[key]
	return ok && s.clock.Now().Before(exp), nil
}

// Close forgets every claim
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.expires)
	return nil
}

// Len returns the number of stored claims, expired ones included
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

// sweep drops expired claims at most once per idempotencySweepEvery; the caller holds the lock
func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < idempotencySweepEvery {
		return
	}
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
		}
	}
	s.lastSweep = now
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

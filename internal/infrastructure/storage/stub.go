package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	reportapp "github.com/installments/backend/internal/application/report"
	"github.com/installments/backend/internal/domain/shared"
)

// MemoryObjectStorage keeps archived exports in memory and returns fake
// download URLs. Development servers without a bucket archive here.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	clock   shared.Clock
}

// NewMemoryObjectStorage creates an empty store. A nil clock means the system clock.
func NewMemoryObjectStorage(clock shared.Clock) *MemoryObjectStorage {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
		clock:   clock,
	}
}

var _ reportapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// Upload stores a copy of data under storageKey
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), data...)
	return nil
}

// GenerateDownloadURL returns a fake URL for a stored object
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if _, ok := s.Object(storageKey); !ok {
		return "", time.Time{}, shared.ErrNotFound
	}

	expiresAt := s.clock.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// Object returns the stored bytes for storageKey
func (s *MemoryObjectStorage) Object(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	return data, ok
}

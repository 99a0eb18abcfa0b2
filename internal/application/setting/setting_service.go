package setting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettingResponse is one effective setting
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SettingsResponse is the full effective settings map
type SettingsResponse struct {
	Settings  map[string]any `json:"settings"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// UpdateSettingsRequest carries the keys to change
type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
}

// SettingService reads and writes application settings.
// Reads go through the cache; every write invalidates it.
type SettingService struct {
	repo   setting.Repository
	cache  setting.Cache
	clock  shared.Clock
	logger *zap.Logger
}

// NewSettingService creates a new SettingService. A nil cache reads the
// repository every time.
func NewSettingService(repo setting.Repository, cache setting.Cache, clock shared.Clock, logger *zap.Logger) *SettingService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{
		repo:   repo,
		cache:  cache,
		clock:  clock,
		logger: logger.Named("setting_service"),
	}
}

// Current returns the effective settings: defaults with stored overrides on top
func (s *SettingService) Current(ctx context.Context) (setting.Settings, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	stored, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	current := setting.Merge(stored)

	if s.cache != nil {
		if err := s.cache.Set(ctx, current); err != nil {
			s.logger.Warn("settings cache write failed", zap.Error(err))
		}
	}
	return current, nil
}

// GetAll returns every effective setting
func (s *SettingService) GetAll(ctx context.Context) (*SettingsResponse, error) {
	stored, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &SettingsResponse{
		Settings:  setting.Merge(stored),
		UpdatedAt: lastUpdated(stored),
	}, nil
}

// Get returns one setting. Unknown keys are NOT_FOUND.
func (s *SettingService) Get(ctx context.Context, key string) (*SettingResponse, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	value, ok := current.Get(key)
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Setting %s not found", key))
	}
	return &SettingResponse{Key: key, Value: value}, nil
}

// Update stores the given keys and returns the new effective settings
func (s *SettingService) Update(ctx context.Context, req UpdateSettingsRequest) (*SettingsResponse, error) {
	if err := setting.Validate(req.Settings); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, req.Settings, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("store settings: %w", err)
	}
	s.invalidate(ctx)

	keys := make([]string, 0, len(req.Settings))
	for k := range req.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.logger.Info("settings updated", zap.Strings("keys", keys))

	return s.GetAll(ctx)
}

// Reset restores the defaults
func (s *SettingService) Reset(ctx context.Context) (*SettingsResponse, error) {
	if err := s.repo.Reset(ctx, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("reset settings: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("settings reset to defaults")

	return s.GetAll(ctx)
}

func (s *SettingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("settings cache invalidation failed", zap.Error(err))
	}
}

func lastUpdated(stored []setting.Setting) *time.Time {
	var last *time.Time
	for i := range stored {
		if last == nil || stored[i].UpdatedAt.After(*last) {
			t := stored[i].UpdatedAt
			last = &t
		}
	}
	return last
}

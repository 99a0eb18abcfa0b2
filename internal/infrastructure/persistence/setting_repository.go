package persistence

import (
	"context"
	"time"

	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingRepository implements setting.Repository using GORM
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// FindAll returns every stored override
func (r *GormSettingRepository) FindAll(ctx context.Context) ([]setting.Setting, error) {
	var settingModels []models.SettingModel
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settingModels).Error; err != nil {
		return nil, err
	}
	settings := make([]setting.Setting, 0, len(settingModels))
	for i := range settingModels {
		s, err := settingModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, nil
}

// Upsert stores the given values in one transaction, replacing existing keys
func (r *GormSettingRepository) Upsert(ctx context.Context, values map[string]any, now time.Time) error {
	settingModels, err := buildSettingModels(values, now)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertSettings(tx, settingModels)
	})
}

// Reset removes all overrides and stores the defaults
func (r *GormSettingRepository) Reset(ctx context.Context, now time.Time) error {
	settingModels, err := buildSettingModels(setting.Defaults(), now)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SettingModel{}).Error; err != nil {
			return err
		}
		return upsertSettings(tx, settingModels)
	})
}

func buildSettingModels(values map[string]any, now time.Time) ([]*models.SettingModel, error) {
	settingModels := make([]*models.SettingModel, 0, len(values))
	for key, value := range values {
		m, err := models.NewSettingModel(key, value, now)
		if err != nil {
			return nil, err
		}
		settingModels = append(settingModels, m)
	}
	return settingModels, nil
}

func upsertSettings(tx *gorm.DB, settingModels []*models.SettingModel) error {
	if len(settingModels) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(settingModels).Error
}

// Ensure GormSettingRepository implements setting.Repository
var _ setting.Repository = (*GormSettingRepository)(nil)

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/installments/backend/internal/domain/setting"
)

// SettingModel stores one settings override as a JSON encoded value
type SettingModel struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettingModel) TableName() string {
	return "settings"
}

// ToDomain decodes the stored value
func (m *SettingModel) ToDomain() (setting.Setting, error) {
	var v any
	if err := json.Unmarshal([]byte(m.Value), &v); err != nil {
		return setting.Setting{}, fmt.Errorf("decode setting %s: %w", m.Key, err)
	}
	return setting.Setting{Key: m.Key, Value: v, UpdatedAt: m.UpdatedAt}, nil
}

// NewSettingModel encodes a value for storage
func NewSettingModel(key string, value any, now time.Time) (*SettingModel, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode setting %s: %w", key, err)
	}
	return &SettingModel{Key: key, Value: string(raw), UpdatedAt: now}, nil
}

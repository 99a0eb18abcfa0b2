package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// BaseModel is the id and timestamp columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// AggregateModel adds the optimistic lock version of aggregate tables
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
}

func (m *AggregateModel) setAggregate(a shared.BaseAggregateRoot) {
	m.setEntity(a.BaseEntity)
	m.Version = a.Version
}

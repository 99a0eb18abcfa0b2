package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with an identity
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries identity and timestamps. Timestamps come from the
// caller's clock, never from time.Now.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// Touch stamps the entity as modified at now
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
}

// NewBaseEntity assigns a fresh id created at now
func NewBaseEntity(now time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// Filter defines filtering options for notification queries
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Type       *Type
	Status     *Status
}

// Repository defines the interface for notification persistence
type Repository interface {
	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindAll finds notifications newest first and returns the total match count
	FindAll(ctx context.Context, filter Filter) ([]Notification, int64, error)

	// Save creates or updates a notification
	Save(ctx context.Context, n *Notification) error

	// Delete deletes a notification
	Delete(ctx context.Context, id uuid.UUID) error
}

package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// Repository defines the interface for customer persistence
type Repository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDs finds multiple customers by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)

	// FindAll finds customers matching the filter; Search matches name,
	// phone, email and national ID case-insensitively
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, int64, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts all customers
	Count(ctx context.Context) (int64, error)

	// ExistsByEmail checks whether another customer uses the email
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)

	// ExistsByNationalID checks whether another customer uses the national ID
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID uuid.UUID) (bool, error)
}

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple customers by their IDs
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
	if len(ids) == 0 {
		return []customer.Customer{}, nil
	}

	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&customerModels).Error; err != nil {
		return nil, err
	}
	return toCustomers(customerModels), nil
}

// FindAll finds customers matching the filter and returns the total match count
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, int64, error) {
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customerModels []models.CustomerModel
	query = applyOrder(query, filter, CustomerSortFields, "created_at", "DESC")
	if err := applyPagination(query, filter).Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}
	return toCustomers(customerModels), total, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	model := models.CustomerModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "A customer with this email or national ID already exists")
		}
		return err
	}
	return nil
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts all customers
func (r *GormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks if another customer uses the email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	if email == "" {
		return false, nil
	}
	return r.exists(ctx, "email = ?", strings.ToLower(email), excludeID)
}

// ExistsByNationalID checks if another customer uses the national ID
func (r *GormCustomerRepository) ExistsByNationalID(ctx context.Context, nationalID string, excludeID uuid.UUID) (bool, error) {
	if nationalID == "" {
		return false, nil
	}
	return r.exists(ctx, "national_id = ?", nationalID, excludeID)
}

func (r *GormCustomerRepository) exists(ctx context.Context, cond string, value any, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where(cond, value)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applySearch matches the search text against name, phone, email and national ID
func (r *GormCustomerRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if strings.TrimSpace(filter.Search) == "" {
		return query
	}
	p := likePattern(filter.Search)
	return query.Where(
		"LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ? OR LOWER(national_id) LIKE ?",
		p, p, p, p,
	)
}

func toCustomers(ms []models.CustomerModel) []customer.Customer {
	customers := make([]customer.Customer, len(ms))
	for i := range ms {
		customers[i] = *ms[i].ToDomain()
	}
	return customers
}

// isUniqueViolation detects unique constraint failures on postgres and sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// Ensure GormCustomerRepository implements customer.Repository
var _ customer.Repository = (*GormCustomerRepository)(nil)

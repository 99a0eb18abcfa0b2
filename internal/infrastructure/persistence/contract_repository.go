package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContractRepository implements contract.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a contract by its contract number
func (r *GormContractRepository) FindByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("contract_number = ?", strings.ToUpper(strings.TrimSpace(number))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds contracts with filtering, newest first by default
func (r *GormContractRepository) FindAll(ctx context.Context, filter contract.ContractFilter) ([]contract.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContractModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if strings.TrimSpace(filter.Search) != "" {
		query = query.Where("LOWER(contract_number) LIKE ? OR LOWER(description) LIKE ?",
			likePattern(filter.Search), likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contractModels []models.ContractModel
	query = applyOrder(query, filter.Filter, ContractSortFields, "created_at", "DESC")
	if err := applyPagination(query, filter.Filter).Find(&contractModels).Error; err != nil {
		return nil, 0, err
	}
	return toContracts(contractModels), total, nil
}

// FindByCustomer finds all contracts of a customer, newest first
func (r *GormContractRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]contract.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return toContracts(contractModels), nil
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Contract number "+c.ContractNumber+" is already taken")
		}
		return err
	}
	return nil
}

// SaveWithLock saves a contract with optimistic locking (version check).
// The domain bumps the version on every change, so the stored row must
// still carry the previous version.
func (r *GormContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(&models.ContractModel{}).
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a contract row
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ContractModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByCustomer counts contracts owned by a customer
func (r *GormContractRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ContractModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts contracts grouped by status
func (r *GormContractRepository) CountByStatus(ctx context.Context) (map[contract.ContractStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ContractModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[contract.ContractStatus]int64, len(rows))
	for _, row := range rows {
		counts[contract.ContractStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// NextContractNumber returns the next sequential contract number
// Format: CNT-NNNNNN (e.g., CNT-000001). Numbers widen past CNT-999999, so the
// highest is found by length first and then by value.
func (r *GormContractRepository) NextContractNumber(ctx context.Context) (string, error) {
	var last models.ContractModel
	err := r.db.WithContext(ctx).
		Model(&models.ContractModel{}).
		Where("contract_number LIKE ?", contract.ContractNumberPrefix+"%").
		Order("LENGTH(contract_number) DESC, contract_number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var next int64 = 1
	if err == nil {
		if seq, ok := contract.ParseContractNumber(last.ContractNumber); ok {
			next = seq + 1
		}
	}

	// Verify uniqueness; a parallel create may already hold the number
	for i := 0; i < 100; i++ {
		number := contract.FormatContractNumber(next)
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ContractModel{}).
			Where("contract_number = ?", number).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
		next++
	}
	return "", shared.NewDomainError("NUMBER_EXHAUSTED", "Could not allocate a contract number")
}

func toContracts(ms []models.ContractModel) []contract.Contract {
	contracts := make([]contract.Contract, len(ms))
	for i := range ms {
		contracts[i] = *ms[i].ToDomain()
	}
	return contracts
}

// Ensure GormContractRepository implements contract.ContractRepository
var _ contract.ContractRepository = (*GormContractRepository)(nil)

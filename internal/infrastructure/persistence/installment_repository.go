package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const installmentBatchSize = 100

// GormInstallmentRepository implements contract.InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByID finds an installment by ID
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContract finds every installment of a contract ordered by number
func (r *GormInstallmentRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]contract.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("installment_number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toInstallments(installmentModels), nil
}

// FindAll finds installments with filtering, earliest due date first by default
func (r *GormInstallmentRepository) FindAll(ctx context.Context, filter contract.InstallmentFilter) ([]contract.Installment, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InstallmentModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var installmentModels []models.InstallmentModel
	query = applyOrder(query, filter.Filter, InstallmentSortFields, "due_date", "ASC")
	if err := applyPagination(query, filter.Filter).Find(&installmentModels).Error; err != nil {
		return nil, 0, err
	}
	return toInstallments(installmentModels), total, nil
}

// SaveBatch inserts installments in batches
func (r *GormInstallmentRepository) SaveBatch(ctx context.Context, installments []contract.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	installmentModels := make([]*models.InstallmentModel, len(installments))
	for i := range installments {
		installmentModels[i] = models.InstallmentModelFromDomain(&installments[i])
	}
	if err := r.db.WithContext(ctx).CreateInBatches(installmentModels, installmentBatchSize).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Installment number already exists for this contract")
		}
		return err
	}
	return nil
}

// UpdateDetails writes the fields edit sets and nothing else, so an edit
// racing a payment cannot overwrite the payment's method or notes
func (r *GormInstallmentRepository) UpdateDetails(ctx context.Context, id uuid.UUID, edit contract.InstallmentEdit, updatedAt time.Time) error {
	changes := map[string]any{"updated_at": updatedAt}
	if edit.DueDate != nil {
		changes["due_date"] = *edit.DueDate
	}
	if edit.Notes != nil {
		changes["notes"] = *edit.Notes
	}
	if edit.PaymentMethod != nil {
		changes["payment_method"] = *edit.PaymentMethod
	}
	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ?", id).
		Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ApplyPayment writes the payment only while the stored status is not paid,
// so exactly one of several concurrent payments succeeds
func (r *GormInstallmentRepository) ApplyPayment(ctx context.Context, inst *contract.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ? AND status <> ?", inst.ID, contract.InstallmentStatusPaid).
		Updates(map[string]any{
			"status":         inst.Status,
			"paid_amount":    inst.PaidAmount,
			"paid_date":      inst.PaidDate,
			"payment_method": inst.PaymentMethod,
			"notes":          inst.Notes,
			"updated_at":     inst.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ?", inst.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return contract.ErrAlreadyPaid
}

// MarkOverdue flips every unpaid installment due before now to overdue
func (r *GormInstallmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("status = ? AND due_date < ?", contract.InstallmentStatusUnpaid, now).
		Updates(map[string]any{
			"status":     contract.InstallmentStatusOverdue,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeleteByIDs deletes the given installments
func (r *GormInstallmentRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.InstallmentModel{})
	return result.RowsAffected, result.Error
}

// DeleteByContract deletes every installment of a contract
func (r *GormInstallmentRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&models.InstallmentModel{})
	return result.RowsAffected, result.Error
}

// applyFilter applies filter options to the query
func (r *GormInstallmentRepository) applyFilter(query *gorm.DB, filter contract.InstallmentFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.CustomerID != nil {
		query = query.Where("contract_id IN (?)",
			r.db.Model(&models.ContractModel{}).Select("id").Where("customer_id = ?", *filter.CustomerID))
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	return query
}

func toInstallments(ms []models.InstallmentModel) []contract.Installment {
	installments := make([]contract.Installment, len(ms))
	for i := range ms {
		installments[i] = *ms[i].ToDomain()
	}
	return installments
}

// Ensure GormInstallmentRepository implements contract.InstallmentRepository
var _ contract.InstallmentRepository = (*GormInstallmentRepository)(nil)

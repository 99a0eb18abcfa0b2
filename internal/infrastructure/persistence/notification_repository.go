package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds notifications newest first and returns the total match count
func (r *GormNotificationRepository) FindAll(ctx context.Context, filter notification.Filter) ([]notification.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notificationModels []models.NotificationModel
	query = applyOrder(query, filter.Filter, NotificationSortFields, "created_at", "DESC")
	if err := applyPagination(query, filter.Filter).Find(&notificationModels).Error; err != nil {
		return nil, 0, err
	}

	result := make([]notification.Notification, len(notificationModels))
	for i := range notificationModels {
		result[i] = *notificationModels[i].ToDomain()
	}
	return result, total, nil
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Save(models.NotificationModelFromDomain(n)).Error
}

// Delete deletes a notification
func (r *GormNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.NotificationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormNotificationRepository implements notification.Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for the Notification entity.
type NotificationModel struct {
	BaseModel
	CustomerID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	ContractID        *uuid.UUID           `gorm:"type:uuid;index"`
	InstallmentID     *uuid.UUID           `gorm:"type:uuid;index"`
	Type              notification.Type    `gorm:"type:varchar(30);not null;index"`
	Channel           notification.Channel `gorm:"type:varchar(20);not null"`
	Message           string               `gorm:"type:text;not null"`
	Status            notification.Status  `gorm:"type:varchar(20);not null;default:'pending';index"`
	ProviderMessageID string               `gorm:"type:varchar(100)"`
	Error             string               `gorm:"type:text"`
	SentAt            *time.Time
	ReadAt            *time.Time
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity:        m.entity(),
		CustomerID:        m.CustomerID,
		ContractID:        m.ContractID,
		InstallmentID:     m.InstallmentID,
		Type:              m.Type,
		Channel:           m.Channel,
		Message:           m.Message,
		Status:            m.Status,
		SentAt:            m.SentAt,
		ReadAt:            m.ReadAt,
		ProviderMessageID: m.ProviderMessageID,
		Error:             m.Error,
	}
}

// FromDomain populates the persistence model from a domain Notification.
func (m *NotificationModel) FromDomain(n *notification.Notification) {
	m.setEntity(n.BaseEntity)
	m.CustomerID = n.CustomerID
	m.ContractID = n.ContractID
	m.InstallmentID = n.InstallmentID
	m.Type = n.Type
	m.Channel = n.Channel
	m.Message = n.Message
	m.Status = n.Status
	m.SentAt = n.SentAt
	m.ReadAt = n.ReadAt
	m.ProviderMessageID = n.ProviderMessageID
	m.Error = n.Error
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification.
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{}
	m.FromDomain(n)
	return m
}

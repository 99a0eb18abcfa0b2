package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/notification"
)

// SendNotificationRequest represents a request to send a notification
type SendNotificationRequest struct {
	CustomerID    uuid.UUID  `json:"customer_id" binding:"required"`
	ContractID    *uuid.UUID `json:"contract_id"`
	InstallmentID *uuid.UUID `json:"installment_id"`
	Type          string     `json:"type" binding:"omitempty,oneof=reminder overdue payment_confirmation general"`
	Channel       string     `json:"channel" binding:"omitempty,oneof=email sms whatsapp system"`
	Message       string     `json:"message" binding:"required,max=2000"`
}

// NoticeRequest selects the channel for a batch of reminder or overdue notices
type NoticeRequest struct {
	Channel string `json:"channel" binding:"omitempty,oneof=email sms whatsapp system"`
}

// NotificationListFilter represents the query of the notification listing
type NotificationListFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Type       string `form:"type" binding:"omitempty,oneof=reminder overdue payment_confirmation general"`
	Status     string `form:"status" binding:"omitempty,oneof=pending sent failed read"`
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID                uuid.UUID  `json:"id"`
	CustomerID        uuid.UUID  `json:"customer_id"`
	ContractID        *uuid.UUID `json:"contract_id,omitempty"`
	InstallmentID     *uuid.UUID `json:"installment_id,omitempty"`
	Type              string     `json:"type"`
	Channel           string     `json:"channel"`
	Message           string     `json:"message"`
	Status            string     `json:"status"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	Error             string     `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// BatchResult counts the outcome of a batch of notices
type BatchResult struct {
	Considered int                    `json:"considered"`
	Sent       int                    `json:"sent"`
	Failed     int                    `json:"failed"`
	Skipped    int                    `json:"skipped"`
	Items      []NotificationResponse `json:"items"`
}

// ToNotificationResponse converts a domain notification to a response
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:                n.ID,
		CustomerID:        n.CustomerID,
		ContractID:        n.ContractID,
		InstallmentID:     n.InstallmentID,
		Type:              n.Type.String(),
		Channel:           n.Channel.String(),
		Message:           n.Message,
		Status:            n.Status.String(),
		SentAt:            n.SentAt,
		ReadAt:            n.ReadAt,
		ProviderMessageID: n.ProviderMessageID,
		Error:             n.Error,
		CreatedAt:         n.CreatedAt,
	}
}

// ToNotificationResponses converts a slice of notifications
func ToNotificationResponses(items []notification.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(items))
	for i := range items {
		responses[i] = ToNotificationResponse(&items[i])
	}
	return responses
}

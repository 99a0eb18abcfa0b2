package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// AggregateTypeNotification is the aggregate type name for notifications
const AggregateTypeNotification = "Notification"

// Type categorizes what a notification is about
type Type string

const (
	TypeReminder            Type = "reminder"
	TypeOverdue             Type = "overdue"
	TypePaymentConfirmation Type = "payment_confirmation"
	TypeGeneral             Type = "general"
)

// IsValid checks if the notification type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeReminder, TypeOverdue, TypePaymentConfirmation, TypeGeneral:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// Channel is the delivery channel of a notification
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSystem   Channel = "system"
)

// IsValid checks if the channel is valid
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelSystem:
		return true
	}
	return false
}

// String returns the string representation
func (c Channel) String() string {
	return string(c)
}

// Status is the delivery status of a notification
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusRead    Status = "read"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusRead:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// Notification is a message addressed to a customer
type Notification struct {
	shared.BaseEntity
	CustomerID        uuid.UUID
	ContractID        *uuid.UUID
	InstallmentID     *uuid.UUID
	Type              Type
	Channel           Channel
	Message           string
	Status            Status
	SentAt            *time.Time
	ReadAt            *time.Time
	ProviderMessageID string
	Error             string
}

// NewNotification creates a pending notification
func NewNotification(customerID uuid.UUID, typ Type, channel Channel, message string, now time.Time) (*Notification, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	if typ == "" {
		typ = TypeGeneral
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Invalid notification type")
	}
	if channel == "" {
		channel = ChannelSystem
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Invalid notification channel")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(now),
		CustomerID: customerID,
		Type:       typ,
		Channel:    channel,
		Message:    message,
		Status:     StatusPending,
	}, nil
}

// WithContract links the notification to a contract
func (n *Notification) WithContract(contractID uuid.UUID) *Notification {
	n.ContractID = &contractID
	return n
}

// WithInstallment links the notification to an installment
func (n *Notification) WithInstallment(installmentID uuid.UUID) *Notification {
	n.InstallmentID = &installmentID
	return n
}

// MarkSent records a successful delivery
func (n *Notification) MarkSent(providerMessageID string, now time.Time) {
	n.Status = StatusSent
	n.SentAt = &now
	n.ProviderMessageID = providerMessageID
	n.Error = ""
	n.Touch(now)
}

// MarkFailed records a failed delivery
func (n *Notification) MarkFailed(reason string, now time.Time) {
	n.Status = StatusFailed
	n.Error = reason
	n.Touch(now)
}

// MarkRead marks the notification as read. Reading twice keeps the first read time.
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
	n.Status = StatusRead
	n.Touch(now)
}

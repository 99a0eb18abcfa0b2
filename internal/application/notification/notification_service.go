package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultSendTimeout = 10 * time.Second

// CustomerLookup resolves notification recipients
type CustomerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error)
}

// ContractLookup resolves the contract an installment belongs to
type ContractLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
}

// InstallmentFinder lists installments for batch notices
type InstallmentFinder interface {
	FindAll(ctx context.Context, filter contract.InstallmentFilter) ([]contract.Installment, int64, error)
}

// SettingsProvider returns the effective settings
type SettingsProvider interface {
	Current(ctx context.Context) (setting.Settings, error)
}

// SenderRegistry returns the sender serving a channel
type SenderRegistry interface {
	Sender(channel notification.Channel) (notification.Sender, bool)
}

// Sweeper flips past-due installments to overdue
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// DeliveryRecorder counts delivery attempts
type DeliveryRecorder interface {
	RecordNotification(ctx context.Context, channel, status string)
}

// Dependencies holds the collaborators of NotificationService
type Dependencies struct {
	Notifications  notification.Repository
	Customers      CustomerLookup
	Contracts      ContractLookup
	Installments   InstallmentFinder
	Settings       SettingsProvider
	Senders        SenderRegistry
	Sweeper        Sweeper
	Metrics        DeliveryRecorder
	DefaultChannel notification.Channel
	SendTimeout    time.Duration
	Clock          shared.Clock
	Logger         *zap.Logger
}

// Message is one notification to deliver
type Message struct {
	CustomerID    uuid.UUID
	ContractID    *uuid.UUID
	InstallmentID *uuid.UUID
	Type          notification.Type
	Channel       notification.Channel
	Text          string
}

// NotificationService stores notifications and dispatches them through the channel senders
type NotificationService struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(deps Dependencies) *NotificationService {
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DefaultChannel == "" {
		deps.DefaultChannel = notification.ChannelSystem
	}
	if deps.SendTimeout <= 0 {
		deps.SendTimeout = defaultSendTimeout
	}
	return &NotificationService{
		deps:   deps,
		logger: deps.Logger.Named("notification_service"),
	}
}

// List lists notifications, newest first
func (s *NotificationService) List(ctx context.Context, f NotificationListFilter) (*shared.Paginated[NotificationResponse], error) {
	filter := notification.Filter{Filter: shared.DefaultFilter()}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.CustomerID != "" {
		id, err := uuid.Parse(f.CustomerID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid customer_id: %s", f.CustomerID))
		}
		filter.CustomerID = &id
	}
	if f.Type != "" {
		t := notification.Type(f.Type)
		filter.Type = &t
	}
	if f.Status != "" {
		st := notification.Status(f.Status)
		filter.Status = &st
	}

	items, total, err := s.deps.Notifications.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToNotificationResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one notification
func (s *NotificationService) Get(ctx context.Context, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.deps.Notifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// Send creates and delivers a notification. A failed delivery is recorded
// on the notification and is not an error.
func (s *NotificationService) Send(ctx context.Context, req SendNotificationRequest) (*NotificationResponse, error) {
	channel := notification.Channel(req.Channel)
	if channel == "" {
		channel = s.deps.DefaultChannel
	}
	n, err := s.Notify(ctx, Message{
		CustomerID:    req.CustomerID,
		ContractID:    req.ContractID,
		InstallmentID: req.InstallmentID,
		Type:          notification.Type(req.Type),
		Channel:       channel,
		Text:          req.Message,
	})
	if err != nil {
		return nil, err
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// Notify stores a pending notification, delivers it and records the outcome.
// Errors are returned only when the notification could not be created or stored.
func (s *NotificationService) Notify(ctx context.Context, msg Message) (n *notification.Notification, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "NotificationService", "Notify",
		attribute.String("notification.channel", msg.Channel.String()),
		attribute.String("notification.type", msg.Type.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	now := s.deps.Clock.Now()
	n, err = notification.NewNotification(msg.CustomerID, msg.Type, msg.Channel, msg.Text, now)
	if err != nil {
		return nil, err
	}
	if msg.ContractID != nil {
		n.WithContract(*msg.ContractID)
	}
	if msg.InstallmentID != nil {
		n.WithInstallment(*msg.InstallmentID)
	}

	c, err := s.deps.Customers.FindByID(ctx, msg.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Customer not found")
		}
		return nil, err
	}
	if err = s.deps.Notifications.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	s.deliver(ctx, n, c)

	if err = s.deps.Notifications.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification outcome: %w", err)
	}
	return n, nil
}

// deliver sends n and marks it sent or failed
func (s *NotificationService) deliver(ctx context.Context, n *notification.Notification, c *customer.Customer) {
	log := s.logger.With(
		zap.String("notification_id", n.ID.String()),
		zap.String("customer_id", n.CustomerID.String()),
		zap.String("channel", n.Channel.String()),
	)

	if !s.channelEnabled(ctx, n.Channel) {
		n.MarkFailed(fmt.Sprintf("%s notifications are disabled", n.Channel), s.deps.Clock.Now())
		s.record(ctx, n)
		log.Info("notification channel disabled")
		return
	}
	sender, ok := s.deps.Senders.Sender(n.Channel)
	if !ok {
		n.MarkFailed(fmt.Sprintf("no sender for channel %s", n.Channel), s.deps.Clock.Now())
		s.record(ctx, n)
		log.Warn("no sender registered for channel")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.deps.SendTimeout)
	defer cancel()
	delivery, err := sender.Send(sendCtx, notification.Recipient{Name: c.Name, Phone: c.Phone, Email: c.Email}, n.Message)
	if err != nil {
		n.MarkFailed(err.Error(), s.deps.Clock.Now())
		s.record(ctx, n)
		log.Warn("notification delivery failed", zap.Error(err))
		return
	}
	n.MarkSent(delivery.ProviderMessageID, s.deps.Clock.Now())
	s.record(ctx, n)
	log.Info("notification sent", zap.String("provider_message_id", delivery.ProviderMessageID))
}

func (s *NotificationService) channelEnabled(ctx context.Context, channel notification.Channel) bool {
	if s.deps.Settings == nil {
		return true
	}
	settings, err := s.deps.Settings.Current(ctx)
	if err != nil {
		s.logger.Warn("read settings failed, assuming channel enabled", zap.Error(err))
		return true
	}
	return settings.ChannelEnabled(channel.String())
}

func (s *NotificationService) record(ctx context.Context, n *notification.Notification) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordNotification(ctx, n.Channel.String(), n.Status.String())
	}
}

// MarkRead marks a notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.deps.Notifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n.MarkRead(s.deps.Clock.Now())
	if err := s.deps.Notifications.Save(ctx, n); err != nil {
		return nil, err
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// Delete deletes a notification
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.deps.Notifications.FindByID(ctx, id); err != nil {
		return err
	}
	return s.deps.Notifications.Delete(ctx, id)
}

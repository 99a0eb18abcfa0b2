package notification

import (
	"context"
	"fmt"

	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// JobKindPaymentConfirmation is the worker pool job kind for confirmations
const JobKindPaymentConfirmation = "payment_confirmation"

// JobSubmitter queues background jobs without blocking
type JobSubmitter interface {
	Submit(job *scheduler.Job) error
}

// PaymentConfirmationHandler turns InstallmentPaid events into
// payment_confirmation notifications delivered on the worker pool, so the
// paying request never waits for a sender
type PaymentConfirmationHandler struct {
	service *NotificationService
	jobs    JobSubmitter
	channel notification.Channel
	logger  *zap.Logger
}

// NewPaymentConfirmationHandler creates the handler. An empty channel means
// the service's default channel.
func NewPaymentConfirmationHandler(service *NotificationService, jobs JobSubmitter, channel notification.Channel) *PaymentConfirmationHandler {
	if channel == "" {
		channel = service.deps.DefaultChannel
	}
	return &PaymentConfirmationHandler{
		service: service,
		jobs:    jobs,
		channel: channel,
		logger:  service.logger.Named("payment_confirmation"),
	}
}

// EventTypes implements shared.EventHandler
func (h *PaymentConfirmationHandler) EventTypes() []string {
	return []string{contract.EventTypeInstallmentPaid}
}

// Handle queues the confirmation. It returns an error only when the job
// could not be queued.
func (h *PaymentConfirmationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*contract.InstallmentPaidEvent)
	if !ok {
		return nil
	}

	// The request context ends with the response; the job runs on the pool's context.
	job := scheduler.NewJob(JobKindPaymentConfirmation, func(ctx context.Context) error {
		return h.confirm(ctx, paid)
	})
	if err := h.jobs.Submit(job); err != nil {
		h.logger.Error("payment confirmation not queued",
			zap.String("installment_id", paid.InstallmentID.String()),
			zap.Error(err))
		return fmt.Errorf("queue payment confirmation: %w", err)
	}
	return nil
}

func (h *PaymentConfirmationHandler) confirm(ctx context.Context, paid *contract.InstallmentPaidEvent) error {
	formatter := formatterFor(h.service.settings(ctx))
	contractID, installmentID := paid.AggregateID(), paid.InstallmentID

	n, err := h.service.Notify(ctx, Message{
		CustomerID:    paid.CustomerID,
		ContractID:    &contractID,
		InstallmentID: &installmentID,
		Type:          notification.TypePaymentConfirmation,
		Channel:       h.channel,
		Text:          formatter.PaymentConfirmation(paid.InstallmentNumber, paid.PaidAmount),
	})
	if err != nil {
		return err
	}
	h.logger.Debug("payment confirmation processed",
		zap.String("notification_id", n.ID.String()),
		zap.String("status", n.Status.String()))
	return nil
}

var _ shared.EventHandler = (*PaymentConfirmationHandler)(nil)

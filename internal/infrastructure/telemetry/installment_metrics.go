package telemetry

import (
	"context"
	"errors"

	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InstallmentMetrics turns domain events into business counters
type InstallmentMetrics struct {
	contractsCreated   metric.Int64Counter
	contractsCompleted metric.Int64Counter
	payments           metric.Int64Counter
	paymentAmount      metric.Float64Histogram
	overdueMarked      metric.Int64Counter
	notifications      metric.Int64Counter
	logger             *zap.Logger
}

var paymentAmountBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000}

// NewInstallmentMetrics creates the business instruments on meter
func NewInstallmentMetrics(meter metric.Meter, logger *zap.Logger) (*InstallmentMetrics, error) {
	if meter == nil {
		return nil, errors.New("installment metrics: meter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &InstallmentMetrics{logger: logger}
	var err error
	if m.contractsCreated, err = meter.Int64Counter("contracts_created_total",
		metric.WithDescription("Contracts created with a generated schedule")); err != nil {
		return nil, err
	}
	if m.contractsCompleted, err = meter.Int64Counter("contracts_completed_total",
		metric.WithDescription("Contracts whose installments are all paid")); err != nil {
		return nil, err
	}
	if m.payments, err = meter.Int64Counter("installment_payments_total",
		metric.WithDescription("Committed installment payments by method and resulting status")); err != nil {
		return nil, err
	}
	if m.paymentAmount, err = meter.Float64Histogram("installment_payment_amount",
		metric.WithDescription("Amount paid per payment"),
		metric.WithExplicitBucketBoundaries(paymentAmountBuckets...)); err != nil {
		return nil, err
	}
	if m.overdueMarked, err = meter.Int64Counter("installments_marked_overdue_total",
		metric.WithDescription("Installments flipped to overdue by sweeps")); err != nil {
		return nil, err
	}
	if m.notifications, err = meter.Int64Counter("notifications_delivered_total",
		metric.WithDescription("Notification delivery attempts by channel and outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

var _ shared.EventHandler = (*InstallmentMetrics)(nil)

// EventTypes implements shared.EventHandler
func (m *InstallmentMetrics) EventTypes() []string {
	return []string{
		contract.EventTypeContractCreated,
		contract.EventTypeContractCompleted,
		contract.EventTypeInstallmentPaid,
		contract.EventTypeInstallmentsMarkedOverdue,
	}
}

// Handle implements shared.EventHandler
func (m *InstallmentMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *contract.ContractCreatedEvent:
		m.contractsCreated.Add(ctx, 1)
	case *contract.ContractCompletedEvent:
		m.contractsCompleted.Add(ctx, 1)
	case *contract.InstallmentPaidEvent:
		attrs := metric.WithAttributes(
			attribute.String("payment_method", string(e.PaymentMethod)),
			attribute.String("status", string(e.Status)),
		)
		m.payments.Add(ctx, 1, attrs)
		m.paymentAmount.Record(ctx, e.PaidAmount.InexactFloat64(), attrs)
	case *contract.InstallmentsMarkedOverdueEvent:
		m.overdueMarked.Add(ctx, e.Count)
	default:
		m.logger.Debug("metrics ignored event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// RecordNotification counts one delivery attempt
func (m *InstallmentMetrics) RecordNotification(ctx context.Context, channel, status string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status),
	))
}

package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeContractCreated           = "ContractCreated"
	EventTypeContractCompleted         = "ContractCompleted"
	EventTypeInstallmentPaid           = "InstallmentPaid"
	EventTypeScheduleRegenerated       = "ScheduleRegenerated"
	EventTypeInstallmentsMarkedOverdue = "InstallmentsMarkedOverdue"
)

// ContractCreatedEvent is raised when a contract and its schedule are created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractNumber       string          `json:"contract_number"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
}

// NewContractCreatedEvent creates a ContractCreatedEvent
func NewContractCreatedEvent(c *Contract, now time.Time) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID, now),
		ContractNumber:       c.ContractNumber,
		CustomerID:           c.CustomerID,
		TotalAmount:          c.TotalAmount,
		NumberOfInstallments: c.NumberOfInstallments,
	}
}

// EventType returns the event type name
func (e *ContractCreatedEvent) EventType() string {
	return EventTypeContractCreated
}

// ContractCompletedEvent is raised when the last installment of a contract is paid
type ContractCompletedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string    `json:"contract_number"`
	CustomerID     uuid.UUID `json:"customer_id"`
}

// NewContractCompletedEvent creates a ContractCompletedEvent
func NewContractCompletedEvent(c *Contract, now time.Time) *ContractCompletedEvent {
	return &ContractCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCompleted, AggregateTypeContract, c.ID, now),
		ContractNumber:  c.ContractNumber,
		CustomerID:      c.CustomerID,
	}
}

// EventType returns the event type name
func (e *ContractCompletedEvent) EventType() string {
	return EventTypeContractCompleted
}

// InstallmentPaidEvent is published after a payment has been committed
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	InstallmentID     uuid.UUID         `json:"installment_id"`
	InstallmentNumber int               `json:"installment_number"`
	CustomerID        uuid.UUID         `json:"customer_id"`
	Amount            decimal.Decimal   `json:"amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Status            InstallmentStatus `json:"status"`
	PaidAt            time.Time         `json:"paid_at"`
}

// NewInstallmentPaidEvent creates an InstallmentPaidEvent for a paid or partially paid installment
func NewInstallmentPaidEvent(inst *Installment, customerID uuid.UUID, now time.Time) *InstallmentPaidEvent {
	paidAt := now
	if inst.PaidDate != nil {
		paidAt = *inst.PaidDate
	}
	return &InstallmentPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInstallmentPaid, AggregateTypeContract, inst.ContractID, now),
		InstallmentID:     inst.ID,
		InstallmentNumber: inst.InstallmentNumber,
		CustomerID:        customerID,
		Amount:            inst.Amount,
		PaidAmount:        inst.PaidAmount,
		PaymentMethod:     inst.PaymentMethod,
		Status:            inst.Status,
		PaidAt:            paidAt,
	}
}

// EventType returns the event type name
func (e *InstallmentPaidEvent) EventType() string {
	return EventTypeInstallmentPaid
}

// ScheduleRegeneratedEvent is raised after the unpaid tail was rebuilt
type ScheduleRegeneratedEvent struct {
	shared.BaseDomainEvent
	Removed   int             `json:"removed"`
	Created   int             `json:"created"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// NewScheduleRegeneratedEvent creates a ScheduleRegeneratedEvent
func NewScheduleRegeneratedEvent(c *Contract, plan RegenerationPlan, now time.Time) *ScheduleRegeneratedEvent {
	return &ScheduleRegeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScheduleRegenerated, AggregateTypeContract, c.ID, now),
		Removed:         len(plan.Removed),
		Created:         len(plan.Created),
		TotalPaid:       plan.TotalPaid,
	}
}

// EventType returns the event type name
func (e *ScheduleRegeneratedEvent) EventType() string {
	return EventTypeScheduleRegenerated
}

// InstallmentsMarkedOverdueEvent is raised when a sweep changed at least one installment
type InstallmentsMarkedOverdueEvent struct {
	shared.BaseDomainEvent
	Count int64 `json:"count"`
}

// NewInstallmentsMarkedOverdueEvent creates an InstallmentsMarkedOverdueEvent
func NewInstallmentsMarkedOverdueEvent(count int64, now time.Time) *InstallmentsMarkedOverdueEvent {
	return &InstallmentsMarkedOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentsMarkedOverdue, "Installment", uuid.Nil, now),
		Count:           count,
	}
}

// EventType returns the event type name
func (e *InstallmentsMarkedOverdueEvent) EventType() string {
	return EventTypeInstallmentsMarkedOverdue
}

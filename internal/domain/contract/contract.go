package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeContract is the aggregate type name used in events
const AggregateTypeContract = "Contract"

// ContractNumberPrefix prefixes every human-readable contract number
const ContractNumberPrefix = "CNT-"

// ContractStatus represents the lifecycle status of a contract
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusActive, ContractStatusCompleted, ContractStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ContractStatus
func (s ContractStatus) String() string {
	return string(s)
}

// FormatContractNumber renders a sequence as CNT-000042
func FormatContractNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", ContractNumberPrefix, seq)
}

// ParseContractNumber extracts the sequence from a contract number
func ParseContractNumber(number string) (int64, bool) {
	if !strings.HasPrefix(number, ContractNumberPrefix) {
		return 0, false
	}
	var seq int64
	if _, err := fmt.Sscanf(strings.TrimPrefix(number, ContractNumberPrefix), "%d", &seq); err != nil {
		return 0, false
	}
	return seq, true
}

// Terms are the schedule-affecting fields of a contract
type Terms struct {
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	NumberOfInstallments int
	StartDate            time.Time
}

// Validate checks the terms invariants
func (t Terms) Validate() error {
	if t.TotalAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if t.DownPayment.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Down payment cannot be negative")
	}
	if t.NumberOfInstallments < 1 {
		return shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Number of installments must be at least 1")
	}
	if t.StartDate.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Start date is required")
	}
	return nil
}

// Contract is the aggregate root for a financing agreement repaid in installments.
// Down payment above the total is accepted; the financed amount is then negative
// and the schedule carries zero-amount installments.
type Contract struct {
	shared.BaseAggregateRoot
	ContractNumber       string
	CustomerID           uuid.UUID
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	NumberOfInstallments int
	StartDate            time.Time
	Status               ContractStatus
	Description          string
}

var _ shared.AggregateRoot = (*Contract)(nil)

// NewContract creates a new active contract
func NewContract(customerID uuid.UUID, number string, terms Terms, description string, now time.Time) (*Contract, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer is required")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract number is required")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	c := &Contract{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(now),
		ContractNumber:       number,
		CustomerID:           customerID,
		TotalAmount:          shared.Round2(terms.TotalAmount),
		DownPayment:          shared.Round2(terms.DownPayment),
		NumberOfInstallments: terms.NumberOfInstallments,
		StartDate:            terms.StartDate,
		Status:               ContractStatusActive,
		Description:          description,
	}

	c.Record(NewContractCreatedEvent(c, now))
	return c, nil
}

// Terms returns the current schedule-affecting fields
func (c *Contract) Terms() Terms {
	return Terms{
		TotalAmount:          c.TotalAmount,
		DownPayment:          c.DownPayment,
		NumberOfInstallments: c.NumberOfInstallments,
		StartDate:            c.StartDate,
	}
}

// RemainingAmount is the financed amount: total minus down payment
func (c *Contract) RemainingAmount() decimal.Decimal {
	return c.TotalAmount.Sub(c.DownPayment)
}

// InstallmentAmount is the nominal per-installment amount of the original schedule
func (c *Contract) InstallmentAmount() decimal.Decimal {
	return shared.SplitEvenly(c.RemainingAmount(), c.NumberOfInstallments)
}

// IsCancelled returns true if the contract was cancelled
func (c *Contract) IsCancelled() bool {
	return c.Status == ContractStatusCancelled
}

// UpdateDetails applies a generic edit. Term fields are not editable here;
// use ChangeTerms followed by schedule regeneration.
func (c *Contract) UpdateDetails(description *string, status *ContractStatus, now time.Time) error {
	if status != nil {
		if !status.IsValid() {
			return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid contract status: %s", *status))
		}
		c.Status = *status
	}
	if description != nil {
		c.Description = *description
	}
	c.MarkChanged(now)
	return nil
}

// Cancel marks the contract as cancelled
func (c *Contract) Cancel(now time.Time) error {
	if c.Status == ContractStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Contract is already cancelled")
	}
	c.Status = ContractStatusCancelled
	c.MarkChanged(now)
	return nil
}

// ChangeTerms replaces the amount terms ahead of a schedule regeneration.
// Nil values keep the current term.
func (c *Contract) ChangeTerms(total, down *decimal.Decimal, count *int, now time.Time) error {
	if c.IsCancelled() {
		return shared.NewDomainError("CONTRACT_CANCELLED", "Cannot change terms of a cancelled contract")
	}
	terms := c.Terms()
	if total != nil {
		terms.TotalAmount = shared.Round2(*total)
	}
	if down != nil {
		terms.DownPayment = shared.Round2(*down)
	}
	if count != nil {
		terms.NumberOfInstallments = *count
	}
	if err := terms.Validate(); err != nil {
		return err
	}
	c.TotalAmount = terms.TotalAmount
	c.DownPayment = terms.DownPayment
	c.NumberOfInstallments = terms.NumberOfInstallments
	c.MarkChanged(now)
	return nil
}

// RefreshStatus derives the contract status from its installments and
// reports whether it changed. A contract is completed once every installment
// is paid; otherwise the status is left as is (completed never reverts).
func (c *Contract) RefreshStatus(installments []Installment, now time.Time) bool {
	if AggregateStatus(c.Status, installments) == c.Status {
		return false
	}
	c.Status = ContractStatusCompleted
	c.MarkChanged(now)
	c.Record(NewContractCompletedEvent(c, now))
	return true
}

// AggregateStatus returns the contract status implied by installments.
// An empty schedule never completes a contract.
func AggregateStatus(current ContractStatus, installments []Installment) ContractStatus {
	if len(installments) == 0 {
		return current
	}
	for i := range installments {
		if installments[i].Status != InstallmentStatusPaid {
			return current
		}
	}
	return ContractStatusCompleted
}

package contract

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrAlreadyPaid is returned when a payment targets an installment that is already paid
var ErrAlreadyPaid = shared.NewDomainError("ALREADY_PAID", "Installment is already paid")

// InstallmentStatus represents the payment state of an installment
type InstallmentStatus string

const (
	InstallmentStatusUnpaid  InstallmentStatus = "unpaid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
	InstallmentStatusPartial InstallmentStatus = "partial"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusUnpaid, InstallmentStatusOverdue, InstallmentStatusPartial, InstallmentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the installment is paid
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentStatusPaid
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InstallmentStatus) CanApplyPayment() bool {
	return s != InstallmentStatusPaid
}

// AllInstallmentStatuses lists every status in display order
func AllInstallmentStatuses() []InstallmentStatus {
	return []InstallmentStatus{
		InstallmentStatusUnpaid,
		InstallmentStatusOverdue,
		InstallmentStatusPartial,
		InstallmentStatusPaid,
	}
}

// PaymentMethod is how an installment was settled
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// DefaultPaymentMethod is used when a payment does not name one
const DefaultPaymentMethod = PaymentMethodCash

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Installment is one scheduled payment obligation of a contract
type Installment struct {
	shared.BaseEntity
	ContractID        uuid.UUID
	InstallmentNumber int
	Amount            decimal.Decimal
	DueDate           time.Time
	Status            InstallmentStatus
	PaidAmount        decimal.Decimal
	PaidDate          *time.Time
	PaymentMethod     PaymentMethod
	Notes             string
}

var _ shared.Entity = (*Installment)(nil)

// NewInstallment creates an unpaid installment
func NewInstallment(contractID uuid.UUID, number int, amount decimal.Decimal, dueDate time.Time, now time.Time) Installment {
	return Installment{
		BaseEntity:        shared.NewBaseEntity(now),
		ContractID:        contractID,
		InstallmentNumber: number,
		Amount:            amount,
		DueDate:           dueDate,
		Status:            InstallmentStatusUnpaid,
		PaidAmount:        decimal.Zero,
	}
}

// IsPaid returns true if the installment is paid
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// IsPastDue reports whether an unpaid installment is due strictly before now
func (i *Installment) IsPastDue(now time.Time) bool {
	return i.Status == InstallmentStatusUnpaid && i.DueDate.Before(now)
}

// MarkOverdueIfPastDue moves an unpaid past-due installment to overdue and
// reports whether it changed
func (i *Installment) MarkOverdueIfPastDue(now time.Time) bool {
	if !i.IsPastDue(now) {
		return false
	}
	i.Status = InstallmentStatusOverdue
	i.Touch(now)
	return true
}

// SettledAmount is what a paid installment counts toward the contract:
// the recorded paid amount, or the due amount when none was recorded
func (i *Installment) SettledAmount() decimal.Decimal {
	if i.PaidAmount.IsPositive() {
		return i.PaidAmount
	}
	return i.Amount
}

// OutstandingAmount is the due amount still open; zero once paid
func (i *Installment) OutstandingAmount() decimal.Decimal {
	if i.IsPaid() {
		return decimal.Zero
	}
	return i.Amount
}

// DaysOverdue returns whole days past the due date, or 0 if not yet due
func (i *Installment) DaysOverdue(now time.Time) int {
	if !i.DueDate.Before(now) {
		return 0
	}
	return shared.DaysBetween(i.DueDate, now)
}

// Payment is a request to settle an installment
type Payment struct {
	// Amount is the submitted amount; nil or zero pays the installment in full
	Amount *decimal.Decimal
	Method PaymentMethod
	Notes  *string
}

// ApplyPayment records a payment. The paid amount replaces any previous
// partial payment rather than adding to it, and the resulting status compares
// only the submitted amount against the installment amount.
func (i *Installment) ApplyPayment(p Payment, now time.Time) error {
	if !i.Status.CanApplyPayment() {
		return shared.NewDomainError("ALREADY_PAID", fmt.Sprintf("Installment #%d is already paid", i.InstallmentNumber))
	}

	amount := i.Amount
	if p.Amount != nil && !p.Amount.IsZero() {
		if p.Amount.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
		}
		amount = shared.Round2(*p.Amount)
	}

	method := p.Method
	if method == "" {
		method = DefaultPaymentMethod
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid payment method: %s", method))
	}

	i.PaidAmount = amount
	paidAt := now
	i.PaidDate = &paidAt
	i.PaymentMethod = method
	if p.Notes != nil {
		i.Notes = *p.Notes
	}
	if amount.GreaterThanOrEqual(i.Amount) {
		i.Status = InstallmentStatusPaid
	} else {
		i.Status = InstallmentStatusPartial
	}
	i.Touch(now)
	return nil
}

// InstallmentEdit carries the fields an edit sets. Nil fields are left as
// stored, so an edit never rewrites payment data it did not touch.
type InstallmentEdit struct {
	DueDate       *time.Time
	Notes         *string
	PaymentMethod *PaymentMethod
}

// IsEmpty reports whether the edit sets nothing
func (e InstallmentEdit) IsEmpty() bool {
	return e.DueDate == nil && e.Notes == nil && e.PaymentMethod == nil
}

// UpdateDetails applies an edit; amount and status are never edited directly
func (i *Installment) UpdateDetails(edit InstallmentEdit, now time.Time) error {
	if edit.PaymentMethod != nil {
		if !edit.PaymentMethod.IsValid() {
			return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid payment method: %s", *edit.PaymentMethod))
		}
		i.PaymentMethod = *edit.PaymentMethod
	}
	if edit.DueDate != nil {
		if edit.DueDate.IsZero() {
			return shared.NewDomainError("INVALID_INPUT", "Due date cannot be empty")
		}
		i.DueDate = *edit.DueDate
	}
	if edit.Notes != nil {
		i.Notes = *edit.Notes
	}
	i.Touch(now)
	return nil
}

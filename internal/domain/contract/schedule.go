package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the full installment schedule of a new contract.
// Installment i (1-based) is due i-1 calendar months after the start date and
// owes round2((total - down) / n). No installment absorbs the rounding drift.
func GenerateSchedule(c *Contract, now time.Time) ([]Installment, error) {
	if err := c.Terms().Validate(); err != nil {
		return nil, err
	}

	n := c.NumberOfInstallments
	per := shared.MaxDecimal(shared.SplitEvenly(c.RemainingAmount(), n), decimal.Zero)

	schedule := make([]Installment, 0, n)
	for i := 1; i <= n; i++ {
		due := shared.AddMonths(c.StartDate, i-1)
		schedule = append(schedule, NewInstallment(c.ID, i, per, due, now))
	}
	return schedule, nil
}

// RegenerationPlan describes how to rebuild the unpaid tail of a schedule
type RegenerationPlan struct {
	// Kept are the paid installments, left untouched
	Kept []Installment
	// Removed are the IDs of every installment that is not paid
	Removed []uuid.UUID
	// Created is the new unpaid tail; empty when nothing remains to schedule
	Created []Installment
	// TotalPaid is what the kept installments settled
	TotalPaid decimal.Decimal
}

// IsNoop reports whether regeneration schedules nothing new
func (p RegenerationPlan) IsNoop() bool {
	return len(p.Created) == 0
}

// PlanRegeneration recomputes the unpaid tail of a contract's schedule after
// its terms changed. Paid installments are kept; everything else is replaced
// by numberOfInstallments - paidCount new installments splitting what is
// still owed. New due dates step monthly from today, not from the contract
// start date.
func PlanRegeneration(c *Contract, existing []Installment, now time.Time) RegenerationPlan {
	plan := RegenerationPlan{TotalPaid: decimal.Zero}

	highestPaid := 0
	for i := range existing {
		inst := existing[i]
		if inst.IsPaid() {
			plan.Kept = append(plan.Kept, inst)
			plan.TotalPaid = plan.TotalPaid.Add(inst.SettledAmount())
			if inst.InstallmentNumber > highestPaid {
				highestPaid = inst.InstallmentNumber
			}
			continue
		}
		plan.Removed = append(plan.Removed, inst.ID)
	}

	paidCount := len(plan.Kept)
	remaining := c.NumberOfInstallments - paidCount
	if remaining <= 0 {
		return plan
	}

	owed := shared.MaxDecimal(c.RemainingAmount().Sub(plan.TotalPaid), decimal.Zero)
	per := shared.SplitEvenly(owed, remaining)

	// Numbering continues after the paid prefix. If paid installments are not
	// a contiguous 1..P prefix, continue after the highest paid number so
	// (contract, number) stays unique.
	first := paidCount + 1
	if highestPaid >= first {
		first = highestPaid + 1
	}

	today := shared.StartOfDay(now)
	plan.Created = make([]Installment, 0, remaining)
	for i := 1; i <= remaining; i++ {
		due := shared.AddMonths(today, i)
		plan.Created = append(plan.Created, NewInstallment(c.ID, first+i-1, per, due, now))
	}
	return plan
}

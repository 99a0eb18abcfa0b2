package contract

import (
	"testing"
	"time"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchedule(t *testing.T) {
	t.Run("twelve thousand over ten months", func(t *testing.T) {
		c := newTestContract(t, "12000", "2000", 10, day(2024, 1, 1))

		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		require.Len(t, schedule, 10)

		for i, inst := range schedule {
			assert.Equal(t, i+1, inst.InstallmentNumber)
			assert.Equal(t, "1000.00", inst.Amount.StringFixed(2))
			assert.Equal(t, day(2024, time.Month(i+1), 1), inst.DueDate)
			assert.Equal(t, InstallmentStatusUnpaid, inst.Status)
			assert.True(t, inst.PaidAmount.IsZero())
			assert.Equal(t, c.ID, inst.ContractID)
		}
	})

	t.Run("rounding drift stays within half a cent per installment", func(t *testing.T) {
		cases := []struct {
			total, down string
			n           int
		}{
			{"1000", "0", 3},
			{"999.99", "100", 7},
			{"12345.67", "345.67", 11},
			{"1", "0", 6},
		}
		for _, tc := range cases {
			c := newTestContract(t, tc.total, tc.down, tc.n, day(2024, 1, 1))
			schedule, err := GenerateSchedule(c, testNow)
			require.NoError(t, err)

			sum := decimal.Zero
			seen := map[int]bool{}
			for _, inst := range schedule {
				sum = sum.Add(inst.Amount)
				assert.False(t, seen[inst.InstallmentNumber], "duplicate number %d", inst.InstallmentNumber)
				seen[inst.InstallmentNumber] = true
			}
			drift := sum.Sub(c.RemainingAmount()).Abs()
			limit := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(tc.n)))
			assert.True(t, drift.LessThanOrEqual(limit), "drift %s exceeds %s", drift, limit)
			assert.Len(t, seen, tc.n)
		}
	})

	t.Run("last installment does not absorb the remainder", func(t *testing.T) {
		c := newTestContract(t, "1000", "0", 3, day(2024, 1, 1))
		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		for _, inst := range schedule {
			assert.Equal(t, "333.33", inst.Amount.StringFixed(2))
		}
	})

	t.Run("end of month start clamps", func(t *testing.T) {
		c := newTestContract(t, "400", "0", 4, day(2024, 1, 31))
		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		want := []time.Time{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31), day(2024, 4, 30)}
		for i, inst := range schedule {
			assert.Equal(t, want[i], inst.DueDate)
		}
	})

	t.Run("single installment due on start date", func(t *testing.T) {
		c := newTestContract(t, "500", "100", 1, day(2024, 6, 15))
		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		require.Len(t, schedule, 1)
		assert.Equal(t, day(2024, 6, 15), schedule[0].DueDate)
		assert.Equal(t, "400.00", schedule[0].Amount.StringFixed(2))
	})

	t.Run("down payment above total yields zero amounts", func(t *testing.T) {
		c := newTestContract(t, "100", "150", 2, day(2024, 1, 1))
		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		for _, inst := range schedule {
			assert.True(t, inst.Amount.IsZero())
		}
	})

	t.Run("invalid count is rejected", func(t *testing.T) {
		c := newTestContract(t, "100", "0", 1, day(2024, 1, 1))
		c.NumberOfInstallments = 0
		_, err := GenerateSchedule(c, testNow)
		assert.Error(t, err)
	})
}

func TestPlanRegeneration(t *testing.T) {
	now := time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)

	build := func(t *testing.T, total, down string, n int, paid ...int) (*Contract, []Installment) {
		t.Helper()
		c := newTestContract(t, total, down, n, day(2024, 1, 1))
		schedule, err := GenerateSchedule(c, testNow)
		require.NoError(t, err)
		for _, number := range paid {
			require.NoError(t, schedule[number-1].ApplyPayment(Payment{}, testNow))
		}
		return c, schedule
	}

	t.Run("rebuilds unpaid tail from today", func(t *testing.T) {
		c, existing := build(t, "12000", "2000", 10, 1, 2)
		total := dec("14000")
		require.NoError(t, c.ChangeTerms(&total, nil, nil, now))

		plan := PlanRegeneration(c, existing, now)

		assert.Len(t, plan.Kept, 2)
		assert.Len(t, plan.Removed, 8)
		require.Len(t, plan.Created, 8)
		assert.True(t, plan.TotalPaid.Equal(dec("2000")))
		// (14000 - 2000 - 2000) / 8
		for i, inst := range plan.Created {
			assert.Equal(t, 3+i, inst.InstallmentNumber)
			assert.Equal(t, "1250.00", inst.Amount.StringFixed(2))
			assert.Equal(t, shared.AddMonths(day(2024, 5, 20), i+1), inst.DueDate)
			assert.Equal(t, InstallmentStatusUnpaid, inst.Status)
		}
	})

	t.Run("partial payments are replaced", func(t *testing.T) {
		c, existing := build(t, "300", "0", 3)
		half := dec("50")
		require.NoError(t, existing[0].ApplyPayment(Payment{Amount: &half}, testNow))

		plan := PlanRegeneration(c, existing, now)

		assert.Empty(t, plan.Kept)
		assert.Len(t, plan.Removed, 3)
		require.Len(t, plan.Created, 3)
		assert.True(t, plan.TotalPaid.IsZero())
		assert.Equal(t, 1, plan.Created[0].InstallmentNumber)
	})

	t.Run("uses recorded paid amount", func(t *testing.T) {
		c, existing := build(t, "1000", "0", 4)
		over := dec("400")
		require.NoError(t, existing[0].ApplyPayment(Payment{Amount: &over}, testNow))

		plan := PlanRegeneration(c, existing, now)

		assert.True(t, plan.TotalPaid.Equal(dec("400")))
		require.Len(t, plan.Created, 3)
		assert.Equal(t, "200.00", plan.Created[0].Amount.StringFixed(2))
	})

	t.Run("no-op when everything is paid", func(t *testing.T) {
		c, existing := build(t, "300", "0", 3, 1, 2, 3)
		plan := PlanRegeneration(c, existing, now)
		assert.True(t, plan.IsNoop())
		assert.Empty(t, plan.Removed)
	})

	t.Run("no-op when count shrank below paid count", func(t *testing.T) {
		c, existing := build(t, "300", "0", 3, 1, 2)
		count := 2
		require.NoError(t, c.ChangeTerms(nil, nil, &count, now))
		plan := PlanRegeneration(c, existing, now)
		assert.True(t, plan.IsNoop())
		assert.Len(t, plan.Removed, 1, "unpaid rows are still dropped")
	})

	t.Run("numbering skips past non-contiguous paid installments", func(t *testing.T) {
		c, existing := build(t, "500", "0", 5, 1, 4)
		plan := PlanRegeneration(c, existing, now)
		require.Len(t, plan.Created, 3)
		assert.Equal(t, 5, plan.Created[0].InstallmentNumber)
		assert.Equal(t, 7, plan.Created[2].InstallmentNumber)
	})

	t.Run("overpaid contract schedules zero amounts", func(t *testing.T) {
		c, existing := build(t, "300", "0", 3, 1)
		lower := dec("50")
		require.NoError(t, c.ChangeTerms(&lower, nil, nil, now))
		plan := PlanRegeneration(c, existing, now)
		require.Len(t, plan.Created, 2)
		assert.True(t, plan.Created[0].Amount.IsZero())
	})
}

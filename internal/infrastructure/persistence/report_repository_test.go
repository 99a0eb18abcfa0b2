package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func payInstallment(t *testing.T, db *gorm.DB, inst contract.Installment, amount string, at time.Time) {
	t.Helper()
	a := dec(amount)
	require.NoError(t, inst.ApplyPayment(contract.Payment{Amount: &a}, at))
	require.NoError(t, NewGormInstallmentRepository(db).ApplyPayment(context.Background(), &inst))
}

func TestGormReportRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReportRepository(db)
	ctx := context.Background()

	alice := seedCustomer(t, db, "Alice", "0100", "alice@example.com")
	bob := seedCustomer(t, db, "Bob", "0200", "")
	_, aliceSchedule := seedContract(t, db, alice.ID, "1200", "200", 4, day(2024, 1, 1))
	seedContract(t, db, bob.ID, "600", "0", 3, day(2024, 6, 1))

	payInstallment(t, db, aliceSchedule[0], "250", day(2024, 1, 3))
	payInstallment(t, db, aliceSchedule[1], "250", day(2024, 2, 5))
	payInstallment(t, db, aliceSchedule[2], "100", day(2024, 2, 20))

	_, err := NewGormInstallmentRepository(db).MarkOverdue(ctx, day(2024, 5, 1))
	require.NoError(t, err)

	t.Run("contract totals", func(t *testing.T) {
		totals, err := repo.GetContractTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), totals.Total)
		assert.Equal(t, int64(2), totals.Active)
		assert.True(t, totals.TotalContractValue.Equal(dec("1800")))
		assert.True(t, totals.TotalDownPayments.Equal(dec("200")))
	})

	t.Run("status totals", func(t *testing.T) {
		totals, err := repo.GetInstallmentStatusTotals(ctx, report.InstallmentReportFilter{})
		require.NoError(t, err)
		byStatus := map[string]report.StatusTotals{}
		for _, st := range totals {
			byStatus[st.Status] = st
		}
		assert.Equal(t, int64(2), byStatus["paid"].Count)
		assert.True(t, byStatus["paid"].TotalSettled.Equal(dec("500")))
		assert.Equal(t, int64(1), byStatus["partial"].Count)
		assert.Equal(t, int64(1), byStatus["overdue"].Count)
		assert.Equal(t, int64(3), byStatus["unpaid"].Count)

		onlyBob, err := repo.GetInstallmentStatusTotals(ctx, report.InstallmentReportFilter{CustomerID: &bob.ID})
		require.NoError(t, err)
		require.Len(t, onlyBob, 1)
		assert.Equal(t, int64(3), onlyBob[0].Count)
	})

	t.Run("upcoming", func(t *testing.T) {
		n, err := repo.CountUpcoming(ctx, day(2024, 5, 25), day(2024, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("recent payments newest first", func(t *testing.T) {
		payments, err := repo.GetRecentPayments(ctx, 5)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, 2, payments[0].InstallmentNumber)
		assert.Equal(t, "Alice", payments[0].CustomerName)
	})

	t.Run("customer balances", func(t *testing.T) {
		balances, err := repo.GetCustomerBalances(ctx)
		require.NoError(t, err)
		require.Len(t, balances, 2)
		a := balances[0]
		assert.Equal(t, "Alice", a.CustomerName)
		assert.Equal(t, "alice@example.com", a.Email)
		assert.Equal(t, int64(1), a.ContractCount)
		assert.Equal(t, int64(2), a.PaidCount)
		assert.Equal(t, int64(1), a.OverdueCount)
		assert.True(t, a.TotalPaid.Equal(dec("500")))
		assert.True(t, a.Outstanding.Equal(dec("500")))
	})

	t.Run("overdue installments", func(t *testing.T) {
		items, err := repo.GetOverdueInstallments(ctx, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 4, items[0].InstallmentNumber)
		assert.Equal(t, "Alice", items[0].CustomerName)

		items, err = repo.GetOverdueInstallments(ctx, &bob.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("monthly collections", func(t *testing.T) {
		from, to := report.YearBounds(2024, time.UTC)
		rows, err := repo.GetMonthlyCollections(ctx, from, to)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].Month)
		assert.Equal(t, int64(1), rows[0].Count)
		assert.Equal(t, 2, rows[1].Month)
		assert.True(t, rows[1].Collected.Equal(dec("250")))
	})
}

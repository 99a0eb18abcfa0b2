package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstallment(amount string, due time.Time) Installment {
	return NewInstallment(uuid.New(), 3, dec(amount), due, testNow)
}

func TestInstallment_ApplyPayment(t *testing.T) {
	payAt := testNow.Add(2 * time.Hour)

	t.Run("partial payment", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		amount := dec("500")

		require.NoError(t, inst.ApplyPayment(Payment{Amount: &amount}, payAt))

		assert.Equal(t, InstallmentStatusPartial, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(dec("500")))
		require.NotNil(t, inst.PaidDate)
		assert.Equal(t, payAt, *inst.PaidDate)
		assert.Equal(t, PaymentMethodCash, inst.PaymentMethod)
	})

	t.Run("exact amount pays in full", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		amount := dec("1000")
		require.NoError(t, inst.ApplyPayment(Payment{Amount: &amount, Method: PaymentMethodCard}, payAt))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.Equal(t, PaymentMethodCard, inst.PaymentMethod)
	})

	t.Run("overpayment pays in full", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		amount := dec("1200")
		require.NoError(t, inst.ApplyPayment(Payment{Amount: &amount}, payAt))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(dec("1200")))
	})

	t.Run("omitted amount pays the installment amount", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		require.NoError(t, inst.ApplyPayment(Payment{}, payAt))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(dec("1000")))
	})

	t.Run("second partial payment replaces the first", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		first, second := dec("300"), dec("400")
		require.NoError(t, inst.ApplyPayment(Payment{Amount: &first}, payAt))
		require.NoError(t, inst.ApplyPayment(Payment{Amount: &second}, payAt))
		assert.True(t, inst.PaidAmount.Equal(dec("400")))
		assert.Equal(t, InstallmentStatusPartial, inst.Status)
	})

	t.Run("overdue installment can be paid", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2023, 12, 1))
		inst.Status = InstallmentStatusOverdue
		require.NoError(t, inst.ApplyPayment(Payment{}, payAt))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
	})

	t.Run("paid installment is rejected", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		require.NoError(t, inst.ApplyPayment(Payment{}, payAt))
		before := inst

		err := inst.ApplyPayment(Payment{}, payAt.Add(time.Hour))

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "ALREADY_PAID", de.Code)
		assert.Equal(t, before, inst, "rejected payment must not mutate")
	})

	t.Run("notes keep existing value when omitted", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		inst.Notes = "call first"
		require.NoError(t, inst.ApplyPayment(Payment{}, payAt))
		assert.Equal(t, "call first", inst.Notes)

		inst2 := newTestInstallment("1000", day(2024, 3, 1))
		notes := "paid at counter"
		require.NoError(t, inst2.ApplyPayment(Payment{Notes: &notes}, payAt))
		assert.Equal(t, "paid at counter", inst2.Notes)
	})

	t.Run("zero amount pays in full", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		zero := dec("0")
		require.NoError(t, inst.ApplyPayment(Payment{Amount: &zero}, payAt))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(dec("1000")))
	})

	t.Run("rejects negative amount and unknown method", func(t *testing.T) {
		inst := newTestInstallment("1000", day(2024, 3, 1))
		negative := dec("-5")
		assert.Error(t, inst.ApplyPayment(Payment{Amount: &negative}, payAt))
		assert.Error(t, inst.ApplyPayment(Payment{Method: "barter"}, payAt))
		assert.Equal(t, InstallmentStatusUnpaid, inst.Status)
	})
}

func TestInstallment_MarkOverdueIfPastDue(t *testing.T) {
	now := day(2024, 2, 1)

	t.Run("unpaid past due becomes overdue", func(t *testing.T) {
		inst := newTestInstallment("100", day(2024, 1, 31))
		assert.True(t, inst.MarkOverdueIfPastDue(now))
		assert.Equal(t, InstallmentStatusOverdue, inst.Status)
		assert.False(t, inst.MarkOverdueIfPastDue(now), "second sweep is a no-op")
	})

	t.Run("due exactly now is not past due", func(t *testing.T) {
		inst := newTestInstallment("100", now)
		assert.False(t, inst.MarkOverdueIfPastDue(now))
	})

	t.Run("partial and paid are untouched", func(t *testing.T) {
		for _, s := range []InstallmentStatus{InstallmentStatusPartial, InstallmentStatusPaid} {
			inst := newTestInstallment("100", day(2023, 1, 1))
			inst.Status = s
			assert.False(t, inst.MarkOverdueIfPastDue(now))
			assert.Equal(t, s, inst.Status)
		}
	})
}

func TestInstallment_Amounts(t *testing.T) {
	inst := newTestInstallment("250", day(2024, 1, 1))
	assert.True(t, inst.SettledAmount().Equal(dec("250")), "falls back to amount when nothing recorded")
	assert.True(t, inst.OutstandingAmount().Equal(dec("250")))
	assert.Equal(t, 14, inst.DaysOverdue(day(2024, 1, 15)))
	assert.Equal(t, 0, inst.DaysOverdue(day(2023, 12, 15)))

	inst.Status = InstallmentStatusPaid
	inst.PaidAmount = dec("260")
	assert.True(t, inst.SettledAmount().Equal(dec("260")))
	assert.True(t, inst.OutstandingAmount().IsZero())
}

func TestInstallment_UpdateDetails(t *testing.T) {
	inst := newTestInstallment("100", day(2024, 1, 1))
	due := day(2024, 1, 20)
	notes := "moved"
	method := PaymentMethodBankTransfer

	require.NoError(t, inst.UpdateDetails(InstallmentEdit{DueDate: &due, Notes: &notes, PaymentMethod: &method}, testNow))
	assert.Equal(t, due, inst.DueDate)
	assert.Equal(t, "moved", inst.Notes)
	assert.Equal(t, PaymentMethodBankTransfer, inst.PaymentMethod)
	assert.Equal(t, InstallmentStatusUnpaid, inst.Status)

	bad := PaymentMethod("iou")
	assert.Error(t, inst.UpdateDetails(InstallmentEdit{PaymentMethod: &bad}, testNow))
	assert.True(t, InstallmentEdit{}.IsEmpty())
}

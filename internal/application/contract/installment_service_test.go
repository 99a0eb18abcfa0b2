package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInstallmentService_Pay(t *testing.T) {
	ctx := context.Background()

	t.Run("partial payment keeps the contract active", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "10000", "0", 10, day(2024, 1, 1))
		schedule := scheduleOf(t, c)
		inst := schedule[0]

		f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)
		f.installments.On("ApplyPayment", mock.Anything, mock.MatchedBy(func(i *contract.Installment) bool {
			return i.Status == contract.InstallmentStatusPartial && i.PaidAmount.Equal(dec("500"))
		})).Return(nil)
		f.contracts.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		f.installments.On("FindByContract", mock.Anything, c.ID).Return(schedule, nil)

		amount := dec("500")
		resp, err := f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{Amount: &amount})
		require.NoError(t, err)

		assert.Equal(t, "partial", resp.Installment.Status)
		assert.True(t, resp.Installment.PaidAmount.Equal(dec("500")))
		assert.Equal(t, "cash", resp.Installment.PaymentMethod)
		require.NotNil(t, resp.Installment.PaidDate)
		assert.Equal(t, testNow, *resp.Installment.PaidDate)
		assert.Equal(t, "active", resp.ContractStatus)
		assert.Equal(t, 1, f.locker.count(c.ID))
		assert.Equal(t, []string{contract.EventTypeInstallmentPaid}, f.events.types())
		f.contracts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("paying the last installment completes the contract", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "200", "0", 2, day(2024, 1, 1))
		schedule := scheduleOf(t, c)
		require.NoError(t, schedule[0].ApplyPayment(contract.Payment{}, testNow))
		last := schedule[1]

		afterPayment := append([]contract.Installment{}, schedule...)
		require.NoError(t, afterPayment[1].ApplyPayment(contract.Payment{}, testNow))

		f.installments.On("FindByID", mock.Anything, last.ID).Return(&last, nil)
		f.installments.On("ApplyPayment", mock.Anything, mock.Anything).Return(nil)
		f.contracts.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		f.installments.On("FindByContract", mock.Anything, c.ID).Return(afterPayment, nil)
		f.contracts.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(saved *contract.Contract) bool {
			return saved.Status == contract.ContractStatusCompleted
		})).Return(nil)

		method := "bank_transfer"
		resp, err := f.installmentService().Pay(ctx, last.ID, PayInstallmentRequest{PaymentMethod: method})
		require.NoError(t, err)

		assert.Equal(t, "paid", resp.Installment.Status)
		assert.True(t, resp.Installment.PaidAmount.Equal(dec("100")))
		assert.Equal(t, "bank_transfer", resp.Installment.PaymentMethod)
		assert.Equal(t, "completed", resp.ContractStatus)
		assert.Equal(t, []string{contract.EventTypeContractCompleted, contract.EventTypeInstallmentPaid}, f.events.types())
	})

	t.Run("already paid installment is a conflict without mutation", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "100", "0", 1, day(2024, 1, 1))
		inst := scheduleOf(t, c)[0]
		require.NoError(t, inst.ApplyPayment(contract.Payment{}, testNow))
		f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)

		_, err := f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{})
		assert.ErrorIs(t, err, contract.ErrAlreadyPaid)
		f.installments.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything)
		assert.Empty(t, f.events.types())
	})

	t.Run("losing the conditional update reports already paid", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "100", "0", 1, day(2024, 1, 1))
		inst := scheduleOf(t, c)[0]
		f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)
		f.installments.On("ApplyPayment", mock.Anything, mock.Anything).Return(contract.ErrAlreadyPaid)

		_, err := f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{})
		assert.ErrorIs(t, err, contract.ErrAlreadyPaid)
		assert.Empty(t, f.events.types())
		f.contracts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown installment is not found", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.installments.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := f.installmentService().Pay(ctx, id, PayInstallmentRequest{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("invalid amount and method are rejected", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "100", "0", 1, day(2024, 1, 1))
		inst := scheduleOf(t, c)[0]
		f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)

		negative := dec("-1")
		_, err := f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{Amount: &negative})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)

		_, err = f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{PaymentMethod: "bitcoin"})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PAYMENT_METHOD", domainErr.Code)
		f.installments.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything)
	})

	t.Run("status refresh failure does not fail the payment", func(t *testing.T) {
		f := newFixture()
		c := newContract(t, "100", "0", 1, day(2024, 1, 1))
		schedule := scheduleOf(t, c)
		inst := schedule[0]
		paid := append([]contract.Installment{}, schedule...)
		require.NoError(t, paid[0].ApplyPayment(contract.Payment{}, testNow))

		f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)
		f.installments.On("ApplyPayment", mock.Anything, mock.Anything).Return(nil)
		f.contracts.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		f.installments.On("FindByContract", mock.Anything, c.ID).Return(paid, nil)
		f.contracts.On("SaveWithLock", mock.Anything, mock.Anything).Return(errors.New("db down"))

		resp, err := f.installmentService().Pay(ctx, inst.ID, PayInstallmentRequest{})
		require.NoError(t, err)
		assert.Equal(t, "paid", resp.Installment.Status)
		assert.Equal(t, []string{contract.EventTypeInstallmentPaid}, f.events.types())
	})
}

func TestInstallmentService_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes when rows changed", func(t *testing.T) {
		f := newFixture()
		f.expectSweep(3)

		n, err := f.installmentService().Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, []string{contract.EventTypeInstallmentsMarkedOverdue}, f.events.types())
	})

	t.Run("second sweep is a silent no-op", func(t *testing.T) {
		f := newFixture()
		f.expectSweep(0)

		n, err := f.installmentService().Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, f.events.types())
	})
}

func TestInstallmentService_List(t *testing.T) {
	f := newFixture()
	f.expectSweep(0)
	contractID := uuid.New()
	from := day(2024, 1, 1)
	f.installments.On("FindAll", mock.Anything, mock.MatchedBy(func(filter contract.InstallmentFilter) bool {
		return filter.OrderBy == "due_date" && filter.OrderDir == "asc" &&
			len(filter.Statuses) == 2 && filter.ContractID != nil && *filter.ContractID == contractID &&
			filter.DueFrom != nil && filter.DueFrom.Equal(from)
	})).Return([]contract.Installment{}, int64(0), nil)

	page, err := f.installmentService().List(context.Background(), InstallmentListFilter{
		Status:     []string{"unpaid", "overdue"},
		ContractID: contractID.String(),
		DueFrom:    &from,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	f.installments.AssertExpectations(t)

	_, err = f.installmentService().List(context.Background(), InstallmentListFilter{Status: []string{"lost"}})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATUS", domainErr.Code)
}

func TestInstallmentService_Upcoming_UsesReminderWindow(t *testing.T) {
	f := newFixture()
	settings := setting.Merge([]setting.Setting{{Key: setting.KeyReminderDaysBefore, Value: 3}})
	f.deps.Settings = staticSettings(settings)
	f.expectSweep(0)
	f.installments.On("FindAll", mock.Anything, mock.MatchedBy(func(filter contract.InstallmentFilter) bool {
		return len(filter.Statuses) == 1 && filter.Statuses[0] == contract.InstallmentStatusUnpaid &&
			filter.DueFrom.Equal(testNow) && filter.DueTo.Equal(testNow.Add(3*24*time.Hour))
	})).Return([]contract.Installment{}, int64(0), nil)

	_, err := f.installmentService().Upcoming(context.Background())
	require.NoError(t, err)
	f.installments.AssertExpectations(t)
}

func TestInstallmentService_Update(t *testing.T) {
	f := newFixture()
	c := newContract(t, "100", "0", 1, day(2024, 1, 1))
	inst := scheduleOf(t, c)[0]
	f.installments.On("FindByID", mock.Anything, inst.ID).Return(&inst, nil)
	f.installments.On("UpdateDetails", mock.Anything, inst.ID, mock.MatchedBy(func(e contract.InstallmentEdit) bool {
		return e.Notes != nil && *e.Notes == "called customer" &&
			e.DueDate != nil && e.DueDate.Equal(day(2024, 2, 1)) && e.PaymentMethod == nil
	}), testNow).Return(nil)

	notes := "called customer"
	due := day(2024, 2, 1)
	resp, err := f.installmentService().Update(context.Background(), inst.ID, UpdateInstallmentRequest{Notes: &notes, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "unpaid", resp.Status)
	assert.Equal(t, "called customer", resp.Notes)
	f.installments.AssertExpectations(t)
	f.installments.AssertNumberOfCalls(t, "FindByID", 2)
}

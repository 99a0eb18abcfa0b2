package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormContractRepository_NextContractNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	number, err := repo.NextContractNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CNT-000001", number)

	cust := seedCustomer(t, db, "Ahmed", "0100", "")
	seedContract(t, db, cust.ID, "100", "0", 1, day(2024, 1, 1))
	seedContract(t, db, cust.ID, "100", "0", 1, day(2024, 1, 1))

	number, err = repo.NextContractNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CNT-000003", number)

	found, err := repo.FindByNumber(ctx, "cnt-000002")
	require.NoError(t, err)
	assert.Equal(t, "CNT-000002", found.ContractNumber)
}

func TestGormContractRepository_NextContractNumberPastSixDigits(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	cust := seedCustomer(t, db, "Ahmed", "0100", "")
	for _, seq := range []int64{999999, 1000005} {
		c, err := contract.NewContract(cust.ID, contract.FormatContractNumber(seq), contract.Terms{
			TotalAmount:          dec("100"),
			DownPayment:          dec("0"),
			NumberOfInstallments: 1,
			StartDate:            day(2024, 1, 1),
		}, "", testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	number, err := repo.NextContractNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CNT-1000006", number)
}

func TestGormContractRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	alice := seedCustomer(t, db, "Alice", "0100", "")
	bob := seedCustomer(t, db, "Bob", "0200", "")
	seedContract(t, db, alice.ID, "100", "0", 1, day(2024, 1, 1))
	c2, _ := seedContract(t, db, alice.ID, "200", "0", 2, day(2024, 1, 1))
	seedContract(t, db, bob.ID, "300", "0", 3, day(2024, 1, 1))

	require.NoError(t, c2.Cancel(testNow))
	require.NoError(t, repo.SaveWithLock(ctx, c2))

	list, total, err := repo.FindAll(ctx, contract.ContractFilter{CustomerID: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	cancelled := contract.ContractStatusCancelled
	list, total, err = repo.FindAll(ctx, contract.ContractFilter{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c2.ID, list[0].ID)

	_, total, err = repo.FindAll(ctx, contract.ContractFilter{Filter: shared.Filter{Search: "000003"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[contract.ContractStatusActive])
	assert.Equal(t, int64(1), counts[contract.ContractStatusCancelled])

	n, err := repo.CountByCustomer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	byCustomer, err := repo.FindByCustomer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)
}

func TestGormContractRepository_SaveWithLock_StaleVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	cust := seedCustomer(t, db, "Ahmed", "0100", "")
	c, _ := seedContract(t, db, cust.ID, "100", "0", 1, day(2024, 1, 1))

	first, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)

	desc := "first writer"
	require.NoError(t, first.UpdateDetails(&desc, nil, testNow))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	desc = "second writer"
	require.NoError(t, second.UpdateDetails(&desc, nil, testNow))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Description)
	assert.Equal(t, 2, stored.Version)
}

func TestGormTransactionScope_CascadeDelete(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	cust := seedCustomer(t, db, "Ahmed", "0100", "")
	c, _ := seedContract(t, db, cust.ID, "300", "0", 3, day(2024, 1, 1))

	t.Run("rolls back when a step fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos contract.TransactionalRepositories) error {
			if _, err := repos.Installments().DeleteByContract(ctx, c.ID); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		remaining, err := NewGormInstallmentRepository(db).FindByContract(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, remaining, 3)
	})

	t.Run("commits installments and contract together", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos contract.TransactionalRepositories) error {
			if _, err := repos.Installments().DeleteByContract(ctx, c.ID); err != nil {
				return err
			}
			return repos.Contracts().Delete(ctx, c.ID)
		})
		require.NoError(t, err)

		_, err = NewGormContractRepository(db).FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		remaining, err := NewGormInstallmentRepository(db).FindByContract(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("missing contract", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos contract.TransactionalRepositories) error {
			return repos.Contracts().Delete(ctx, uuid.New())
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

package persistence

import (
	"context"

	"github.com/installments/backend/internal/domain/contract"
	"gorm.io/gorm"
)

// GormTransactionScope implements contract.TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos contract.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Contracts returns the contract repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Contracts() contract.ContractRepository {
	return NewGormContractRepository(r.tx)
}

// Installments returns the installment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Installments() contract.InstallmentRepository {
	return NewGormInstallmentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ contract.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ contract.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

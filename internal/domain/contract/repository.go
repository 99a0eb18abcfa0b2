package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
)

// ContractFilter defines filtering options for contract queries
type ContractFilter struct {
	shared.Filter
	CustomerID *uuid.UUID      // Filter by customer
	Status     *ContractStatus // Filter by status
}

// InstallmentFilter defines filtering options for installment queries
type InstallmentFilter struct {
	shared.Filter
	Statuses   []InstallmentStatus // Filter by any of these statuses
	ContractID *uuid.UUID          // Filter by contract
	CustomerID *uuid.UUID          // Filter by the contract's customer
	DueFrom    *time.Time          // Due date range start (inclusive)
	DueTo      *time.Time          // Due date range end (inclusive)
	DueBefore  *time.Time          // Due strictly before
}

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	// FindByID finds a contract by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByNumber finds a contract by its contract number
	FindByNumber(ctx context.Context, number string) (*Contract, error)

	// FindAll finds contracts with filtering and returns the total match count
	FindAll(ctx context.Context, filter ContractFilter) ([]Contract, int64, error)

	// FindByCustomer finds all contracts of a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Contract, error)

	// Save creates or updates a contract
	Save(ctx context.Context, contract *Contract) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, contract *Contract) error

	// Delete deletes a contract row
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByCustomer counts contracts owned by a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// CountByStatus counts contracts grouped by status
	CountByStatus(ctx context.Context) (map[ContractStatus]int64, error)

	// NextContractNumber returns the next free sequential contract number
	NextContractNumber(ctx context.Context) (string, error)
}

// InstallmentRepository defines the interface for installment persistence
type InstallmentRepository interface {
	// FindByID finds an installment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)

	// FindByContract finds every installment of a contract ordered by number
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]Installment, error)

	// FindAll finds installments with filtering and returns the total match count
	FindAll(ctx context.Context, filter InstallmentFilter) ([]Installment, int64, error)

	// SaveBatch inserts installments in one statement
	SaveBatch(ctx context.Context, installments []Installment) error

	// UpdateDetails writes only the fields edit sets. NOT_FOUND when the row is gone.
	UpdateDetails(ctx context.Context, id uuid.UUID, edit InstallmentEdit, updatedAt time.Time) error

	// ApplyPayment persists a payment with a conditional write that only
	// matches while the stored status is not paid. Returns an ALREADY_PAID
	// domain error when another payment won, NOT_FOUND when the row is gone.
	ApplyPayment(ctx context.Context, installment *Installment) error

	// MarkOverdue flips every unpaid installment due before now to overdue
	// and returns how many rows changed
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	// DeleteByIDs deletes the given installments
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// DeleteByContract deletes every installment of a contract
	DeleteByContract(ctx context.Context, contractID uuid.UUID) (int64, error)
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	Contracts() ContractRepository
	Installments() InstallmentRepository
}

// TransactionScope runs a function atomically; any error rolls everything back
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// ErrContractBusy is returned when the contract lock could not be taken in time
var ErrContractBusy = shared.NewDomainError("CONTRACT_BUSY", "Contract is being modified by another request, retry later")

// ContractLocker serializes schedule-changing operations per contract
type ContractLocker interface {
	// Lock blocks until the contract's lock is held or ctx is done.
	// The returned func releases the lock.
	Lock(ctx context.Context, contractID uuid.UUID) (unlock func(), err error)
}

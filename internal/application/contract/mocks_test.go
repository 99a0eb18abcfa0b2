package contract

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockContractRepository is a mock implementation of contract.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, filter contract.ContractFilter) ([]contract.Contract, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]contract.Contract), args.Get(1).(int64), args.Error(2)
}

func (m *MockContractRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]contract.Contract, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContractRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContractRepository) CountByStatus(ctx context.Context) (map[contract.ContractStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[contract.ContractStatus]int64), args.Error(1)
}

func (m *MockContractRepository) NextContractNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockInstallmentRepository is a mock implementation of contract.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service cannot mutate the fixture
	inst := *args.Get(0).(*contract.Installment)
	return &inst, args.Error(1)
}

func (m *MockInstallmentRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]contract.Installment, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]contract.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindAll(ctx context.Context, filter contract.InstallmentFilter) ([]contract.Installment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]contract.Installment), args.Get(1).(int64), args.Error(2)
}

func (m *MockInstallmentRepository) SaveBatch(ctx context.Context, installments []contract.Installment) error {
	return m.Called(ctx, installments).Error(0)
}

func (m *MockInstallmentRepository) UpdateDetails(ctx context.Context, id uuid.UUID, edit contract.InstallmentEdit, updatedAt time.Time) error {
	return m.Called(ctx, id, edit, updatedAt).Error(0)
}

func (m *MockInstallmentRepository) ApplyPayment(ctx context.Context, inst *contract.Installment) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstallmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInstallmentRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInstallmentRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCustomerLookup is a mock implementation of CustomerLookup
type MockCustomerLookup struct {
	mock.Mock
}

func (m *MockCustomerLookup) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

// =============================================================================
// Fakes
// =============================================================================

// fakeTxScope runs the function against the mocks; a returned error stands
// for a rollback
type fakeTxScope struct {
	contracts    *MockContractRepository
	installments *MockInstallmentRepository
	calls        int
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos contract.TransactionalRepositories) error) error {
	s.calls++
	return fn(s)
}

func (s *fakeTxScope) Contracts() contract.ContractRepository       { return s.contracts }
func (s *fakeTxScope) Installments() contract.InstallmentRepository { return s.installments }

type countingLocker struct {
	mu     sync.Mutex
	locked map[uuid.UUID]int
	err    error
}

func (l *countingLocker) Lock(_ context.Context, id uuid.UUID) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked == nil {
		l.locked = make(map[uuid.UUID]int)
	}
	l.locked[id]++
	return func() {}, nil
}

func (l *countingLocker) count(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked[id]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, ev := range p.events {
		types[i] = ev.EventType()
	}
	return types
}

type staticSettings setting.Settings

func (s staticSettings) Current(context.Context) (setting.Settings, error) {
	return setting.Settings(s), nil
}

// =============================================================================
// Fixture
// =============================================================================

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	contracts    *MockContractRepository
	installments *MockInstallmentRepository
	customers    *MockCustomerLookup
	tx           *fakeTxScope
	locker       *countingLocker
	events       *recordingPublisher
	clock        *shared.FixedClock
	deps         Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		contracts:    new(MockContractRepository),
		installments: new(MockInstallmentRepository),
		customers:    new(MockCustomerLookup),
		locker:       &countingLocker{},
		events:       &recordingPublisher{},
		clock:        shared.NewFixedClock(testNow),
	}
	f.tx = &fakeTxScope{contracts: f.contracts, installments: f.installments}
	f.deps = Dependencies{
		Contracts:    f.contracts,
		Installments: f.installments,
		Customers:    f.customers,
		Settings:     staticSettings(setting.Merge(nil)),
		Tx:           f.tx,
		Locker:       f.locker,
		Events:       f.events,
		Clock:        f.clock,
	}
	return f
}

func (f *fixture) contractService() *ContractService {
	return NewContractService(f.deps, nil)
}

func (f *fixture) installmentService() *InstallmentService {
	return NewInstallmentService(f.deps, nil)
}

// expectSweep makes the overdue sweep report changed rows
func (f *fixture) expectSweep(changed int64) {
	f.installments.On("MarkOverdue", mock.Anything, testNow).Return(changed, nil)
}

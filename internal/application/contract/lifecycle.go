package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerLookup resolves contract owners
type CustomerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

// SettingsProvider returns the effective settings
type SettingsProvider interface {
	Current(ctx context.Context) (setting.Settings, error)
}

// Dependencies are the collaborators shared by the contract and installment services
type Dependencies struct {
	Contracts    contract.ContractRepository
	Installments contract.InstallmentRepository
	Customers    CustomerLookup
	Settings     SettingsProvider
	Tx           contract.TransactionScope
	Locker       contract.ContractLocker
	Events       shared.EventPublisher
	Clock        shared.Clock
	Logger       *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Clock == nil {
		d.Clock = shared.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Lifecycle owns the time-driven and aggregate-level state changes: the
// overdue sweep and the contract status refresh
type Lifecycle struct {
	contracts    contract.ContractRepository
	installments contract.InstallmentRepository
	events       shared.EventPublisher
	clock        shared.Clock
	logger       *zap.Logger
}

// NewLifecycle creates a Lifecycle
func NewLifecycle(deps Dependencies) *Lifecycle {
	deps = deps.withDefaults()
	return &Lifecycle{
		contracts:    deps.Contracts,
		installments: deps.Installments,
		events:       deps.Events,
		clock:        deps.Clock,
		logger:       deps.Logger.Named("lifecycle"),
	}
}

// Sweep marks every unpaid installment due before now as overdue and
// returns how many changed. Running it twice changes nothing the second time.
func (l *Lifecycle) Sweep(ctx context.Context) (int64, error) {
	now := l.clock.Now()
	count, err := l.installments.MarkOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("mark overdue installments: %w", err)
	}
	if count > 0 {
		l.logger.Debug("installments marked overdue", zap.Int64("count", count))
		l.publish(ctx, contract.NewInstallmentsMarkedOverdueEvent(count, now))
	}
	return count, nil
}

// RefreshStatus completes the contract once every installment is paid.
// A concurrent contract edit is retried once against the fresh row.
func (l *Lifecycle) RefreshStatus(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		c, err := l.refreshOnce(ctx, contractID, l.clock.Now())
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (l *Lifecycle) refreshOnce(ctx context.Context, contractID uuid.UUID, now time.Time) (*contract.Contract, error) {
	c, err := l.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	installments, err := l.installments.FindByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !c.RefreshStatus(installments, now) {
		return c, nil
	}
	if err := l.contracts.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	l.publish(ctx, c.PullEvents()...)
	return c, nil
}

// publish hands committed events to the bus. Subscribers never fail the caller.
func (l *Lifecycle) publish(ctx context.Context, events ...shared.DomainEvent) {
	publishEvents(ctx, l.events, l.logger, events...)
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("publish events failed", zap.Int("count", len(events)), zap.Error(err))
	}
}

package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// contractNumberAttempts bounds retries when a parallel create took the same number
const contractNumberAttempts = 3

// ContractService handles contract business operations
type ContractService struct {
	contracts    contract.ContractRepository
	installments contract.InstallmentRepository
	customers    CustomerLookup
	tx           contract.TransactionScope
	locker       contract.ContractLocker
	lifecycle    *Lifecycle
	events       shared.EventPublisher
	clock        shared.Clock
	logger       *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(deps Dependencies, lifecycle *Lifecycle) *ContractService {
	deps = deps.withDefaults()
	if lifecycle == nil {
		lifecycle = NewLifecycle(deps)
	}
	return &ContractService{
		contracts:    deps.Contracts,
		installments: deps.Installments,
		customers:    deps.Customers,
		tx:           deps.Tx,
		locker:       deps.Locker,
		lifecycle:    lifecycle,
		events:       deps.Events,
		clock:        deps.Clock,
		logger:       deps.Logger.Named("contract_service"),
	}
}

// Create creates a contract and generates its full schedule in one transaction
func (s *ContractService) Create(ctx context.Context, req CreateContractRequest) (resp *ContractDetailResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ContractService", "Create",
		attribute.String("customer.id", req.CustomerID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	terms := contract.Terms{
		TotalAmount:          req.TotalAmount,
		DownPayment:          req.DownPayment,
		NumberOfInstallments: req.NumberOfInstallments,
		StartDate:            req.StartDate,
	}
	if err = terms.Validate(); err != nil {
		return nil, err
	}
	if _, err = s.customers.FindByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Customer not found")
		}
		return nil, err
	}

	var (
		c        *contract.Contract
		schedule []contract.Installment
	)
	for attempt := 1; attempt <= contractNumberAttempts; attempt++ {
		now := s.clock.Now()
		err = s.tx.Execute(ctx, func(repos contract.TransactionalRepositories) error {
			number, err := repos.Contracts().NextContractNumber(ctx)
			if err != nil {
				return fmt.Errorf("next contract number: %w", err)
			}
			c, err = contract.NewContract(req.CustomerID, number, terms, req.Description, now)
			if err != nil {
				return err
			}
			schedule, err = contract.GenerateSchedule(c, now)
			if err != nil {
				return err
			}
			if err := repos.Contracts().Save(ctx, c); err != nil {
				return err
			}
			return repos.Installments().SaveBatch(ctx, schedule)
		})
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) {
			break
		}
		s.logger.Warn("contract number taken, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract created",
		zap.String("contract_id", c.ID.String()),
		zap.String("contract_number", c.ContractNumber),
		zap.Int("installments", len(schedule)),
	)
	publishEvents(ctx, s.events, s.logger, c.PullEvents()...)

	return &ContractDetailResponse{
		ContractResponse: ToContractResponse(c),
		Installments:     ToInstallmentResponses(schedule, s.clock.Now()),
	}, nil
}

// List lists contracts, newest first
func (s *ContractService) List(ctx context.Context, f ContractListFilter) (*shared.Paginated[ContractResponse], error) {
	filter := contract.ContractFilter{Filter: pageFilter(f.Page, f.PageSize)}
	filter.Search = f.Search
	customerID, err := optionalID("customer_id", f.CustomerID)
	if err != nil {
		return nil, err
	}
	filter.CustomerID = customerID
	if f.Status != "" {
		status := contract.ContractStatus(f.Status)
		filter.Status = &status
	}

	contracts, total, err := s.contracts.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToContractResponses(contracts), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns a contract with its installments
func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*ContractDetailResponse, error) {
	c, installments, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContractDetailResponse{
		ContractResponse: ToContractResponse(c),
		Installments:     ToInstallmentResponses(installments, s.clock.Now()),
	}, nil
}

// Summary returns the contract, its installments and their aggregate counts
func (s *ContractService) Summary(ctx context.Context, id uuid.UUID) (*ContractSummaryResponse, error) {
	c, installments, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContractSummaryResponse{
		Contract:     ToContractResponse(c),
		Installments: ToInstallmentResponses(installments, s.clock.Now()),
		Summary:      Summarize(installments),
	}, nil
}

// load sweeps, then reads a contract and its installments
func (s *ContractService) load(ctx context.Context, id uuid.UUID) (*contract.Contract, []contract.Installment, error) {
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		return nil, nil, err
	}
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	installments, err := s.installments.FindByContract(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return c, installments, nil
}

// Update applies a generic edit. Term fields never reach the contract here,
// so the schedule is left untouched.
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	if req.TotalAmount != nil || req.DownPayment != nil || req.Count != nil || req.StartDate != nil {
		s.logger.Debug("ignoring term fields on contract update", zap.String("contract_id", id.String()))
	}

	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var status *contract.ContractStatus
	if req.Status != nil {
		st := contract.ContractStatus(*req.Status)
		status = &st
	}
	if err := c.UpdateDetails(req.Description, status, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.contracts.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	resp := ToContractResponse(c)
	return &resp, nil
}

// Cancel cancels a contract; its installments are kept
func (s *ContractService) Cancel(ctx context.Context, id uuid.UUID) (*ContractResponse, error) {
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Cancel(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.contracts.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("contract cancelled", zap.String("contract_id", id.String()))

	resp := ToContractResponse(c)
	return &resp, nil
}

// Regenerate changes the contract's amount terms and rebuilds the unpaid tail
// of its schedule. Paid installments are kept. The contract lock keeps
// payments on the same contract out while the tail is replaced.
func (s *ContractService) Regenerate(ctx context.Context, id uuid.UUID, req RegenerateScheduleRequest) (resp *RegenerateScheduleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ContractService", "Regenerate",
		attribute.String("contract.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err = c.ChangeTerms(req.TotalAmount, req.DownPayment, req.NumberOfInstallments, now); err != nil {
		return nil, err
	}
	existing, err := s.installments.FindByContract(ctx, id)
	if err != nil {
		return nil, err
	}
	plan := contract.PlanRegeneration(c, existing, now)

	err = s.tx.Execute(ctx, func(repos contract.TransactionalRepositories) error {
		if _, err := repos.Installments().DeleteByIDs(ctx, plan.Removed); err != nil {
			return fmt.Errorf("delete unpaid installments: %w", err)
		}
		if err := repos.Installments().SaveBatch(ctx, plan.Created); err != nil {
			return err
		}
		return repos.Contracts().SaveWithLock(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	if plan.IsNoop() {
		s.logger.Info("schedule regeneration created nothing; every installment is paid",
			zap.String("contract_id", id.String()), zap.Int("removed", len(plan.Removed)))
	}
	publishEvents(ctx, s.events, s.logger, contract.NewScheduleRegeneratedEvent(c, plan, now))

	installments := append(append([]contract.Installment{}, plan.Kept...), plan.Created...)
	return &RegenerateScheduleResponse{
		Contract:     ToContractResponse(c),
		Removed:      len(plan.Removed),
		Created:      len(plan.Created),
		TotalPaid:    plan.TotalPaid,
		Installments: ToInstallmentResponses(installments, now),
	}, nil
}

// Delete removes a contract and all of its installments atomically
func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ContractService", "Delete",
		attribute.String("contract.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	var removed int64
	err = s.tx.Execute(ctx, func(repos contract.TransactionalRepositories) error {
		var err error
		if removed, err = repos.Installments().DeleteByContract(ctx, id); err != nil {
			return fmt.Errorf("delete installments: %w", err)
		}
		return repos.Contracts().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("contract deleted", zap.String("contract_id", id.String()), zap.Int64("installments", removed))
	return nil
}

// optionalID parses an optional UUID query value
func optionalID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid %s: %s", field, value))
	}
	return &id, nil
}

func pageFilter(page, pageSize int) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	return filter
}

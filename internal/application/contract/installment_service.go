package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// defaultReminderDays is used when settings cannot be read
const defaultReminderDays = 7

// InstallmentService handles installment queries, edits and payments
type InstallmentService struct {
	contracts    contract.ContractRepository
	installments contract.InstallmentRepository
	settings     SettingsProvider
	locker       contract.ContractLocker
	lifecycle    *Lifecycle
	events       shared.EventPublisher
	clock        shared.Clock
	logger       *zap.Logger
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(deps Dependencies, lifecycle *Lifecycle) *InstallmentService {
	deps = deps.withDefaults()
	if lifecycle == nil {
		lifecycle = NewLifecycle(deps)
	}
	return &InstallmentService{
		contracts:    deps.Contracts,
		installments: deps.Installments,
		settings:     deps.Settings,
		locker:       deps.Locker,
		lifecycle:    lifecycle,
		events:       deps.Events,
		clock:        deps.Clock,
		logger:       deps.Logger.Named("installment_service"),
	}
}

// Sweep runs the overdue sweep on demand
func (s *InstallmentService) Sweep(ctx context.Context) (int64, error) {
	return s.lifecycle.Sweep(ctx)
}

// List lists installments, earliest due date first. The overdue sweep runs first.
func (s *InstallmentService) List(ctx context.Context, f InstallmentListFilter) (*shared.Paginated[InstallmentResponse], error) {
	statuses, err := parseStatuses(f.Status)
	if err != nil {
		return nil, err
	}
	contractID, err := optionalID("contract_id", f.ContractID)
	if err != nil {
		return nil, err
	}
	customerID, err := optionalID("customer_id", f.CustomerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		return nil, err
	}

	filter := contract.InstallmentFilter{
		Filter:     pageFilter(f.Page, f.PageSize),
		Statuses:   statuses,
		ContractID: contractID,
		CustomerID: customerID,
		DueFrom:    f.DueFrom,
		DueTo:      f.DueTo,
	}
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"

	installments, total, err := s.installments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToInstallmentResponses(installments, s.clock.Now()), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one installment
func (s *InstallmentService) Get(ctx context.Context, id uuid.UUID) (*InstallmentResponse, error) {
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		return nil, err
	}
	inst, err := s.installments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInstallmentResponse(inst, s.clock.Now())
	return &resp, nil
}

// Update edits due date, notes and payment method. Amount and status are not
// editable. Only the fields present in req are written.
func (s *InstallmentService) Update(ctx context.Context, id uuid.UUID, req UpdateInstallmentRequest) (*InstallmentResponse, error) {
	inst, err := s.installments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	edit := contract.InstallmentEdit{DueDate: req.DueDate, Notes: req.Notes}
	if req.PaymentMethod != nil {
		m := contract.PaymentMethod(*req.PaymentMethod)
		edit.PaymentMethod = &m
	}
	now := s.clock.Now()
	if err := inst.UpdateDetails(edit, now); err != nil {
		return nil, err
	}
	if !edit.IsEmpty() {
		if err := s.installments.UpdateDetails(ctx, id, edit, now); err != nil {
			return nil, err
		}
		// a payment may have landed since the first read
		if inst, err = s.installments.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}
	resp := ToInstallmentResponse(inst, now)
	return &resp, nil
}

// Pay records a payment on an installment.
//
// The payment is written with a conditional update that only matches while
// the stored status is not paid, so of several concurrent payments exactly
// one succeeds and the others get ALREADY_PAID. Once committed, the contract
// status is refreshed and InstallmentPaid is published; neither step can
// fail the payment.
func (s *InstallmentService) Pay(ctx context.Context, id uuid.UUID, req PayInstallmentRequest) (resp *PaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InstallmentService", "Pay",
		attribute.String("installment.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	inst, err := s.installments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.IsPaid() {
		return nil, alreadyPaid(inst)
	}

	unlock, err := s.locker.Lock(ctx, inst.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; a regeneration may have replaced the row
	inst, err = s.installments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := contract.Payment{
		Amount: req.Amount,
		Method: contract.PaymentMethod(req.PaymentMethod),
		Notes:  req.Notes,
	}
	if err = inst.ApplyPayment(payment, now); err != nil {
		return nil, err
	}
	if err = s.installments.ApplyPayment(ctx, inst); err != nil {
		return nil, err
	}

	s.logger.Info("installment paid",
		zap.String("installment_id", inst.ID.String()),
		zap.String("contract_id", inst.ContractID.String()),
		zap.String("status", inst.Status.String()),
		zap.String("paid_amount", inst.PaidAmount.StringFixed(2)),
	)
	return &PaymentResponse{
		Installment:    ToInstallmentResponse(inst, now),
		ContractStatus: s.afterPayment(ctx, inst, now),
	}, nil
}

// afterPayment refreshes the contract status and publishes InstallmentPaid.
// It returns the contract status, or "" when the contract could not be read.
func (s *InstallmentService) afterPayment(ctx context.Context, inst *contract.Installment, now time.Time) string {
	c, err := s.lifecycle.RefreshStatus(ctx, inst.ContractID)
	if err != nil {
		s.logger.Error("refresh contract status after payment failed",
			zap.String("contract_id", inst.ContractID.String()), zap.Error(err))
		c, err = s.contracts.FindByID(ctx, inst.ContractID)
		if err != nil {
			return ""
		}
	}
	publishEvents(ctx, s.events, s.logger, contract.NewInstallmentPaidEvent(inst, c.CustomerID, now))
	return c.Status.String()
}

// Overdue lists unpaid and overdue installments due before now
func (s *InstallmentService) Overdue(ctx context.Context) ([]InstallmentResponse, error) {
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	filter := contract.InstallmentFilter{
		Statuses:  []contract.InstallmentStatus{contract.InstallmentStatusUnpaid, contract.InstallmentStatusOverdue},
		DueBefore: &now,
	}
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"
	installments, _, err := s.installments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToInstallmentResponses(installments, now), nil
}

// Upcoming lists unpaid installments due within the reminder window
func (s *InstallmentService) Upcoming(ctx context.Context) ([]InstallmentResponse, error) {
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	until := now.AddDate(0, 0, s.reminderDays(ctx))
	filter := contract.InstallmentFilter{
		Statuses: []contract.InstallmentStatus{contract.InstallmentStatusUnpaid},
		DueFrom:  &now,
		DueTo:    &until,
	}
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"
	installments, _, err := s.installments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToInstallmentResponses(installments, now), nil
}

func (s *InstallmentService) reminderDays(ctx context.Context) int {
	if s.settings == nil {
		return defaultReminderDays
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.logger.Warn("read settings failed, using default reminder window", zap.Error(err))
		return defaultReminderDays
	}
	return settings.ReminderDaysBefore()
}

func parseStatuses(values []string) ([]contract.InstallmentStatus, error) {
	statuses := make([]contract.InstallmentStatus, 0, len(values))
	for _, v := range values {
		st := contract.InstallmentStatus(v)
		if !st.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid installment status: %s", v))
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func alreadyPaid(inst *contract.Installment) error {
	return shared.NewDomainError("ALREADY_PAID", fmt.Sprintf("Installment #%d is already paid", inst.InstallmentNumber))
}

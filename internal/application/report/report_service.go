package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/report"
	"github.com/installments/backend/internal/domain/setting"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// recentPaymentsLimit is how many payments the dashboard lists
const recentPaymentsLimit = 5

// Sweeper flips past-due installments to overdue before a report is read
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CustomerCounter counts customers
type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// SettingsProvider returns the effective settings
type SettingsProvider interface {
	Current(ctx context.Context) (setting.Settings, error)
}

// InstallmentReportQuery narrows the installments report
type InstallmentReportQuery struct {
	ContractID string     `form:"contract_id" binding:"omitempty,uuid"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	DueFrom    *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo      *time.Time `form:"due_to" time_format:"2006-01-02"`
}

// CustomersReport lists every customer's balance with portfolio totals
type CustomersReport struct {
	Customers        []report.CustomerBalance `json:"customers"`
	TotalCustomers   int                      `json:"total_customers"`
	TotalValue       decimal.Decimal          `json:"total_value"`
	TotalPaid        decimal.Decimal          `json:"total_paid"`
	TotalOutstanding decimal.Decimal          `json:"total_outstanding"`
}

// ReportService builds the read-only reports. Every report sweeps overdue
// installments first so statuses are current.
type ReportService struct {
	repo      report.ReportRepository
	customers CustomerCounter
	sweeper   Sweeper
	settings  SettingsProvider
	clock     shared.Clock
	logger    *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo report.ReportRepository, customers CustomerCounter, sweeper Sweeper, settings SettingsProvider, clock shared.Clock, logger *zap.Logger) *ReportService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		customers: customers,
		sweeper:   sweeper,
		settings:  settings,
		clock:     clock,
		logger:    logger.Named("report_service"),
	}
}

// Dashboard returns the portfolio overview
func (s *ReportService) Dashboard(ctx context.Context) (summary *report.DashboardSummary, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ReportService", "Dashboard")
	defer func() { telemetry.EndSpan(span, err) }()

	if err = s.sweep(ctx); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	contracts, err := s.repo.GetContractTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("contract totals: %w", err)
	}
	totals, err := s.repo.GetInstallmentStatusTotals(ctx, report.InstallmentReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("installment totals: %w", err)
	}
	upcoming, err := s.repo.CountUpcoming(ctx, now, now.AddDate(0, 0, s.reminderDays(ctx)))
	if err != nil {
		return nil, fmt.Errorf("count upcoming: %w", err)
	}
	recent, err := s.repo.GetRecentPayments(ctx, recentPaymentsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent payments: %w", err)
	}
	if recent == nil {
		recent = []report.RecentPayment{}
	}

	return &report.DashboardSummary{
		Customers: customers,
		Contracts: report.ContractCounts{
			Total:     contracts.Total,
			Active:    contracts.Active,
			Completed: contracts.Completed,
			Cancelled: contracts.Cancelled,
		},
		Installments:   report.CountInstallments(totals, upcoming),
		Financial:      report.BuildFinancialSummary(*contracts, totals),
		RecentPayments: recent,
		GeneratedAt:    now,
	}, nil
}

// Installments returns installment counts and sums by status
func (s *ReportService) Installments(ctx context.Context, q InstallmentReportQuery) (*report.InstallmentReport, error) {
	filter := report.InstallmentReportFilter{DueFrom: q.DueFrom, DueTo: q.DueTo}
	var err error
	if filter.ContractID, err = parseID("contract_id", q.ContractID); err != nil {
		return nil, err
	}
	if filter.CustomerID, err = parseID("customer_id", q.CustomerID); err != nil {
		return nil, err
	}
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}

	totals, err := s.repo.GetInstallmentStatusTotals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("installment totals: %w", err)
	}
	return report.BuildInstallmentReport(totals), nil
}

// Customers returns each customer's contract value, payments and balance
func (s *ReportService) Customers(ctx context.Context) (*CustomersReport, error) {
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	balances, err := s.repo.GetCustomerBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer balances: %w", err)
	}

	r := &CustomersReport{
		Customers:        balances,
		TotalCustomers:   len(balances),
		TotalValue:       decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	if r.Customers == nil {
		r.Customers = []report.CustomerBalance{}
	}
	for _, b := range balances {
		r.TotalValue = r.TotalValue.Add(b.TotalValue)
		r.TotalPaid = r.TotalPaid.Add(b.TotalPaid)
		r.TotalOutstanding = r.TotalOutstanding.Add(b.Outstanding)
	}
	return r, nil
}

// Overdue returns overdue installments grouped by customer
func (s *ReportService) Overdue(ctx context.Context, customerID string) (*report.OverdueReport, error) {
	items, err := s.overdueItems(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return report.GroupOverdueByCustomer(items), nil
}

// overdueItems sweeps, then reads overdue installments with their days overdue
func (s *ReportService) overdueItems(ctx context.Context, customerID string) ([]report.OverdueInstallment, error) {
	id, err := parseID("customer_id", customerID)
	if err != nil {
		return nil, err
	}
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	items, err := s.repo.GetOverdueInstallments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("overdue installments: %w", err)
	}
	now := s.clock.Now()
	for i := range items {
		items[i].DaysOverdue = shared.DaysBetween(items[i].DueDate, now)
	}
	return items, nil
}

// Monthly returns the collections of each month of year. Zero means the current year.
func (s *ReportService) Monthly(ctx context.Context, year int) (*report.MonthlyReport, error) {
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if year < 1900 || year > 9999 {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid year: %d", year))
	}
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}

	from, to := report.YearBounds(year, now.Location())
	rows, err := s.repo.GetMonthlyCollections(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly collections: %w", err)
	}
	return report.BuildMonthlyReport(year, rows), nil
}

func (s *ReportService) sweep(ctx context.Context) error {
	if s.sweeper == nil {
		return nil
	}
	_, err := s.sweeper.Sweep(ctx)
	return err
}

func (s *ReportService) reminderDays(ctx context.Context) int {
	if s.settings == nil {
		return setting.Merge(nil).ReminderDaysBefore()
	}
	current, err := s.settings.Current(ctx)
	if err != nil {
		s.logger.Warn("read settings failed, using default reminder window", zap.Error(err))
		return setting.Merge(nil).ReminderDaysBefore()
	}
	return current.ReminderDaysBefore()
}

func parseID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid %s: %s", field, value))
	}
	return &id, nil
}

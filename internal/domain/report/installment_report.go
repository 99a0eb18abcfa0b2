package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardSummary is the landing page overview of the portfolio
type DashboardSummary struct {
	Customers      int64             `json:"customers"`
	Contracts      ContractCounts    `json:"contracts"`
	Installments   InstallmentCounts `json:"installments"`
	Financial      FinancialSummary  `json:"financial"`
	RecentPayments []RecentPayment   `json:"recent_payments"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// ContractCounts counts contracts by status
type ContractCounts struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// InstallmentCounts counts installments by status; Upcoming is the number of
// unpaid installments falling due within the reminder window
type InstallmentCounts struct {
	Total    int64 `json:"total"`
	Paid     int64 `json:"paid"`
	Unpaid   int64 `json:"unpaid"`
	Overdue  int64 `json:"overdue"`
	Partial  int64 `json:"partial"`
	Upcoming int64 `json:"upcoming"`
}

// FinancialSummary aggregates money over all contracts
type FinancialSummary struct {
	TotalContractValue decimal.Decimal `json:"total_contract_value"`
	TotalDownPayments  decimal.Decimal `json:"total_down_payments"`
	TotalCollected     decimal.Decimal `json:"total_collected"` // Paid installments plus down payments
	TotalPending       decimal.Decimal `json:"total_pending"`
	CollectionRate     decimal.Decimal `json:"collection_rate"` // Percentage
}

// ContractTotals are the raw contract aggregates the dashboard is built from
type ContractTotals struct {
	Total              int64
	Active             int64
	Completed          int64
	Cancelled          int64
	TotalContractValue decimal.Decimal
	TotalDownPayments  decimal.Decimal
}

// StatusTotals aggregates installments sharing one status
type StatusTotals struct {
	Status       string          `json:"status"`
	Count        int64           `json:"count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalSettled decimal.Decimal `json:"total_settled"` // Paid amount, or the amount when none was recorded
}

// RecentPayment is one recorded payment shown on the dashboard
type RecentPayment struct {
	InstallmentID     uuid.UUID       `json:"installment_id"`
	InstallmentNumber int             `json:"installment_number"`
	ContractID        uuid.UUID       `json:"contract_id"`
	ContractNumber    string          `json:"contract_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PaymentMethod     string          `json:"payment_method"`
	PaidDate          time.Time       `json:"paid_date"`
}

// InstallmentReport summarizes installments by status
type InstallmentReport struct {
	ByStatus    []StatusTotals  `json:"by_status"`
	TotalCount  int64           `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// CustomerBalance is one row of the customers report
type CustomerBalance struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email,omitempty"`
	ContractCount int64           `json:"contract_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Installments  int64           `json:"installments"`
	PaidCount     int64           `json:"paid_count"`
	OverdueCount  int64           `json:"overdue_count"`
	TotalPaid     decimal.Decimal `json:"total_paid"`  // Settled amount of paid installments
	Outstanding   decimal.Decimal `json:"outstanding"` // Amount of installments not yet paid
}

// OverdueInstallment is an overdue installment joined with its owner
type OverdueInstallment struct {
	InstallmentID     uuid.UUID       `json:"installment_id"`
	InstallmentNumber int             `json:"installment_number"`
	ContractID        uuid.UUID       `json:"contract_id"`
	ContractNumber    string          `json:"contract_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone"`
	CustomerEmail     string          `json:"customer_email,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	DueDate           time.Time       `json:"due_date"`
	DaysOverdue       int             `json:"days_overdue"`
}

// OverdueCustomerGroup collects a customer's overdue installments
type OverdueCustomerGroup struct {
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	Count         int                  `json:"count"`
	TotalOverdue  decimal.Decimal      `json:"total_overdue"`
	Installments  []OverdueInstallment `json:"installments"`
}

// OverdueReport groups overdue installments by customer
type OverdueReport struct {
	Customers    []OverdueCustomerGroup `json:"customers"`
	TotalCount   int                    `json:"total_count"`
	TotalOverdue decimal.Decimal        `json:"total_overdue"`
}

// MonthlyCollection is the money collected in one calendar month
type MonthlyCollection struct {
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Count     int64           `json:"count"`
	Collected decimal.Decimal `json:"collected"`
}

// MonthlyReport is the collection report of one year, one entry per month
type MonthlyReport struct {
	Year      int                 `json:"year"`
	Months    []MonthlyCollection `json:"months"`
	YearTotal decimal.Decimal     `json:"year_total"`
}

// InstallmentReportFilter narrows the installments report
type InstallmentReportFilter struct {
	ContractID *uuid.UUID
	CustomerID *uuid.UUID
	DueFrom    *time.Time
	DueTo      *time.Time
}

// ReportRepository defines the read queries behind the reports
type ReportRepository interface {
	// GetContractTotals returns contract counts by status and money totals
	GetContractTotals(ctx context.Context) (*ContractTotals, error)

	// GetInstallmentStatusTotals returns installment aggregates grouped by status
	GetInstallmentStatusTotals(ctx context.Context, filter InstallmentReportFilter) ([]StatusTotals, error)

	// CountUpcoming counts unpaid installments due in [from, to]
	CountUpcoming(ctx context.Context, from, to time.Time) (int64, error)

	// GetRecentPayments returns the latest payments, newest first
	GetRecentPayments(ctx context.Context, limit int) ([]RecentPayment, error)

	// GetCustomerBalances returns per customer contract value and payments
	GetCustomerBalances(ctx context.Context) ([]CustomerBalance, error)

	// GetOverdueInstallments returns overdue installments ordered by customer and due date
	GetOverdueInstallments(ctx context.Context, customerID *uuid.UUID) ([]OverdueInstallment, error)

	// GetMonthlyCollections groups paid installments by paid date month in [from, to)
	GetMonthlyCollections(ctx context.Context, from, to time.Time) ([]MonthlyCollection, error)
}

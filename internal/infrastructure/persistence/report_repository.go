package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository implements report.ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// GetContractTotals returns contract counts by status and money totals
func (r *GormReportRepository) GetContractTotals(ctx context.Context) (*report.ContractTotals, error) {
	type totalsResult struct {
		Total              int64
		Active             int64
		Completed          int64
		Cancelled          int64
		TotalContractValue decimal.Decimal
		TotalDownPayments  decimal.Decimal
	}

	var result totalsResult
	err := r.db.WithContext(ctx).Table("contracts").
		Select(`
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) as active,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0) as cancelled,
			COALESCE(SUM(total_amount), 0) as total_contract_value,
			COALESCE(SUM(down_payment), 0) as total_down_payments
		`).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &report.ContractTotals{
		Total:              result.Total,
		Active:             result.Active,
		Completed:          result.Completed,
		Cancelled:          result.Cancelled,
		TotalContractValue: result.TotalContractValue,
		TotalDownPayments:  result.TotalDownPayments,
	}, nil
}

// GetInstallmentStatusTotals returns installment aggregates grouped by status
func (r *GormReportRepository) GetInstallmentStatusTotals(ctx context.Context, filter report.InstallmentReportFilter) ([]report.StatusTotals, error) {
	type statusResult struct {
		Status       string
		Count        int64
		TotalAmount  decimal.Decimal
		TotalPaid    decimal.Decimal
		TotalSettled decimal.Decimal
	}

	query := r.db.WithContext(ctx).Table("installments i").
		Select(`
			i.status as status,
			COUNT(*) as count,
			COALESCE(SUM(i.amount), 0) as total_amount,
			COALESCE(SUM(i.paid_amount), 0) as total_paid,
			COALESCE(SUM(CASE WHEN i.paid_amount > 0 THEN i.paid_amount ELSE i.amount END), 0) as total_settled
		`)
	if filter.ContractID != nil {
		query = query.Where("i.contract_id = ?", *filter.ContractID)
	}
	if filter.CustomerID != nil {
		query = query.Joins("JOIN contracts c ON c.id = i.contract_id").
			Where("c.customer_id = ?", *filter.CustomerID)
	}
	if filter.DueFrom != nil {
		query = query.Where("i.due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("i.due_date <= ?", *filter.DueTo)
	}

	var results []statusResult
	if err := query.Group("i.status").Order("i.status").Scan(&results).Error; err != nil {
		return nil, err
	}

	totals := make([]report.StatusTotals, len(results))
	for i, res := range results {
		totals[i] = report.StatusTotals{
			Status:       res.Status,
			Count:        res.Count,
			TotalAmount:  res.TotalAmount,
			TotalPaid:    res.TotalPaid,
			TotalSettled: res.TotalSettled,
		}
	}
	return totals, nil
}

// CountUpcoming counts unpaid installments due in [from, to]
func (r *GormReportRepository) CountUpcoming(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("installments").
		Where("status = ? AND due_date >= ? AND due_date <= ?", "unpaid", from, to).
		Count(&count).Error
	return count, err
}

// GetRecentPayments returns the latest payments, newest first
func (r *GormReportRepository) GetRecentPayments(ctx context.Context, limit int) ([]report.RecentPayment, error) {
	type paymentResult struct {
		InstallmentID     uuid.UUID
		InstallmentNumber int
		ContractID        uuid.UUID
		ContractNumber    string
		CustomerID        uuid.UUID
		CustomerName      string
		PaidAmount        decimal.Decimal
		PaymentMethod     string
		PaidDate          time.Time
	}

	if limit <= 0 {
		limit = 5
	}

	var results []paymentResult
	err := r.db.WithContext(ctx).Table("installments i").
		Select(`
			i.id as installment_id,
			i.installment_number,
			c.id as contract_id,
			c.contract_number,
			cu.id as customer_id,
			cu.name as customer_name,
			i.paid_amount,
			i.payment_method,
			i.paid_date
		`).
		Joins("JOIN contracts c ON c.id = i.contract_id").
		Joins("JOIN customers cu ON cu.id = c.customer_id").
		Where("i.status = ? AND i.paid_date IS NOT NULL", "paid").
		Order("i.paid_date DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	payments := make([]report.RecentPayment, len(results))
	for i, res := range results {
		payments[i] = report.RecentPayment(res)
	}
	return payments, nil
}

// GetCustomerBalances returns per customer contract value and payments
func (r *GormReportRepository) GetCustomerBalances(ctx context.Context) ([]report.CustomerBalance, error) {
	type balanceResult struct {
		CustomerID    uuid.UUID
		CustomerName  string
		Phone         string
		Email         *string
		ContractCount int64
		TotalValue    decimal.Decimal
		Installments  int64
		PaidCount     int64
		OverdueCount  int64
		TotalPaid     decimal.Decimal
		Outstanding   decimal.Decimal
	}

	contractTotals := r.db.Table("contracts").
		Select("customer_id, COUNT(*) as contract_count, COALESCE(SUM(total_amount), 0) as total_value").
		Group("customer_id")
	installmentTotals := r.db.Table("installments i").
		Select(`
			c.customer_id,
			COUNT(*) as installments,
			COALESCE(SUM(CASE WHEN i.status = 'paid' THEN 1 ELSE 0 END), 0) as paid_count,
			COALESCE(SUM(CASE WHEN i.status = 'overdue' THEN 1 ELSE 0 END), 0) as overdue_count,
			COALESCE(SUM(CASE WHEN i.status = 'paid' THEN (CASE WHEN i.paid_amount > 0 THEN i.paid_amount ELSE i.amount END) ELSE 0 END), 0) as total_paid,
			COALESCE(SUM(CASE WHEN i.status <> 'paid' THEN i.amount ELSE 0 END), 0) as outstanding
		`).
		Joins("JOIN contracts c ON c.id = i.contract_id").
		Group("c.customer_id")

	var results []balanceResult
	err := r.db.WithContext(ctx).Table("customers cu").
		Select(`
			cu.id as customer_id,
			cu.name as customer_name,
			cu.phone,
			cu.email,
			COALESCE(ct.contract_count, 0) as contract_count,
			COALESCE(ct.total_value, 0) as total_value,
			COALESCE(it.installments, 0) as installments,
			COALESCE(it.paid_count, 0) as paid_count,
			COALESCE(it.overdue_count, 0) as overdue_count,
			COALESCE(it.total_paid, 0) as total_paid,
			COALESCE(it.outstanding, 0) as outstanding
		`).
		Joins("LEFT JOIN (?) ct ON ct.customer_id = cu.id", contractTotals).
		Joins("LEFT JOIN (?) it ON it.customer_id = cu.id", installmentTotals).
		Order("cu.name ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	balances := make([]report.CustomerBalance, len(results))
	for i, res := range results {
		email := ""
		if res.Email != nil {
			email = *res.Email
		}
		balances[i] = report.CustomerBalance{
			CustomerID:    res.CustomerID,
			CustomerName:  res.CustomerName,
			Phone:         res.Phone,
			Email:         email,
			ContractCount: res.ContractCount,
			TotalValue:    res.TotalValue,
			Installments:  res.Installments,
			PaidCount:     res.PaidCount,
			OverdueCount:  res.OverdueCount,
			TotalPaid:     res.TotalPaid,
			Outstanding:   res.Outstanding,
		}
	}
	return balances, nil
}

// GetOverdueInstallments returns overdue installments ordered by customer and due date
func (r *GormReportRepository) GetOverdueInstallments(ctx context.Context, customerID *uuid.UUID) ([]report.OverdueInstallment, error) {
	type overdueResult struct {
		InstallmentID     uuid.UUID
		InstallmentNumber int
		ContractID        uuid.UUID
		ContractNumber    string
		CustomerID        uuid.UUID
		CustomerName      string
		CustomerPhone     string
		CustomerEmail     *string
		Amount            decimal.Decimal
		PaidAmount        decimal.Decimal
		DueDate           time.Time
	}

	query := r.db.WithContext(ctx).Table("installments i").
		Select(`
			i.id as installment_id,
			i.installment_number,
			c.id as contract_id,
			c.contract_number,
			cu.id as customer_id,
			cu.name as customer_name,
			cu.phone as customer_phone,
			cu.email as customer_email,
			i.amount,
			i.paid_amount,
			i.due_date
		`).
		Joins("JOIN contracts c ON c.id = i.contract_id").
		Joins("JOIN customers cu ON cu.id = c.customer_id").
		Where("i.status = ?", "overdue")
	if customerID != nil {
		query = query.Where("cu.id = ?", *customerID)
	}

	var results []overdueResult
	if err := query.Order("i.due_date ASC, i.installment_number ASC").Scan(&results).Error; err != nil {
		return nil, err
	}

	items := make([]report.OverdueInstallment, len(results))
	for i, res := range results {
		email := ""
		if res.CustomerEmail != nil {
			email = *res.CustomerEmail
		}
		items[i] = report.OverdueInstallment{
			InstallmentID:     res.InstallmentID,
			InstallmentNumber: res.InstallmentNumber,
			ContractID:        res.ContractID,
			ContractNumber:    res.ContractNumber,
			CustomerID:        res.CustomerID,
			CustomerName:      res.CustomerName,
			CustomerPhone:     res.CustomerPhone,
			CustomerEmail:     email,
			Amount:            res.Amount,
			PaidAmount:        res.PaidAmount,
			DueDate:           res.DueDate,
		}
	}
	return items, nil
}

// GetMonthlyCollections groups paid installments by paid date month in [from, to)
func (r *GormReportRepository) GetMonthlyCollections(ctx context.Context, from, to time.Time) ([]report.MonthlyCollection, error) {
	type monthlyResult struct {
		Month     int
		Count     int64
		Collected decimal.Decimal
	}

	month := monthExpr(r.db, "paid_date")
	var results []monthlyResult
	err := r.db.WithContext(ctx).Table("installments").
		Select(month+" as month, COUNT(*) as count, COALESCE(SUM(paid_amount), 0) as collected").
		Where("status = ? AND paid_date >= ? AND paid_date < ?", "paid", from, to).
		Group(month).
		Order("month").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	rows := make([]report.MonthlyCollection, len(results))
	for i, res := range results {
		rows[i] = report.MonthlyCollection{Month: res.Month, Count: res.Count, Collected: res.Collected}
	}
	return rows, nil
}

// monthExpr extracts the calendar month of a timestamp column for the active dialect
func monthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%m', " + column + ") AS INTEGER)"
	}
	return "EXTRACT(MONTH FROM " + column + ")::int"
}

// Ensure GormReportRepository implements report.ReportRepository
var _ report.ReportRepository = (*GormReportRepository)(nil)

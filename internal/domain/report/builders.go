package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment status names as stored
const (
	statusPaid    = "paid"
	statusUnpaid  = "unpaid"
	statusOverdue = "overdue"
	statusPartial = "partial"
)

var hundred = decimal.NewFromInt(100)

// BuildInstallmentReport folds per status totals into the installments report.
// Outstanding is the amount of every installment that is not paid.
func BuildInstallmentReport(totals []StatusTotals) *InstallmentReport {
	r := &InstallmentReport{
		ByStatus:    totals,
		TotalAmount: decimal.Zero,
		TotalPaid:   decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for _, t := range totals {
		r.TotalCount += t.Count
		r.TotalAmount = r.TotalAmount.Add(t.TotalAmount)
		r.TotalPaid = r.TotalPaid.Add(t.TotalPaid)
		if t.Status != statusPaid {
			r.Outstanding = r.Outstanding.Add(t.TotalAmount)
		}
	}
	return r
}

// CountInstallments turns status totals into dashboard counters
func CountInstallments(totals []StatusTotals, upcoming int64) InstallmentCounts {
	c := InstallmentCounts{Upcoming: upcoming}
	for _, t := range totals {
		c.Total += t.Count
		switch t.Status {
		case statusPaid:
			c.Paid = t.Count
		case statusUnpaid:
			c.Unpaid = t.Count
		case statusOverdue:
			c.Overdue = t.Count
		case statusPartial:
			c.Partial = t.Count
		}
	}
	return c
}

// BuildFinancialSummary computes the money overview. Down payments count as
// collected.
// CollectionRate is the share of paid installments by count, rounded to a
// whole percent.
func BuildFinancialSummary(ct ContractTotals, totals []StatusTotals) FinancialSummary {
	f := FinancialSummary{
		TotalContractValue: ct.TotalContractValue,
		TotalDownPayments:  ct.TotalDownPayments,
		TotalCollected:     ct.TotalDownPayments,
		TotalPending:       decimal.Zero,
		CollectionRate:     decimal.Zero,
	}
	var all, paid int64
	for _, t := range totals {
		all += t.Count
		if t.Status == statusPaid {
			paid = t.Count
			f.TotalCollected = f.TotalCollected.Add(t.TotalSettled)
			continue
		}
		f.TotalPending = f.TotalPending.Add(t.TotalAmount)
	}
	if all > 0 {
		f.CollectionRate = decimal.NewFromInt(paid).Mul(hundred).Div(decimal.NewFromInt(all)).Round(0)
	}
	return f
}

// GroupOverdueByCustomer groups overdue installments by customer keeping the
// order in which customers first appear
func GroupOverdueByCustomer(items []OverdueInstallment) *OverdueReport {
	r := &OverdueReport{
		Customers:    make([]OverdueCustomerGroup, 0),
		TotalOverdue: decimal.Zero,
	}
	index := make(map[uuid.UUID]int)
	for _, it := range items {
		i, ok := index[it.CustomerID]
		if !ok {
			i = len(r.Customers)
			index[it.CustomerID] = i
			r.Customers = append(r.Customers, OverdueCustomerGroup{
				CustomerID:    it.CustomerID,
				CustomerName:  it.CustomerName,
				CustomerPhone: it.CustomerPhone,
				TotalOverdue:  decimal.Zero,
			})
		}
		g := &r.Customers[i]
		g.Installments = append(g.Installments, it)
		g.Count++
		g.TotalOverdue = g.TotalOverdue.Add(it.Amount)
		r.TotalCount++
		r.TotalOverdue = r.TotalOverdue.Add(it.Amount)
	}
	return r
}

// BuildMonthlyReport fills all twelve months of the year, zero where nothing
// was collected
func BuildMonthlyReport(year int, rows []MonthlyCollection) *MonthlyReport {
	byMonth := make(map[int]MonthlyCollection, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}
	report := &MonthlyReport{
		Year:      year,
		Months:    make([]MonthlyCollection, 0, 12),
		YearTotal: decimal.Zero,
	}
	for m := 1; m <= 12; m++ {
		entry := MonthlyCollection{
			Month:     m,
			MonthName: time.Month(m).String(),
			Collected: decimal.Zero,
		}
		if found, ok := byMonth[m]; ok {
			entry.Count = found.Count
			entry.Collected = found.Collected
		}
		report.YearTotal = report.YearTotal.Add(entry.Collected)
		report.Months = append(report.Months, entry)
	}
	return report
}

// YearBounds returns [Jan 1 of year, Jan 1 of next year) in loc
func YearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0)
}

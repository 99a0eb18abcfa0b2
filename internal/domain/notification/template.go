package notification

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts and dates into notification messages
type Formatter struct {
	CurrencySymbol string
	DateLayout     string
	printer        *message.Printer
}

// NewFormatter creates a formatter for the given currency symbol and date layout
func NewFormatter(currencySymbol, dateLayout string) *Formatter {
	if currencySymbol == "" {
		currencySymbol = "$"
	}
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}
	return &Formatter{
		CurrencySymbol: currencySymbol,
		DateLayout:     dateLayout,
		printer:        message.NewPrinter(language.English),
	}
}

// Amount formats a monetary amount with grouping and two decimals, e.g. $1,250.50
func (f *Formatter) Amount(d decimal.Decimal) string {
	v := d.Round(2).InexactFloat64()
	return f.CurrencySymbol + f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Date formats a due date
func (f *Formatter) Date(t time.Time) string {
	return t.Format(f.DateLayout)
}

// PaymentConfirmation renders the message sent after a payment is recorded
func (f *Formatter) PaymentConfirmation(installmentNumber int, amount decimal.Decimal) string {
	return f.printer.Sprintf("Payment received for installment #%d. Amount: %s. Thank you!",
		installmentNumber, f.Amount(amount))
}

// Reminder renders the message sent before an installment falls due
func (f *Formatter) Reminder(installmentNumber int, amount decimal.Decimal, dueDate time.Time) string {
	return f.printer.Sprintf("Reminder: Installment #%d of %s is due on %s. Please ensure timely payment.",
		installmentNumber, f.Amount(amount), f.Date(dueDate))
}

// Overdue renders the message sent for an overdue installment
func (f *Formatter) Overdue(installmentNumber int, amount decimal.Decimal, daysOverdue int) string {
	return f.printer.Sprintf("OVERDUE: Installment #%d of %s is %d days overdue. Please make payment immediately to avoid penalties.",
		installmentNumber, f.Amount(amount), daysOverdue)
}

package shared

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places money is stored with
const MoneyPlaces = 2

// Round2 rounds a monetary amount to cents, half away from zero
// (12.345 -> 12.35). Banker's rounding is not used.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SplitEvenly divides amount into n equal parts rounded to cents.
// Parts are rounded independently, so n*part may differ from amount by up to
// n * 0.005; no part absorbs the remainder.
func SplitEvenly(amount decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return Round2(amount.Div(decimal.NewFromInt(int64(n))))
}

// MaxDecimal returns the larger of a and b
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

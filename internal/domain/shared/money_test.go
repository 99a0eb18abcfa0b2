package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already two places", "1000.00", "1000"},
		{"half rounds up", "12.345", "12.35"},
		{"below half rounds down", "12.344", "12.34"},
		{"repeating thirds", "333.333333", "333.33"},
		{"two thirds", "666.666666", "666.67"},
		{"zero", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestSplitEvenly(t *testing.T) {
	t.Run("divides exactly", func(t *testing.T) {
		got := SplitEvenly(decimal.NewFromInt(10000), 10)
		assert.True(t, got.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("rounds each part independently", func(t *testing.T) {
		got := SplitEvenly(decimal.NewFromInt(1000), 3)
		assert.Equal(t, "333.33", got.StringFixed(2))
		drift := decimal.NewFromInt(1000).Sub(got.Mul(decimal.NewFromInt(3))).Abs()
		assert.True(t, drift.LessThanOrEqual(decimal.RequireFromString("0.015")))
	})

	t.Run("non-positive count yields zero", func(t *testing.T) {
		assert.True(t, SplitEvenly(decimal.NewFromInt(100), 0).IsZero())
	})
}

func TestMaxDecimal(t *testing.T) {
	a := decimal.NewFromInt(-5)
	assert.True(t, MaxDecimal(a, decimal.Zero).IsZero())
	assert.True(t, MaxDecimal(decimal.NewFromInt(7), decimal.Zero).Equal(decimal.NewFromInt(7)))
}

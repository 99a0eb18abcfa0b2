package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := NewDomainError("NOT_FOUND", "Installment not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load contract: %w", ErrNotFound)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("as extracts code", func(t *testing.T) {
		err := fmt.Errorf("pay: %w", NewDomainError("ALREADY_PAID", "Installment is already paid"))
		de, ok := AsDomainError(err)
		assert.True(t, ok)
		assert.Equal(t, "ALREADY_PAID", de.Code)
		assert.Equal(t, "Installment is already paid", de.Error())
	})
}

func TestAsDomainError_PlainError(t *testing.T) {
	de, ok := AsDomainError(errors.New("connection reset"))
	assert.False(t, ok)
	assert.Nil(t, de)
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(date(2024, 1, 1))
	assert.Equal(t, date(2024, 1, 1), c.Now())
	c.Advance(24 * time.Hour)
	assert.Equal(t, date(2024, 1, 2), c.Now())
	c.Set(date(2025, 6, 1))
	assert.Equal(t, date(2025, 6, 1), c.Now())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 10, Filter{Page: 2, PageSize: 10}.Offset())
	assert.Equal(t, 0, Filter{Page: 0, PageSize: 10}.Offset())
}

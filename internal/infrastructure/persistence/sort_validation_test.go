package persistence

import (
	"testing"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	for input, want := range map[string]string{
		"":                   "DESC",
		"asc":                "ASC",
		"  ASC ":             "ASC",
		"desc":               "DESC",
		"sideways":           "DESC",
		"ASC; DELETE FROM x": "DESC",
		"asc, amount desc":   "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"allowed field", "due_date", "due_date"},
		{"trimmed", "  amount ", "amount"},
		{"empty falls back", "", "created_at"},
		{"unknown column", "customer_id", "created_at"},
		{"case sensitive", "DUE_DATE", "created_at"},
		{"expression", "due_date; DROP TABLE installments", "created_at"},
		{"subquery", "(SELECT 1)", "created_at"},
		{"two columns", "due_date, amount", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, InstallmentSortFields, "created_at"))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	for name, allowed := range map[string]map[string]bool{
		"customers":     CustomerSortFields,
		"contracts":     ContractSortFields,
		"installments":  InstallmentSortFields,
		"notifications": NotificationSortFields,
	} {
		for _, field := range []string{"id", "created_at", "updated_at"} {
			assert.True(t, allowed[field], "%s should allow %s", name, field)
		}
	}
	assert.False(t, CustomerSortFields["deleted_at"])
	assert.True(t, InstallmentSortFields["due_date"])
	assert.True(t, ContractSortFields["contract_number"])
}

func TestApplyOrderAndPagination(t *testing.T) {
	db := newTestDB(t)
	toSQL := func(f shared.Filter, defaultDir string) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			q := applyOrder(tx.Model(&models.InstallmentModel{}), f, InstallmentSortFields, "due_date", defaultDir)
			return applyPagination(q, f).Find(&[]models.InstallmentModel{})
		})
	}

	sql := toSQL(shared.Filter{}, "ASC")
	assert.Contains(t, sql, "ORDER BY due_date ASC")
	assert.NotContains(t, sql, "LIMIT")

	sql = toSQL(shared.Filter{OrderBy: "amount", OrderDir: "desc", Page: 3, PageSize: 10}, "ASC")
	assert.Contains(t, sql, "ORDER BY amount DESC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")

	sql = toSQL(shared.Filter{OrderBy: "amount; --", OrderDir: "up"}, "ASC")
	assert.Contains(t, sql, "ORDER BY due_date DESC")
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%cnt-0001%", likePattern("  CNT-0001 "))
}

package persistence

import (
	"strings"

	"github.com/installments/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"phone":       true,
	"email":       true,
	"national_id": true,
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":                     true,
	"created_at":             true,
	"updated_at":             true,
	"contract_number":        true,
	"total_amount":           true,
	"down_payment":           true,
	"number_of_installments": true,
	"start_date":             true,
	"status":                 true,
}

// InstallmentSortFields contains allowed sort fields for installments
var InstallmentSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"installment_number": true,
	"amount":             true,
	"due_date":           true,
	"status":             true,
	"paid_amount":        true,
	"paid_date":          true,
}

// NotificationSortFields contains allowed sort fields for notifications
var NotificationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"type":       true,
	"channel":    true,
	"status":     true,
	"sent_at":    true,
}

// applyOrder orders by a whitelisted field. An empty direction falls back to defaultDir.
func applyOrder(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultDir
	if strings.TrimSpace(filter.OrderDir) != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	return query.Order(field + " " + dir)
}

// applyPagination limits the query to the requested page
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive LIKE pattern matched against LOWER(column)
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

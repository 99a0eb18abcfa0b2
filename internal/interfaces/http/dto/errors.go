package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their own codes.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Auth
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resources
	ErrCodeNotFound:          http.StatusNotFound,
	"ALREADY_EXISTS":         http.StatusConflict,
	"CONFLICT":               http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"ALREADY_PAID":           http.StatusConflict,
	"CONTRACT_BUSY":          http.StatusConflict,
	"CONTRACT_CANCELLED":     http.StatusConflict,
	"CUSTOMER_HAS_CONTRACTS": http.StatusConflict,
	"NUMBER_EXHAUSTED":       http.StatusConflict,

	// Business rules
	"INVALID_STATE": http.StatusUnprocessableEntity,

	// Limits and dependencies
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	"STORAGE_UNAVAILABLE":  http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code. Unlisted
// INVALID_* codes are input validation failures; anything else unknown is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

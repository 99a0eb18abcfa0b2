package shared

import "errors"

// DomainError is a business rule violation. Code is stable and machine
// readable (ALREADY_PAID, NOT_FOUND); Message is safe to show to callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code, so a sentinel matches errors built with another message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// AsDomainError unwraps err to its DomainError, if it carries one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

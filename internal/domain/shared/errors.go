package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for propagation and transport mapping
type ErrorKind string

const (
	// KindValidation is malformed input rejected before touching the ledger
	KindValidation ErrorKind = "VALIDATION"
	// KindBusinessRule is a domain rule violation
	KindBusinessRule ErrorKind = "BUSINESS_RULE"
	// KindConcurrency is a lock wait, lock timeout or serialization failure
	KindConcurrency ErrorKind = "CONCURRENCY"
	// KindInfrastructure is storage or transport being unavailable
	KindInfrastructure ErrorKind = "INFRASTRUCTURE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

// NewDomainError creates a new business rule error
func NewDomainError(code, message string) *DomainError {
	return NewBusinessRuleError(code, message)
}

// NewValidationError creates an error for malformed input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewBusinessRuleError creates an error for a violated domain rule
func NewBusinessRuleError(code, message string) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewConcurrencyError creates an error for lock or serialization failures
func NewConcurrencyError(code, message string, cause error) *DomainError {
	return &DomainError{Kind: KindConcurrency, Code: code, Message: message, cause: cause}
}

// NewInfrastructureError creates an error for unavailable storage or transport
func NewInfrastructureError(code, message string, cause error) *DomainError {
	return &DomainError{Kind: KindInfrastructure, Code: code, Message: message, cause: cause}
}

// KindOf returns the kind of the first DomainError in err's chain.
// Errors that are not DomainErrors are treated as infrastructure failures.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInfrastructure
}

// CodeOf returns the code of the first DomainError in err's chain, or "" if none
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewBusinessRuleError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewBusinessRuleError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConcurrencyError("CONCURRENCY_CONFLICT", "Resource was modified by another process", nil)
	ErrLockTimeout         = NewConcurrencyError("LOCK_TIMEOUT", "Timed out waiting for a row lock", nil)
	ErrStorageUnavailable  = NewInfrastructureError("STORAGE_UNAVAILABLE", "Storage is unavailable", nil)
	ErrInvalidState        = NewBusinessRuleError("INVALID_STATE", "Operation not allowed in current state")
)

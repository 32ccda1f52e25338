package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/receivables/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidID is used when a path parameter is not a UUID
	ErrCodeInvalidID = "INVALID_ID"
)

// kindStatus maps domain error kinds to HTTP status codes
var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:     http.StatusBadRequest,
	shared.KindBusinessRule:   http.StatusUnprocessableEntity,
	shared.KindConcurrency:    http.StatusConflict,
	shared.KindInfrastructure: http.StatusServiceUnavailable,
}

// StatusForError returns the HTTP status, code and client message for err.
// Errors outside the DomainError hierarchy become 500 with a generic message.
func StatusForError(err error) (int, string, string) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
	}

	status, ok := kindStatus[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	switch {
	case de.Kind == shared.KindBusinessRule && isNotFound(de.Code):
		status = http.StatusNotFound
	case de.Kind == shared.KindBusinessRule && de.Code == shared.ErrAlreadyExists.Code:
		status = http.StatusConflict
	}
	return status, de.Code, de.Message
}

func isNotFound(code string) bool {
	return code == shared.ErrNotFound.Code || strings.HasSuffix(code, "_NOT_FOUND")
}

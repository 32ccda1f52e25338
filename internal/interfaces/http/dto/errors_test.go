package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("INVALID_AMOUNT", "bad"), http.StatusBadRequest, "INVALID_AMOUNT"},
		{"business rule", receivable.ErrPaymentExceedsBalance, http.StatusUnprocessableEntity, "PAYMENT_EXCEEDS_BALANCE"},
		{"credit limit", receivable.ErrCreditLimitExceeded, http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED"},
		{"invoice not found", receivable.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{"generic not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"lock timeout", shared.ErrLockTimeout, http.StatusConflict, "LOCK_TIMEOUT"},
		{"storage unavailable", shared.ErrStorageUnavailable, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"wrapped", fmt.Errorf("record payment: %w", receivable.ErrPaymentAlreadyReversed), http.StatusUnprocessableEntity, "PAYMENT_ALREADY_REVERSED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, message := StatusForError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, message)
		})
	}
}

func TestStatusForError_HidesInternalDetails(t *testing.T) {
	_, _, message := StatusForError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "An unexpected error occurred", message)
}

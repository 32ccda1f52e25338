package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code", func(t *testing.T) {
		err := NewBusinessRuleError("PAYMENT_EXCEEDS_BALANCE", "Payment exceeds balance of 10.00")
		sentinel := NewBusinessRuleError("PAYMENT_EXCEEDS_BALANCE", "")
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("does not match different code", func(t *testing.T) {
		err := NewBusinessRuleError("A", "a")
		assert.False(t, errors.Is(err, NewBusinessRuleError("B", "b")))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("record payment: %w", ErrNotFound)
		assert.True(t, errors.Is(wrapped, ErrNotFound))
	})
}

func TestDomainError_Cause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrStorageUnavailable.WithCause(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, ErrStorageUnavailable.Unwrap(), "sentinel must not be mutated")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"validation", NewValidationError("X", "x"), KindValidation},
		{"business rule", NewBusinessRuleError("X", "x"), KindBusinessRule},
		{"concurrency", NewConcurrencyError("X", "x", nil), KindConcurrency},
		{"infrastructure", NewInfrastructureError("X", "x", nil), KindInfrastructure},
		{"wrapped", fmt.Errorf("op: %w", ErrLockTimeout), KindConcurrency},
		{"plain error", errors.New("boom"), KindInfrastructure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", CodeOf(fmt.Errorf("find: %w", ErrNotFound)))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}

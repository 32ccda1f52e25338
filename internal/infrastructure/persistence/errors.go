package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/erp/receivables/internal/domain/shared"
)

// Postgres SQLSTATE codes the ledger reacts to
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

var (
	// ErrSerializationFailure is returned when Postgres aborts a transaction
	// that could not be serialised against a concurrent one
	ErrSerializationFailure = shared.NewConcurrencyError("SERIALIZATION_FAILURE", "Transaction conflicted with a concurrent update", nil)
	// ErrDeadlock is returned when Postgres breaks a lock cycle by aborting this transaction
	ErrDeadlock = shared.NewConcurrencyError("DEADLOCK_DETECTED", "Transaction was aborted to resolve a deadlock", nil)
)

// translateError maps driver errors onto the domain error kinds. Domain
// errors and context cancellation pass through untouched; anything the
// database cannot explain becomes STORAGE_UNAVAILABLE.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return shared.ErrLockTimeout.WithCause(err)
		case pgSerializationFailure:
			return ErrSerializationFailure.WithCause(err)
		case pgDeadlockDetected:
			return ErrDeadlock.WithCause(err)
		case pgUniqueViolation:
			return shared.ErrAlreadyExists.WithCause(err)
		}
	}
	if msg := err.Error(); strings.Contains(msg, sqliteUniqueFailed) {
		return shared.ErrAlreadyExists.WithCause(err)
	} else if strings.Contains(msg, sqliteBusy) {
		return shared.ErrLockTimeout.WithCause(err)
	}
	return shared.ErrStorageUnavailable.WithCause(err)
}

const (
	sqliteUniqueFailed = "UNIQUE constraint failed"
	sqliteBusy         = "database is locked"
)

// sqlite names the violated columns rather than the index
var sqliteUniqueColumns = map[string]string{
	"idx_customers_code":     "customers.code",
	"idx_invoices_number":    "invoices.invoice_number",
	"idx_payments_reverses":  "payments.reverses_payment_id",
	"idx_reminder_logs_once": "reminder_logs.invoice_id",
}

// uniqueViolationOn reports whether err is a unique violation of the named constraint
func uniqueViolationOn(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
	}
	column, ok := sqliteUniqueColumns[constraint]
	msg := err.Error()
	return ok && strings.Contains(msg, sqliteUniqueFailed) && strings.Contains(msg, column)
}

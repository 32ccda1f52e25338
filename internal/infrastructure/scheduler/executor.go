package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/infrastructure/logger"
)

// OverdueMarker transitions past-due invoices to OVERDUE
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// ReminderDispatcher sends the reminder emails due on a day
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, today time.Time) (*appar.DispatchSummary, error)
}

// LedgerJobExecutor runs ledger maintenance jobs against the application services
type LedgerJobExecutor struct {
	overdue   OverdueMarker
	reminders ReminderDispatcher
	logger    *zap.Logger
}

// NewLedgerJobExecutor creates a new executor
func NewLedgerJobExecutor(overdue OverdueMarker, reminders ReminderDispatcher, logger *zap.Logger) *LedgerJobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerJobExecutor{
		overdue:   overdue,
		reminders: reminders,
		logger:    logger,
	}
}

// Execute runs job. A daily run dispatches reminders even when the sweep
// fails, so invoices already OVERDUE still get their notices; both errors
// are reported.
func (e *LedgerJobExecutor) Execute(ctx context.Context, job *Job) error {
	ctx, log := logger.WithJob(ctx, e.logger, job.Name())

	switch job.Type {
	case JobTypeOverdueSweep:
		return e.sweep(ctx, log, job.RunDate)
	case JobTypeReminderDispatch:
		return e.dispatch(ctx, log, job.RunDate)
	case JobTypeDailyRun:
		sweepErr := e.sweep(ctx, log, job.RunDate)
		if ctx.Err() != nil {
			return errors.Join(sweepErr, ctx.Err())
		}
		return errors.Join(sweepErr, e.dispatch(ctx, log, job.RunDate))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
}

func (e *LedgerJobExecutor) sweep(ctx context.Context, log *zap.Logger, day time.Time) error {
	n, err := e.overdue.MarkOverdue(ctx, day)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}
	log.Info("Overdue sweep finished", zap.Int("marked", n))
	return nil
}

func (e *LedgerJobExecutor) dispatch(ctx context.Context, log *zap.Logger, day time.Time) error {
	summary, err := e.reminders.Dispatch(ctx, day)
	if err != nil {
		return fmt.Errorf("reminder dispatch: %w", err)
	}
	log.Info("Reminder dispatch finished",
		zap.Int("considered", summary.Considered),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return nil
}

// Ensure LedgerJobExecutor implements JobExecutor
var _ JobExecutor = (*LedgerJobExecutor)(nil)

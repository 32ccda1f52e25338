package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/infrastructure/config"
)

type recordingExecutor struct {
	mu       sync.Mutex
	failures int
	calls    []JobType
	done     chan *Job
}

func newRecordingExecutor(failures int) *recordingExecutor {
	return &recordingExecutor{failures: failures, done: make(chan *Job, 10)}
}

func (e *recordingExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	e.calls = append(e.calls, job.Type)
	fail := e.failures > 0
	if fail {
		e.failures--
	}
	e.mu.Unlock()

	if fail {
		return errors.New("transient failure")
	}
	e.done <- job
	return nil
}

func (e *recordingExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        10 * time.Millisecond,
	}
}

func startScheduler(t *testing.T, exec JobExecutor) *Scheduler {
	t.Helper()
	s, err := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func waitForJob(t *testing.T, done <-chan *Job) *Job {
	t.Helper()
	select {
	case job := <-done:
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
		return nil
	}
}

func TestNewScheduler_InvalidConfig(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.MaxConcurrentJobs = 0
	_, err := NewScheduler(cfg, newRecordingExecutor(0), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testSchedulerConfig()
	cfg.JobTimeout = 0
	_, err = NewScheduler(cfg, newRecordingExecutor(0), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScheduler_RunsJob(t *testing.T) {
	exec := newRecordingExecutor(0)
	s := startScheduler(t, exec)

	day := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	job, err := s.Schedule(JobTypeOverdueSweep, day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), job.RunDate)

	waitForJob(t, exec.done)

	require.Eventually(t, func() bool {
		last, ok := s.LastRun(JobTypeOverdueSweep)
		return ok && last.Status == JobStatusSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := newRecordingExecutor(2)
	s := startScheduler(t, exec)

	_, err := s.Schedule(JobTypeDailyRun, time.Now())
	require.NoError(t, err)

	job := waitForJob(t, exec.done)
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, 3, exec.callCount())
}

func TestScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	exec := newRecordingExecutor(10)
	s := startScheduler(t, exec)

	_, err := s.Schedule(JobTypeReminderDispatch, time.Now())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		last, ok := s.LastRun(JobTypeReminderDispatch)
		return ok && last.Status == JobStatusFailed && last.RetryCount == 2
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, exec.callCount())
}

func TestScheduler_RejectsUnknownJobType(t *testing.T) {
	s := startScheduler(t, newRecordingExecutor(0))

	_, err := s.Schedule(JobType("REBUILD_EVERYTHING"), time.Now())
	assert.ErrorIs(t, err, ErrUnknownJobType)
}

func TestScheduler_SubmitAfterStop(t *testing.T) {
	s, err := NewScheduler(testSchedulerConfig(), newRecordingExecutor(0), nil)
	require.NoError(t, err)

	_, err = s.Schedule(JobTypeOverdueSweep, time.Now())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	_, err = s.Schedule(JobTypeOverdueSweep, time.Now())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/receivables/internal/infrastructure/config"
)

// CronTrigger submits the daily ledger run once per calendar day at the
// configured local time
type CronTrigger struct {
	hour          int
	minute        int
	checkInterval time.Duration
	scheduler     *Scheduler
	logger        *zap.Logger
	now           func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(cfg config.SchedulerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &CronTrigger{
		hour:          cfg.DailyHour,
		minute:        cfg.DailyMinute,
		checkInterval: interval,
		scheduler:     scheduler,
		logger:        logger,
		now:           time.Now,
	}
}

// Start starts the trigger loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.hour),
		zap.Int("daily_minute", c.minute),
		zap.Duration("check_interval", c.checkInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the daily run once the configured time has been
// reached. A process started after that time still runs the day's job.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRunDate == currentDate {
		return false
	}
	if now.Hour() < c.hour || (now.Hour() == c.hour && now.Minute() < c.minute) {
		return false
	}

	job, err := c.scheduler.Schedule(JobTypeDailyRun, now)
	if err != nil {
		c.logger.Error("Failed to schedule daily ledger run", zap.Error(err))
		return false
	}
	c.lastRunDate = currentDate
	c.logger.Info("Daily ledger run triggered",
		zap.String("job_id", job.ID.String()),
		zap.String("run_date", currentDate),
	)
	return true
}

// TriggerNow submits jobType for runDate outside the daily schedule
func (c *CronTrigger) TriggerNow(jobType JobType, runDate time.Time) (*Job, error) {
	return c.scheduler.Schedule(jobType, runDate)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"DailyBrief/internal/ports"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// CronScheduler fires the job on a standard five-field cron expression.
type CronScheduler struct {
	expr     string
	location *time.Location
	clock    clockwork.Clock
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// Option customizes a CronScheduler.
type Option func(*CronScheduler)

// WithClock sets the clock that stamps each run.
func WithClock(clock clockwork.Clock) Option {
	return func(c *CronScheduler) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger for recovered job panics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CronScheduler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCronScheduler builds a scheduler for the cron expression expr evaluated in loc (UTC when nil).
func NewCronScheduler(expr string, loc *time.Location, opts ...Option) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	c := &CronScheduler{
		expr:     expr,
		location: loc,
		clock:    clockwork.NewRealClock(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate parses the expression without scheduling anything.
func (c *CronScheduler) Validate() error {
	if _, err := cron.ParseStandard(c.expr); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", c.expr, err)
	}
	return nil
}

// Start registers job and begins dispatching. The scheduler stops when ctx ends.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return ErrAlreadyStarted
	}

	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithChain(cron.Recover(cronLogger{logger: c.logger})),
	)
	if _, err := runner.AddFunc(c.expr, func() {
		job(c.clock.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", c.expr, err)
	}

	runner.Start()
	c.cron = runner

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts dispatching and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running job: %w", ctx.Err())
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"DailyBrief/internal/ports"
)

// Scheduler wires the cron driver with brief generation and digest delivery.
type Scheduler struct {
	driver    ports.Scheduler
	generator *BriefGenerator
	notifier  ports.Notifier
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring generation. notifier may be nil.
func NewScheduler(driver ports.Scheduler, generator *BriefGenerator, notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, generator: generator, notifier: notifier, logger: logger}
}

// Start registers the generation job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.generator == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce refreshes the brief and publishes its digest.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	brief, err := s.generator.RefreshBrief(ctx)
	if err != nil {
		s.logger.Warn("scheduled generation failed", "trigger", trigger, "error", err)
		return
	}

	if s.notifier == nil || len(brief.Items) == 0 {
		return
	}
	if err := s.notifier.PublishDigest(ctx, RenderDigest(brief)); err != nil {
		s.logger.Warn("publish digest", "brief", brief.ID, "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

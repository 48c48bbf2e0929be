package usecase

import (
	"context"
	"log/slog"
	"time"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

// Scheduler wires the cron driver with the decision engine.
type Scheduler struct {
	driver ports.Scheduler
	engine *Engine
	logger *slog.Logger
	onRun  func(domain.ReportRun)
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, engine *Engine, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, engine: engine, logger: logger}
}

// OnRun registers a hook called with every finished run.
func (s *Scheduler) OnRun(fn func(domain.ReportRun)) {
	s.onRun = fn
}

// Start registers the engine with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.engine == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.Tick(ctx, trigger)
	})
}

// Tick runs the engine once at trigger and logs the outcome.
func (s *Scheduler) Tick(ctx context.Context, trigger time.Time) {
	run, err := s.engine.Run(ctx, trigger)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("report run aborted", "trigger", trigger, "error", err)
		}
		return
	}
	if s.onRun != nil {
		s.onRun(run)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

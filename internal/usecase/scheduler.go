package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"carnewsbot/internal/ports"
)

// Scheduler wires the interval driver with the ingestion pipeline. A tick
// arriving while a run is still in flight is skipped, never queued.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
	running  sync.Mutex
}

// NewScheduler returns a helper to start/stop recurring ingestion runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.runOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunNow executes a single ingestion pass, honoring the same no-overlap
// guarantee as scheduled runs.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}

	s.running.Lock()
	defer s.running.Unlock()
	return s.pipeline.Run(ctx)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context, trigger time.Time) {
	if !s.running.TryLock() {
		s.logger.Warn("previous run still in flight, skipping tick", "trigger", trigger)
		return
	}
	defer s.running.Unlock()

	started := time.Now()
	if err := s.pipeline.Run(ctx); err != nil {
		s.logger.Error("ingestion run failed", "error", err)
		return
	}
	s.logger.Info("ingestion run finished", "elapsed", time.Since(started))
}

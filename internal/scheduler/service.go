// Package scheduler runs the service's recurring jobs: order polling,
// menu cache warming and kiosk session sweeping.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Metrics  *metrics.JobMetrics
}

// Service runs every registered entry on its own ticker.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	metrics  *metrics.JobMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		metrics:  params.Metrics,
	}, nil
}

// Run blocks until ctx is canceled. Each entry runs once immediately and then
// on every tick; a failing run is logged and the loop continues.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range s.registry.Entries() {
		g.Go(func() error {
			return s.loop(gctx, entry)
		})
	}
	err := g.Wait()
	s.logg.Info(ctx, "scheduler stopped")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err()
	}
	return err
}

func (s *Service) loop(ctx context.Context, entry Entry) error {
	interval := entry.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	s.runEntry(ctx, entry)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runEntry(ctx, entry)
		}
	}
}

func (s *Service) runEntry(ctx context.Context, entry Entry) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   entry.Job.Name(),
		"event": "scheduler.job",
	})
	if entry.Lock != nil {
		locked, err := entry.Lock.Acquire(jobCtx)
		if err != nil {
			s.logg.Error(jobCtx, "lock acquire failed", err)
			s.recordFailure(entry.Job.Name())
			return
		}
		if !locked {
			s.logg.Debug(jobCtx, "job held by another instance; skipping")
			return
		}
		defer func() {
			if relErr := entry.Lock.Release(jobCtx); relErr != nil {
				s.logg.Error(jobCtx, "failed to release job lock", relErr)
			}
		}()
	}
	s.runJob(jobCtx, entry.Job)
}

func (s *Service) runJob(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	ctx = s.logg.WithField(ctx, "duration_ms", duration.Milliseconds())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logg.Error(ctx, "job failed", err)
		s.recordFailure(job.Name())
		return
	}
	s.logg.Debug(ctx, "job completed")
	s.metrics.IncSuccess(job.Name())
}

func (s *Service) recordFailure(job string) {
	s.metrics.IncFailure(job)
}

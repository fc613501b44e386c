package worker

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler runs the sweep job on a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	job       *SweepJob
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler for job. It does not start it.
func NewScheduler(job *SweepJob, logger zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(job.config.Interval),
		gocron.NewTask(func(ctx context.Context) {
			if ctx.Err() != nil {
				return
			}
			job.Run()
		}),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("scheduling session sweep: %w", err)
	}

	return &Scheduler{scheduler: s, job: job, logger: logger}, nil
}

// Start starts the scheduler without blocking.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info().
		Dur("interval", s.job.config.Interval).
		Dur("idle_ttl", s.job.config.IdleTTL).
		Msg("session sweeper started")
}

// Shutdown stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	s.logger.Info().Msg("session sweeper stopped")
	return nil
}

package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Job is one periodic maintenance task. Run must be safe to invoke on
// overlapping schedules across restarts: every job is written to be
// idempotent.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler drives the background jobs, one goroutine per job.
type Scheduler struct {
	jobs     []Job
	stopChan chan struct{}
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting background scheduler", "jobs", len(s.jobs))
	for _, j := range s.jobs {
		go s.loop(ctx, j)
	}
}

func (s *Scheduler) Stop() {
	slog.Info("stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	// first pass happens immediately so a restart never delays overdue work
	s.run(ctx, j)

	ticker := time.NewTicker(j.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.run(ctx, j)
		case <-s.stopChan:
			slog.Info("job stopped", "job", j.Name())
			return
		case <-ctx.Done():
			slog.Info("job cancelled", "job", j.Name())
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j Job) {
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		slog.Error("job run failed", "job", j.Name(), "error", err)
		return
	}
	slog.Debug("job run finished", "job", j.Name(), "took", time.Since(start))
}

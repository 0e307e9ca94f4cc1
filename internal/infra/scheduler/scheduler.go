// Package scheduler runs periodic maintenance tasks on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is one scheduled unit of work. It receives a context bounded by the
// task timeout.
type Task func(ctx context.Context) error

// Scheduler wraps a cron runner with logging and per-run timeouts.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
	}
}

// Add registers a task under a standard 5-field cron spec. Runs of the same
// task never overlap.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, task Task) error {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.run(name, timeout, task)
	}))
	_, err := s.cron.AddJob(spec, job)
	if err != nil {
		return err
	}
	s.logger.Info("scheduled task registered", zap.String("task", name), zap.String("spec", spec))
	return nil
}

// RunNow executes a registered task body immediately, outside the schedule.
func (s *Scheduler) RunNow(name string, timeout time.Duration, task Task) {
	s.run(name, timeout, task)
}

func (s *Scheduler) run(name string, timeout time.Duration, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := task(ctx); err != nil {
		s.logger.Error("scheduled task failed", zap.String("task", name), zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	s.logger.Info("scheduled task completed", zap.String("task", name), zap.Duration("duration", time.Since(start)))
}

// Start begins running tasks in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for running tasks or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

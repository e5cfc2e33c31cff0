// internal/app/system/workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs tasks.Job values on their cron schedules. Overlapping runs
// of the same job are skipped and panics are recovered and logged.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
	jobs []string
}

// NewScheduler creates an idle scheduler. Add jobs, then Start.
func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{log: logger}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		log: logger,
	}
}

// Add registers job. An invalid schedule is an error.
func (s *Scheduler) Add(job tasks.Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	_, err := s.cron.AddFunc(job.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := job.Run(ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.jobs = append(s.jobs, job.Name)
	return nil
}

// RunNow runs job once, synchronously. Startup uses it to prime the stage
// gauge before the first tick.
func (s *Scheduler) RunNow(ctx context.Context, job tasks.Job) {
	if err := job.Run(ctx); err != nil {
		s.log.Warn("job run failed", zap.String("job", job.Name), zap.Error(err))
	}
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Strings("jobs", s.jobs))
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; jobs still running")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug(msg, zap.Any("cron", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("cron", kv))
}

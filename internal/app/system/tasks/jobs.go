// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work. Schedule is a cron spec
// ("*/5 * * * *", "@every 1m").
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// StageCounter is the slice of the lead store the snapshot job needs.
type StageCounter interface {
	StageCounts(ctx context.Context) (map[models.Stage]int64, error)
}

// StageSnapshotJob recomputes the leads_by_stage gauge.
func StageSnapshotJob(leads StageCounter, m *metrics.Metrics, logger *zap.Logger, schedule string) Job {
	return Job{
		Name:     "stage-snapshot",
		Schedule: schedule,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			start := time.Now()
			counts, err := leads.StageCounts(ctx)
			if err != nil {
				return err
			}
			m.SetStageCounts(counts)
			if m != nil {
				m.SnapshotDuration.Observe(time.Since(start).Seconds())
			}

			var total int64
			for _, n := range counts {
				total += n
			}
			logger.Debug("stage snapshot updated", zap.Int64("leads", total))
			return nil
		},
	}
}

// LoginLimiterSweepJob drops idle rate-limit buckets so the maps do not
// grow with every address that ever tried to log in.
func LoginLimiterSweepJob(ll *ratelimit.LoginLimiter, logger *zap.Logger) Job {
	return Job{
		Name:     "login-limiter-sweep",
		Schedule: "@every 10m",
		Timeout:  5 * time.Second,
		Run: func(ctx context.Context) error {
			if n := ll.Sweep(); n > 0 {
				logger.Debug("swept idle login limiter buckets", zap.Int("count", n))
			}
			return nil
		},
	}
}

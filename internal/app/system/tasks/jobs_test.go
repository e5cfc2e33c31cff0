package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/tasks"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type fakeCounter struct {
	counts map[models.Stage]int64
	err    error
}

func (f fakeCounter) StageCounts(context.Context) (map[models.Stage]int64, error) {
	return f.counts, f.err
}

func TestStageSnapshotJob(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	job := tasks.StageSnapshotJob(fakeCounter{counts: map[models.Stage]int64{
		models.StagePrimaryScreening: 10,
		models.StageOffer:            3,
	}}, m, zap.NewNop(), "*/5 * * * *")

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := promtest.ToFloat64(m.LeadsByStage.WithLabelValues("primary_screening")); got != 10 {
		t.Errorf("primary_screening = %v, want 10", got)
	}
	if got := promtest.ToFloat64(m.LeadsByStage.WithLabelValues("offer")); got != 3 {
		t.Errorf("offer = %v, want 3", got)
	}
}

func TestStageSnapshotJob_Error(t *testing.T) {
	boom := errors.New("mongo down")
	job := tasks.StageSnapshotJob(fakeCounter{err: boom}, nil, zap.NewNop(), "@every 1m")
	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}

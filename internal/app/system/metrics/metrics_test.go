package metrics_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResultOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.ResultOK},
		{fmt.Errorf("wrap: %w", pipeline.ErrPermissionDenied), metrics.ResultDenied},
		{&pipeline.GuardError{Action: pipeline.ActionAdvance, Reason: "one step"}, metrics.ResultGuard},
		{&pipeline.ValidationError{Field: "reason", Message: "required"}, metrics.ResultInvalid},
		{leadstore.ErrConflict, metrics.ResultConflict},
		{leadstore.ErrNotFound, metrics.ResultNotFound},
		{io.ErrUnexpectedEOF, metrics.ResultError},
	}
	for _, tt := range tests {
		if got := metrics.ResultOf(tt.err); got != tt.want {
			t.Errorf("ResultOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveOutcome(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveOutcome(pipeline.Outcome{Action: pipeline.ActionEditPreScreening, From: models.StagePrimaryScreening, To: models.StageMeetAndCall})
	m.ObserveOutcome(pipeline.Outcome{Action: pipeline.ActionEditPreScreening, From: models.StageMeetAndCall, To: models.StageMeetAndCall})
	m.ObserveAction(pipeline.ActionAdvance, &pipeline.GuardError{})

	if got := promtest.ToFloat64(m.PipelineActions.WithLabelValues("edit_prescreening", "ok")); got != 2 {
		t.Errorf("edit_prescreening ok = %v, want 2", got)
	}
	if got := promtest.ToFloat64(m.StageTransitions.WithLabelValues("primary_screening", "meet_and_call")); got != 1 {
		t.Errorf("transition count = %v, want 1", got)
	}
	if got := promtest.ToFloat64(m.PipelineActions.WithLabelValues("advance", "guard")); got != 1 {
		t.Errorf("advance guard = %v, want 1", got)
	}

	var nilM *metrics.Metrics
	nilM.ObserveOutcome(pipeline.Outcome{}) // no panic
}

func TestSetStageCounts(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.SetStageCounts(map[models.Stage]int64{models.StageOffer: 4, models.StageLeadDump: 2})

	if got := promtest.ToFloat64(m.LeadsByStage.WithLabelValues("offer")); got != 4 {
		t.Errorf("offer = %v", got)
	}
	if got := promtest.ToFloat64(m.LeadsByStage.WithLabelValues("primary_screening")); got != 0 {
		t.Errorf("missing stages should be zero, got %v", got)
	}
	if n := promtest.CollectAndCount(m.LeadsByStage); n != 8 {
		t.Errorf("expected 8 stage series, got %d", n)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/leads/"+id, nil))
	}

	if got := promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "404")); got != 3 {
		t.Errorf("route counter = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "brintelli_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

// Package metrics holds the Prometheus collectors for the HTTP layer and the
// lead pipeline. Collectors register on the Registerer handed to New, so
// tests can use a private registry.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brintelli"

// Action results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultDenied   = "denied"
	ResultGuard    = "guard"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	reg prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PipelineActions  *prometheus.CounterVec
	StageTransitions *prometheus.CounterVec
	LeadsByStage     *prometheus.GaugeVec
	LeadsImported    *prometheus.CounterVec

	LoginAttempts  *prometheus.CounterVec
	TokenRefreshes *prometheus.CounterVec

	SnapshotDuration prometheus.Histogram
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests and a registry with the Go/process collectors in production.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		PipelineActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_actions_total",
			Help:      "Lead pipeline actions by action and result",
		}, []string{"action", "result"}),
		StageTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Lead stage changes by source and target stage",
		}, []string{"from", "to"}),
		LeadsByStage: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leads_by_stage",
			Help:      "Leads per pipeline stage at the last snapshot",
		}, []string{"stage"}),
		LeadsImported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_imported_total",
			Help:      "Imported lead rows by result",
		}, []string{"result"}),

		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		TokenRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Refresh-token rotations by result",
		}, []string{"result"}),

		SnapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_snapshot_duration_seconds",
			Help:      "Time taken to recompute the per-stage gauge",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5},
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ResultOf classifies an action error into a result label.
func ResultOf(err error) string {
	var ge *pipeline.GuardError
	var ve *pipeline.ValidationError
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, pipeline.ErrPermissionDenied):
		return ResultDenied
	case errors.As(err, &ge):
		return ResultGuard
	case errors.As(err, &ve):
		return ResultInvalid
	case errors.Is(err, leadstore.ErrConflict):
		return ResultConflict
	case errors.Is(err, leadstore.ErrNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}

// ObserveAction counts one attempt of action. A nil receiver is a no-op.
func (m *Metrics) ObserveAction(action pipeline.Action, err error) {
	if m == nil {
		return
	}
	m.PipelineActions.WithLabelValues(string(action), ResultOf(err)).Inc()
}

// ObserveOutcome counts a successful action and, when the lead moved, the
// stage transition.
func (m *Metrics) ObserveOutcome(o pipeline.Outcome) {
	if m == nil {
		return
	}
	m.ObserveAction(o.Action, nil)
	if o.Moved() {
		m.StageTransitions.WithLabelValues(string(o.From), string(o.To)).Inc()
	}
}

// SetStageCounts replaces the per-stage gauge. Stages missing from counts
// are reported as zero.
func (m *Metrics) SetStageCounts(counts map[models.Stage]int64) {
	if m == nil {
		return
	}
	for _, s := range append(append([]models.Stage{}, models.ForwardStages...), models.StageLeadDump) {
		m.LeadsByStage.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// Middleware records request counts and latency labelled by chi route
// pattern, so /api/leads/{id} is one series rather than one per lead.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

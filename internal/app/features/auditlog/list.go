// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/normalize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

type listResponse struct {
	Events     []audit.Event `json:"events"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
}

// ServeList handles GET /api/audit with optional filters category,
// event_type, actor, lead_id, start_date and end_date (YYYY-MM-DD), and a
// 1-based page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	filter, page, err := parseFilter(r)
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	// auth events carry IPs and login attempts; admins only
	if !actor.Can(authz.PermAll) {
		if filter.Category != "" && filter.Category != audit.CategoryPipeline {
			httpjson.Error(w, http.StatusForbidden, httpjson.CodeForbidden, "only admins can read auth events")
			return
		}
		filter.Category = audit.CategoryPipeline
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		httpjson.FromError(w, h.Log, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		httpjson.FromError(w, h.Log, err)
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if events == nil {
		events = []audit.Event{}
	}
	httpjson.OK(w, listResponse{
		Events:     events,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Actor:     normalize.Email(q.Get("actor")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	switch filter.Category {
	case "", audit.CategoryAuth, audit.CategoryPipeline:
	default:
		return filter, 0, &pipeline.ValidationError{Field: "category", Message: "category must be auth or pipeline"}
	}

	if s := strings.TrimSpace(q.Get("lead_id")); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, 0, &pipeline.ValidationError{Field: "lead_id", Message: "lead_id is not a valid id"}
		}
		filter.LeadID = &oid
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, 0, &pipeline.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"}
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, 0, &pipeline.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"}
		}
		// end of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}
	return filter, page, nil
}

// internal/app/features/leads/list.go
package leads

import (
	"net/http"
	"strconv"

	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/normalize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.uber.org/zap"
)

// maxListLimit caps the limit query parameter.
const maxListLimit = 1000

// ServeList returns the leads visible to the caller in the requested page
// context. The Mongo scope narrows the query; VisibleLeads is applied on top
// so the response never depends on the filter alone.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	q := r.URL.Query()

	pc, err := leadpolicy.ParseContext(normalize.QueryParam(q.Get("context")))
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	limit := int64(leadstore.DefaultListLimit)
	if v := normalize.QueryParam(q.Get("limit")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "limit", Message: "must be a positive number"})
			return
		}
		limit = min(n, maxListLimit)
	}

	scope := leadpolicy.ScopeFor(actor, pc)
	if !scope.CanList {
		httpjson.FromError(w, h.Log, pipeline.ErrPermissionDenied)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "lead list")
	defer cancel()

	rows, err := h.Leads.List(ctx, scope.Filter, limit)
	if err != nil {
		h.Log.Error("lead list failed", zap.String("context", string(pc)), zap.String("actor", actor.Identity), zap.Error(err))
		httpjson.FromError(w, h.Log, err)
		return
	}

	visible := leadpolicy.VisibleLeads(actor, rows, pc)
	out := make([]leadView, 0, len(visible))
	for _, l := range visible {
		out = append(out, toView(actor, l))
	}
	httpjson.OK(w, listResponse{
		Context: pc,
		Columns: leadpolicy.Columns(actor),
		Leads:   out,
		Count:   len(out),
	})
}

// ServeLead returns one lead. Leads outside the caller's scope are reported
// as not found.
func (h *Handler) ServeLead(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	id, err := leadID(r)
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "lead get")
	defer cancel()

	l, err := h.Leads.GetByID(ctx, id)
	if err == nil && !leadpolicy.CanView(actor, l) {
		err = leadstore.ErrNotFound
	}
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}
	httpjson.OK(w, toView(actor, l))
}

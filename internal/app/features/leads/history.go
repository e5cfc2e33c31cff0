// internal/app/features/leads/history.go
package leads

import (
	"net/http"

	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// historyLimit caps the events returned for one lead.
const historyLimit = 200

// ServeHistory returns the pipeline audit trail of a lead, oldest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	id, err := leadID(r)
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "lead history")
	defer cancel()

	l, err := h.Leads.GetByID(ctx, id)
	if err == nil && !leadpolicy.CanView(actor, l) {
		err = leadstore.ErrNotFound
	}
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	events, err := h.History.HistoryForLead(ctx, id, historyLimit)
	if err != nil {
		h.Log.Error("lead history failed", zap.String("lead_id", id.Hex()), zap.Error(err))
		httpjson.FromError(w, h.Log, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httpjson.OK(w, historyResponse{LeadID: id.Hex(), Events: events})
}

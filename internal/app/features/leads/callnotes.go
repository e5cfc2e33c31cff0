// internal/app/features/leads/callnotes.go
package leads

import (
	"net/http"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/htmlsanitize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

// ServeCallNotes returns the lead's call log, most recent call first.
func (h *Handler) ServeCallNotes(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	id, err := leadID(r)
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "call notes get")
	defer cancel()

	l, err := h.Leads.GetByID(ctx, id)
	if err == nil && !leadpolicy.CanView(actor, l) {
		err = leadstore.ErrNotFound
	}
	if err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}
	httpjson.OK(w, map[string]any{
		"leadId": l.ID.Hex(),
		"notes":  pipeline.CallNotesForDisplay(l.CallNotes),
	})
}

// HandleAddCallNote appends a call note without changing the stage.
func (h *Handler) HandleAddCallNote(w http.ResponseWriter, r *http.Request) {
	var req callNoteRequest
	o, _, ok := h.perform(w, r, pipeline.ActionAddCallNote, "", body(w, r, &req), func(l models.Lead, a authz.Actor, now time.Time) (pipeline.Outcome, error) {
		next, err := pipeline.AppendCallNote(l, models.CallNote{
			Notes:    htmlsanitize.PlainText(req.Notes),
			CallDate: req.CallDate,
			CallTime: req.CallTime,
		}, a.Identity, now)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		stage := l.EffectiveStage()
		return pipeline.Outcome{Lead: next, Action: pipeline.ActionAddCallNote, From: stage, To: stage}, nil
	})
	if !ok {
		return
	}

	notes := o.Lead.CallNotes
	httpjson.Write(w, http.StatusCreated, map[string]any{
		"leadId":  o.Lead.ID.Hex(),
		"note":    notes[len(notes)-1],
		"count":   len(notes),
		"version": o.Lead.Version,
	})
}

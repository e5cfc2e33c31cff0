// internal/app/features/leads/prescreening.go
package leads

import (
	"context"
	"net/http"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/htmlsanitize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"github.com/imaggar-technologies/brintelli/internal/domain/prescreening"
)

// HandleReplacePreScreening stores the body as the lead's questionnaire.
func (h *Handler) HandleReplacePreScreening(w http.ResponseWriter, r *http.Request) {
	h.savePreScreening(w, r, false)
}

// HandleMergePreScreening fills in the non-empty fields of the body and
// keeps everything else.
func (h *Handler) HandleMergePreScreening(w http.ResponseWriter, r *http.Request) {
	h.savePreScreening(w, r, true)
}

func (h *Handler) savePreScreening(w http.ResponseWriter, r *http.Request, merge bool) {
	var doc models.PreScreening
	decode := func(context.Context) error {
		if err := httpjson.Decode(w, r, &doc); err != nil {
			return err
		}
		switch doc.Form {
		case "", models.FormStandard, models.FormExtended:
		default:
			return &pipeline.ValidationError{Field: "form", Message: `must be "standard" or "extended"`}
		}
		doc.Notes = htmlsanitize.PlainText(doc.Notes)
		return nil
	}
	o, _, ok := h.perform(w, r, pipeline.ActionEditPreScreening, "", decode, func(l models.Lead, _ authz.Actor, now time.Time) (pipeline.Outcome, error) {
		if merge {
			doc = prescreening.Merge(l.PreScreening, doc)
		}
		return pipeline.ScoreAndMaybeAdvance(l, doc, now)
	})
	if !ok {
		return
	}

	missing := prescreening.Missing(o.Lead.PreScreening)
	if missing == nil {
		missing = []string{}
	}
	httpjson.OK(w, preScreeningResponse{
		Stage:      o.Lead.CurrentStage(),
		Completion: prescreening.Score(o.Lead.PreScreening),
		Advanced:   o.Moved(),
		Missing:    missing,
		Version:    o.Lead.Version,
	})
}

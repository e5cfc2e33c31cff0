// internal/app/features/leads/actions.go
package leads

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/htmlsanitize"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

// HandleAssign sets the lead owner. Assigning a lead whose questionnaire is
// already complete also moves it to meet_and_call.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	decode := func(ctx context.Context) error {
		if err := decodeValid(w, r, &req); err != nil {
			return err
		}
		return h.checkAssignee(ctx, "assignedTo", req.AssignedTo)
	}
	h.act(w, r, pipeline.ActionAssign, "", decode, func(l models.Lead, _ authz.Actor, now time.Time) (pipeline.Outcome, error) {
		return pipeline.Assign(l, req.AssignedTo, now)
	})
}

// HandleSubmitAssessment records the call that led to the assessment and
// moves meet_and_call to assessments.
func (h *Handler) HandleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitAssessmentRequest
	h.act(w, r, pipeline.ActionSubmitAssessment, models.StageAssessments, body(w, r, &req), func(l models.Lead, a authz.Actor, now time.Time) (pipeline.Outcome, error) {
		note := models.CallNote{
			Notes:    htmlsanitize.PlainText(req.Notes),
			CallDate: req.CallDate,
			CallTime: req.CallTime,
		}
		return pipeline.SubmitForAssessment(l, note, htmlsanitize.PlainText(req.AssessmentType), a.Identity, now)
	})
}

// HandleBookAssessment schedules or reschedules the assessment. An explicit
// assignee must be an active account that works on leads.
func (h *Handler) HandleBookAssessment(w http.ResponseWriter, r *http.Request) {
	var req bookAssessmentRequest
	decode := func(ctx context.Context) error {
		if err := decodeValid(w, r, &req); err != nil {
			return err
		}
		if strings.TrimSpace(req.Assignee) == "" {
			return nil
		}
		return h.checkAssignee(ctx, "assignee", req.Assignee)
	}
	h.act(w, r, pipeline.ActionBookAssessment, "", decode, func(l models.Lead, a authz.Actor, now time.Time) (pipeline.Outcome, error) {
		return pipeline.BookAssessment(l, pipeline.BookingInput{
			Type:     htmlsanitize.PlainText(req.Type),
			Date:     req.Date,
			Time:     req.Time,
			Assignee: req.Assignee,
		}, a.Identity, now)
	})
}

// HandleAdvance moves the lead to the next stage. The target decides which
// permission is required, so the body is read before the checks run.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeValid(w, r, &req); err != nil {
		h.fail(w, pipeline.ActionAdvance, err)
		return
	}
	to := models.Stage(req.To)
	if _, ok := leadpolicy.RequiredPermission(pipeline.ActionAdvance, to); !ok {
		h.fail(w, pipeline.ActionAdvance, &pipeline.ValidationError{Field: "to", Message: advanceHint(to)})
		return
	}
	h.act(w, r, pipeline.ActionAdvance, to, nil, func(l models.Lead, _ authz.Actor, now time.Time) (pipeline.Outcome, error) {
		return pipeline.Advance(l, to, now)
	})
}

func advanceHint(to models.Stage) string {
	switch to {
	case models.StageAssessments:
		return "use submit-assessment to send the assessment"
	case models.StageLeadDump:
		return "use the deactivate action to dump a lead"
	}
	targets := pipeline.ExplicitTargets()
	names := make([]string, len(targets))
	for i, s := range targets {
		names[i] = string(s)
	}
	return fmt.Sprintf("leads cannot be advanced to %s; advance targets are %s", to, strings.Join(names, ", "))
}

// HandleDeactivate moves the lead to the lead dump.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req deactivateRequest
	h.act(w, r, pipeline.ActionDeactivate, models.StageLeadDump, body(w, r, &req), func(l models.Lead, a authz.Actor, now time.Time) (pipeline.Outcome, error) {
		return pipeline.Deactivate(l, htmlsanitize.PlainText(req.Reason), a.Identity, now)
	})
}

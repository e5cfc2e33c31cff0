// internal/app/features/leads/types.go
package leads

import (
	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/leadimport"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"github.com/imaggar-technologies/brintelli/internal/domain/prescreening"
)

// leadView is a lead as returned to API callers: redacted for the caller,
// with the derived completion and effective stage.
type leadView struct {
	models.Lead
	Completion     int          `json:"completion"`
	EffectiveStage models.Stage `json:"effectiveStage"`
	Deactivated    bool         `json:"deactivated"`
}

func toView(a authz.Actor, l models.Lead) leadView {
	l = leadpolicy.Redact(a, l)
	if l.CallNotes == nil {
		l.CallNotes = []models.CallNote{}
	}
	return leadView{
		Lead:           l,
		Completion:     prescreening.Score(l.PreScreening),
		EffectiveStage: l.EffectiveStage(),
		Deactivated:    l.IsDeactivated(),
	}
}

type listResponse struct {
	Context leadpolicy.PageContext `json:"context"`
	Columns []string               `json:"columns"`
	Leads   []leadView             `json:"leads"`
	Count   int                    `json:"count"`
}

type actionResponse struct {
	Lead   leadView     `json:"lead"`
	Action string       `json:"action"`
	From   models.Stage `json:"from"`
	To     models.Stage `json:"to"`
	Moved  bool         `json:"moved"`
}

func toActionResponse(a authz.Actor, o pipeline.Outcome) actionResponse {
	return actionResponse{
		Lead:   toView(a, o.Lead),
		Action: string(o.Action),
		From:   o.From,
		To:     o.To,
		Moved:  o.Moved(),
	}
}

type preScreeningResponse struct {
	Stage      models.Stage `json:"stage"`
	Completion int          `json:"completion"`
	Advanced   bool         `json:"advanced"`
	Missing    []string     `json:"missing"`
	Version    int64        `json:"version"`
}

type historyResponse struct {
	LeadID string        `json:"leadId"`
	Events []audit.Event `json:"events"`
}

type importResponse struct {
	BatchID string                `json:"batchId"`
	Created int                   `json:"created"`
	Errors  []leadimport.RowError `json:"errors"`
}

/* ------------------------------ request bodies ------------------------------ */

type createRequest struct {
	Name   string `json:"name" validate:"required,max=200" label:"Name"`
	Email  string `json:"email" validate:"omitempty,emailaddr" label:"Email"`
	Phone  string `json:"phone" validate:"omitempty,max=32" label:"Phone"`
	Source string `json:"source" validate:"max=64" label:"Source"`
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo" validate:"required,emailaddr" label:"Assignee"`
}

type callNoteRequest struct {
	Notes    string `json:"notes" validate:"required,max=5000" label:"Notes"`
	CallDate string `json:"callDate" validate:"omitempty,ymd" label:"Call date"`
	CallTime string `json:"callTime" validate:"omitempty,hhmm" label:"Call time"`
}

type submitAssessmentRequest struct {
	callNoteRequest
	AssessmentType string `json:"assessmentType" validate:"max=100" label:"Assessment type"`
}

type bookAssessmentRequest struct {
	Date     string `json:"date" validate:"required,ymd" label:"Date"`
	Time     string `json:"time" validate:"required,hhmm" label:"Time"`
	Type     string `json:"type" validate:"max=100" label:"Assessment type"`
	Assignee string `json:"assignee" validate:"omitempty,emailaddr" label:"Assignee"`
}

type advanceRequest struct {
	To string `json:"to" validate:"required,stage" label:"Target stage"`
}

type deactivateRequest struct {
	Reason string `json:"reason" validate:"required,max=1000" label:"Reason"`
}

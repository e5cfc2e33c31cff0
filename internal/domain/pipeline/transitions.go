// Package pipeline is the lead pipeline state machine.
//
// Every function here is pure: it takes a lead by value and returns the
// updated copy, or an error and no change. Permission checks happen before
// these functions are called (see leadpolicy); the functions themselves only
// enforce stage guards and input validation.
package pipeline

import "github.com/imaggar-technologies/brintelli/internal/domain/models"

// Action names a mutation of a lead. Actions double as audit event names.
type Action string

const (
	ActionCreate           Action = "create"
	ActionAssign           Action = "assign"
	ActionEditPreScreening Action = "edit_prescreening"
	ActionAddCallNote      Action = "add_call_note"
	ActionSubmitAssessment Action = "submit_assessment"
	ActionBookAssessment   Action = "book_assessment"
	ActionAdvance          Action = "advance"
	ActionDeactivate       Action = "deactivate"
)

// Actions lists every action in a stable order.
var Actions = []Action{
	ActionCreate,
	ActionAssign,
	ActionEditPreScreening,
	ActionAddCallNote,
	ActionSubmitAssessment,
	ActionBookAssessment,
	ActionAdvance,
	ActionDeactivate,
}

// Trigger says how a forward transition is fired.
type Trigger int

const (
	// TriggerCompletion fires when the pre-screening score reaches 100.
	TriggerCompletion Trigger = iota
	// TriggerSubmitAssessment fires on the submit-assessment action.
	TriggerSubmitAssessment
	// TriggerExplicit fires on the advance action.
	TriggerExplicit
)

// Transition is one edge of the forward pipeline.
type Transition struct {
	From    models.Stage
	To      models.Stage
	Trigger Trigger
}

// transitions is keyed by the source stage. Each forward stage has exactly
// one successor; onboarded_to_lsm has none. lead_dump is handled by
// Deactivate and has no outgoing edges.
var transitions = map[models.Stage]Transition{
	models.StagePrimaryScreening: {models.StagePrimaryScreening, models.StageMeetAndCall, TriggerCompletion},
	models.StageMeetAndCall:      {models.StageMeetAndCall, models.StageAssessments, TriggerSubmitAssessment},
	models.StageAssessments:      {models.StageAssessments, models.StageOffer, TriggerExplicit},
	models.StageOffer:            {models.StageOffer, models.StageDealNegotiation, TriggerExplicit},
	models.StageDealNegotiation:  {models.StageDealNegotiation, models.StagePaymentClearance, TriggerExplicit},
	models.StagePaymentClearance: {models.StagePaymentClearance, models.StageOnboardedToLSM, TriggerExplicit},
}

// Next returns the transition out of from, if any.
func Next(from models.Stage) (Transition, bool) {
	t, ok := transitions[from]
	return t, ok
}

// IsTerminal reports whether no forward transition leaves s.
func IsTerminal(s models.Stage) bool {
	_, ok := transitions[s]
	return !ok
}

// ExplicitTargets returns the stages reachable through the advance action.
func ExplicitTargets() []models.Stage {
	var out []models.Stage
	for _, s := range models.ForwardStages {
		if t, ok := transitions[s]; ok && t.Trigger != TriggerSubmitAssessment {
			out = append(out, t.To)
		}
	}
	return out
}

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/prescreening"
)

// Outcome is the result of a successful action. From and To are effective
// stages, so a deactivation reports To == lead_dump.
type Outcome struct {
	Lead   models.Lead
	Action Action
	From   models.Stage
	To     models.Stage
}

// Moved reports whether the action changed the lead's stage.
func (o Outcome) Moved() bool { return o.From != o.To }

// NewLeadInput carries the contact fields of a new lead.
type NewLeadInput struct {
	Name   string
	Email  string
	Phone  string
	Source string
}

// NewLead builds a lead in the initial stage, unassigned, with an empty
// questionnaire.
func NewLead(in NewLeadInput, actor string, now time.Time) (models.Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Lead{}, invalid("name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return models.Lead{}, invalid("email", "email or phone is required")
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "manual"
	}
	return models.Lead{
		Name:          name,
		Email:         email,
		Phone:         phone,
		Source:        source,
		PipelineStage: models.StagePrimaryScreening,
		Version:       1,
		CreatedBy:     actor,
		CreatedAt:     now.UTC(),
	}, nil
}

// Assign sets the lead's owner. Reassignment is allowed at any non-terminal
// stage; clearing the owner is not. Because the lead may already carry a
// complete questionnaire, the auto-advance check runs again afterwards.
func Assign(l models.Lead, assignee string, now time.Time) (Outcome, error) {
	assignee = strings.ToLower(strings.TrimSpace(assignee))
	if assignee == "" {
		return Outcome{}, invalid("assignedTo", "select someone to assign the lead to")
	}
	if l.IsDeactivated() {
		return Outcome{}, deactivatedGuard(ActionAssign, l)
	}
	from := l.CurrentStage()
	if IsTerminal(from) {
		return Outcome{}, &GuardError{Action: ActionAssign, From: from, Reason: "lead has already been onboarded"}
	}

	l.AssignedTo = assignee
	l = touch(l, now)
	l = maybeAutoAdvance(l)
	return Outcome{Lead: l, Action: ActionAssign, From: from, To: l.CurrentStage()}, nil
}

// ScoreAndMaybeAdvance stores doc as the lead's questionnaire and advances
// primary_screening to meet_and_call when the score reaches 100 and the lead
// has an owner. It is idempotent: once past primary_screening the stage is
// never touched, so repeating the write only updates the data.
func ScoreAndMaybeAdvance(l models.Lead, doc models.PreScreening, now time.Time) (Outcome, error) {
	if l.IsDeactivated() {
		return Outcome{}, deactivatedGuard(ActionEditPreScreening, l)
	}
	from := l.CurrentStage()

	l.PreScreening = doc
	l = touch(l, now)
	l = maybeAutoAdvance(l)
	return Outcome{Lead: l, Action: ActionEditPreScreening, From: from, To: l.CurrentStage()}, nil
}

func maybeAutoAdvance(l models.Lead) models.Lead {
	if l.CurrentStage() != models.StagePrimaryScreening {
		return l
	}
	if !l.IsAssigned() || !prescreening.IsComplete(l.PreScreening) {
		return l
	}
	l.PipelineStage = models.StageMeetAndCall
	return l
}

// SubmitForAssessment appends the call note, records who sent the
// assessment, and moves meet_and_call to assessments.
func SubmitForAssessment(l models.Lead, note models.CallNote, assessmentType, actor string, now time.Time) (Outcome, error) {
	note, err := prepareCallNote(note, actor, now)
	if err != nil {
		return Outcome{}, err
	}
	if l.IsDeactivated() {
		return Outcome{}, deactivatedGuard(ActionSubmitAssessment, l)
	}
	from := l.CurrentStage()
	if from != models.StageMeetAndCall {
		return Outcome{}, &GuardError{
			Action: ActionSubmitAssessment,
			From:   from,
			To:     models.StageAssessments,
			Reason: "assessments can only be sent from meet_and_call",
		}
	}
	if !l.IsAssigned() {
		return Outcome{}, &GuardError{
			Action: ActionSubmitAssessment,
			From:   from,
			To:     models.StageAssessments,
			Reason: "lead has no assignee",
		}
	}

	sentAt := now.UTC()
	l = appendNote(l, note)
	l.Assessment = &models.Assessment{
		SentAt: &sentAt,
		SentBy: actor,
		Type:   strings.TrimSpace(assessmentType),
	}
	l.PipelineStage = models.StageAssessments
	l = touch(l, now)
	return Outcome{Lead: l, Action: ActionSubmitAssessment, From: from, To: l.CurrentStage()}, nil
}

// BookingInput is the payload of BookAssessment.
type BookingInput struct {
	Type     string
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Assignee string // defaults to the lead's owner
}

// BookAssessment schedules (or reschedules) the assessment. Each booking is
// kept in the lead's booking history; the current block reflects the latest.
func BookAssessment(l models.Lead, in BookingInput, actor string, now time.Time) (Outcome, error) {
	date := strings.TrimSpace(in.Date)
	clock := strings.TrimSpace(in.Time)
	if date == "" {
		return Outcome{}, invalid("date", "is required")
	}
	if !validDate(date) {
		return Outcome{}, invalid("date", "must be YYYY-MM-DD")
	}
	if clock == "" {
		return Outcome{}, invalid("time", "is required")
	}
	if !validClock(clock) {
		return Outcome{}, invalid("time", "must be HH:MM")
	}
	clock = normalizeClock(clock)
	if l.IsDeactivated() {
		return Outcome{}, deactivatedGuard(ActionBookAssessment, l)
	}
	from := l.CurrentStage()
	if from != models.StageAssessments {
		return Outcome{}, &GuardError{
			Action: ActionBookAssessment,
			From:   from,
			Reason: "assessments can only be booked in the assessments stage",
		}
	}
	if !l.IsAssigned() {
		return Outcome{}, &GuardError{Action: ActionBookAssessment, From: from, Reason: "lead has no assignee"}
	}

	assignee := strings.ToLower(strings.TrimSpace(in.Assignee))
	if assignee == "" {
		assignee = l.AssignedTo
	}
	bookedAt := now.UTC()
	booking := models.AssessmentBooking{
		Type:     strings.TrimSpace(in.Type),
		Date:     date,
		Time:     clock,
		Assignee: assignee,
		BookedBy: actor,
		BookedAt: bookedAt,
	}

	bookings := make([]models.AssessmentBooking, len(l.AssessmentBookings), len(l.AssessmentBookings)+1)
	copy(bookings, l.AssessmentBookings)
	l.AssessmentBookings = append(bookings, booking)

	var a models.Assessment
	if l.Assessment != nil {
		a = *l.Assessment
	}
	if booking.Type != "" {
		a.Type = booking.Type
	}
	a.Date = date
	a.Time = clock
	a.Assignee = assignee
	a.BookedAt = &bookedAt
	a.BookedBy = actor
	l.Assessment = &a

	l = touch(l, now)
	return Outcome{Lead: l, Action: ActionBookAssessment, From: from, To: from}, nil
}

// Advance moves the lead to the next stage. Only the immediate successor is
// accepted; the meet_and_call to assessments edge must go through
// SubmitForAssessment.
func Advance(l models.Lead, to models.Stage, now time.Time) (Outcome, error) {
	if !to.Valid() {
		return Outcome{}, invalid("to", fmt.Sprintf("unknown stage %q", to))
	}
	if to == models.StageLeadDump {
		return Outcome{}, invalid("to", "use the deactivate action to dump a lead")
	}
	from := l.CurrentStage()
	if l.IsDeactivated() {
		return Outcome{}, &GuardError{
			Action: ActionAdvance,
			From:   models.StageLeadDump,
			To:     to,
			Reason: "lead has been moved to the lead dump",
			Err:    ErrDeactivated,
		}
	}

	t, ok := Next(from)
	if !ok {
		return Outcome{}, &GuardError{Action: ActionAdvance, From: from, To: to, Reason: "lead is already at the final stage"}
	}
	if t.To != to {
		reason := "stages can only move forward one step at a time"
		if to.Index() <= from.Index() {
			reason = "leads cannot move backward"
		}
		return Outcome{}, &GuardError{Action: ActionAdvance, From: from, To: to, Reason: reason}
	}
	if !l.IsAssigned() {
		return Outcome{}, &GuardError{Action: ActionAdvance, From: from, To: to, Reason: "lead has no assignee"}
	}

	switch t.Trigger {
	case TriggerCompletion:
		if score := prescreening.Score(l.PreScreening); score < prescreening.Complete {
			return Outcome{}, &GuardError{
				Action: ActionAdvance,
				From:   from,
				To:     to,
				Reason: fmt.Sprintf("pre-screening is %d%% complete", score),
			}
		}
	case TriggerSubmitAssessment:
		return Outcome{}, &GuardError{
			Action: ActionAdvance,
			From:   from,
			To:     to,
			Reason: "submit a call note with the assessment instead",
		}
	}

	l.PipelineStage = to
	l = touch(l, now)
	return Outcome{Lead: l, Action: ActionAdvance, From: from, To: to}, nil
}

// Deactivate moves the lead to the lead dump. The stage it was dumped from is
// kept on the record. Deactivation is irreversible.
func Deactivate(l models.Lead, reason, actor string, now time.Time) (Outcome, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Outcome{}, invalid("reason", "is required")
	}
	if l.IsDeactivated() {
		return Outcome{}, deactivatedGuard(ActionDeactivate, l)
	}
	from := l.CurrentStage()
	if IsTerminal(from) {
		return Outcome{}, &GuardError{
			Action: ActionDeactivate,
			From:   from,
			To:     models.StageLeadDump,
			Reason: "onboarded leads cannot be deactivated",
		}
	}

	l.Deactivation = &models.Deactivation{Reason: reason, By: actor, At: now.UTC()}
	l = touch(l, now)
	return Outcome{Lead: l, Action: ActionDeactivate, From: from, To: models.StageLeadDump}, nil
}

func touch(l models.Lead, now time.Time) models.Lead {
	t := now.UTC()
	l.UpdatedAt = &t
	return l
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// normalizeClock zero-pads a time accepted by validClock ("9:05" becomes
// "09:05").
func normalizeClock(s string) string {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return s
	}
	return t.Format("15:04")
}

// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lead is a prospective learner tracked through the sales pipeline.
//
// NOTE:
//   - PipelineStage and Deactivation are independent axes. A deactivated lead
//     keeps the stage it was dumped from; use IsDeactivated / EffectiveStage.
//   - CallNotes and AssessmentBookings are append-only. Stores only ever $push.
//   - Completion is never stored; it is derived from PreScreening on read.
type Lead struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email  string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone  string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Source string             `bson:"source,omitempty" json:"source,omitempty"` // manual | import | free text

	AssignedTo    string `bson:"assigned_to,omitempty" json:"assignedTo"` // owner email, empty when unassigned
	PipelineStage Stage  `bson:"pipeline_stage,omitempty" json:"pipelineStage"`

	PreScreening PreScreening `bson:"pre_screening" json:"preScreening"`
	CallNotes    []CallNote   `bson:"call_notes,omitempty" json:"callNotes"`

	Assessment         *Assessment         `bson:"assessment,omitempty" json:"assessment,omitempty"`
	AssessmentBookings []AssessmentBooking `bson:"assessment_bookings,omitempty" json:"assessmentBookings,omitempty"`

	Deactivation *Deactivation `bson:"deactivation,omitempty" json:"deactivation,omitempty"`

	// Version is bumped on every write; stores update conditionally on it.
	Version int64 `bson:"version" json:"version"`

	CreatedBy string     `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// IsDeactivated reports whether the lead has been moved to the lead dump.
// A stored stage of lead_dump (older records) counts as deactivated too.
func (l Lead) IsDeactivated() bool {
	return l.Deactivation != nil || l.PipelineStage == StageLeadDump
}

// CurrentStage returns the forward stage, treating an absent stage as the
// initial one.
func (l Lead) CurrentStage() Stage {
	if l.PipelineStage == "" {
		return StagePrimaryScreening
	}
	return l.PipelineStage
}

// EffectiveStage is CurrentStage, except deactivated leads report lead_dump.
func (l Lead) EffectiveStage() Stage {
	if l.IsDeactivated() {
		return StageLeadDump
	}
	return l.CurrentStage()
}

// IsAssigned reports whether the lead has an owner.
func (l Lead) IsAssigned() bool {
	return l.AssignedTo != ""
}

// CallNote is one entry in a lead's call log. Entries are immutable once
// appended.
type CallNote struct {
	Notes     string    `bson:"notes" json:"notes"`
	CallDate  string    `bson:"call_date" json:"callDate"` // YYYY-MM-DD
	CallTime  string    `bson:"call_time" json:"callTime"` // HH:MM (24h)
	CreatedBy string    `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Assessment is the current assessment metadata for a lead.
// SentAt/SentBy are set when the lead is submitted to the assessments stage;
// the booking fields are set by BookAssessment.
type Assessment struct {
	SentAt   *time.Time `bson:"sent_at,omitempty" json:"sentAt,omitempty"`
	SentBy   string     `bson:"sent_by,omitempty" json:"sentBy,omitempty"`
	Type     string     `bson:"type,omitempty" json:"type,omitempty"`
	Date     string     `bson:"date,omitempty" json:"date,omitempty"`
	Time     string     `bson:"time,omitempty" json:"time,omitempty"`
	Assignee string     `bson:"assignee,omitempty" json:"assignee,omitempty"`
	BookedAt *time.Time `bson:"booked_at,omitempty" json:"bookedAt,omitempty"`
	BookedBy string     `bson:"booked_by,omitempty" json:"bookedBy,omitempty"`
}

// AssessmentBooking records one booking (or rebooking) event.
type AssessmentBooking struct {
	Type     string    `bson:"type" json:"type"`
	Date     string    `bson:"date" json:"date"`
	Time     string    `bson:"time" json:"time"`
	Assignee string    `bson:"assignee" json:"assignee"`
	BookedBy string    `bson:"booked_by" json:"bookedBy"`
	BookedAt time.Time `bson:"booked_at" json:"bookedAt"`
}

// Deactivation records who dumped a lead, when, and why.
type Deactivation struct {
	Reason string    `bson:"reason" json:"reason"`
	By     string    `bson:"by" json:"by"`
	At     time.Time `bson:"at" json:"at"`
}

// internal/domain/models/stage.go
package models

import "fmt"

// Stage is a lead's position in the sales pipeline. The set is closed;
// ParseStage and UnmarshalText reject anything outside it.
type Stage string

const (
	StagePrimaryScreening Stage = "primary_screening"
	StageMeetAndCall      Stage = "meet_and_call"
	StageAssessments      Stage = "assessments"
	StageOffer            Stage = "offer"
	StageDealNegotiation  Stage = "deal_negotiation"
	StagePaymentClearance Stage = "payment_and_financial_clearance"
	StageOnboardedToLSM   Stage = "onboarded_to_lsm"
	StageLeadDump         Stage = "lead_dump"
)

// ForwardStages lists the pipeline in order. lead_dump is not part of it.
var ForwardStages = []Stage{
	StagePrimaryScreening,
	StageMeetAndCall,
	StageAssessments,
	StageOffer,
	StageDealNegotiation,
	StagePaymentClearance,
	StageOnboardedToLSM,
}

// Index returns the position of s in ForwardStages, or -1 for lead_dump and
// unknown values.
func (s Stage) Index() int {
	for i, fs := range ForwardStages {
		if fs == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known stages (including lead_dump).
func (s Stage) Valid() bool {
	return s == StageLeadDump || s.Index() >= 0
}

// ParseStage converts a string into a Stage.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown pipeline stage %q", v)
	}
	return s, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so JSON payloads cannot
// smuggle in an unknown stage.
func (s *Stage) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// String returns the wire value.
func (s Stage) String() string { return string(s) }

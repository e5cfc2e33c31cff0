// Package prescreening scores and merges lead pre-screening questionnaires.
//
// The completion percentage is a pure function of the document:
//
//	round(filled_main / total_main * 95) + (5 if notes are filled), capped at 100
//
// A field counts as filled only when it is non-empty after trimming. Absent
// sections count every one of their fields as unfilled. The main-field set
// depends on the document's form (20 fields standard, 23 extended).
package prescreening

import (
	"math"
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

const (
	// MainWeight is the share of the score carried by the main fields.
	MainWeight = 95
	// NotesBonus is added when the free-text notes are filled.
	NotesBonus = 5
	// Complete is the score that triggers the automatic stage advance.
	Complete = 100
)

// Field is one scored leaf of the questionnaire.
type Field struct {
	Section string
	Name    string
	Value   string
}

// Filled reports whether the field holds non-whitespace content.
func (f Field) Filled() bool {
	return strings.TrimSpace(f.Value) != ""
}

// Form returns the effective form of the document. Anything other than the
// extended form scores as standard.
func Form(doc models.PreScreening) string {
	if strings.EqualFold(strings.TrimSpace(doc.Form), models.FormExtended) {
		return models.FormExtended
	}
	return models.FormStandard
}

// MainFields returns the scored fields for doc's form, in a stable order.
func MainFields(doc models.PreScreening) []Field {
	var (
		edu  models.EducationSection
		fin  models.FinancialSection
		job  models.JobSection
		soc  models.SocialSection
		crse models.CourseInterestSection
	)
	if doc.Education != nil {
		edu = *doc.Education
	}
	if doc.Financial != nil {
		fin = *doc.Financial
	}
	if doc.Job != nil {
		job = *doc.Job
	}
	if doc.Social != nil {
		soc = *doc.Social
	}
	if doc.CourseInterest != nil {
		crse = *doc.CourseInterest
	}

	fields := []Field{
		{"education", "highestQualification", edu.HighestQualification},
		{"education", "fieldOfStudy", edu.FieldOfStudy},
		{"education", "institution", edu.Institution},
		{"education", "graduationYear", edu.GraduationYear},
		{"financial", "currentIncome", fin.CurrentIncome},
		{"financial", "expectedIncome", fin.ExpectedIncome},
		{"financial", "fundingSource", fin.FundingSource},
		{"financial", "canAffordFee", fin.CanAffordFee},
		{"job", "currentRole", job.CurrentRole},
		{"job", "company", job.Company},
		{"job", "experienceYears", job.ExperienceYears},
		{"job", "employmentStatus", job.EmploymentStatus},
		{"social", "linkedinProfile", soc.LinkedInProfile},
		{"social", "city", soc.City},
		{"social", "preferredLanguage", soc.PreferredLanguage},
		{"social", "referralSource", soc.ReferralSource},
		{"courseInterest", "program", crse.Program},
		{"courseInterest", "preferredBatch", crse.PreferredBatch},
		{"courseInterest", "learningMode", crse.LearningMode},
		{"courseInterest", "careerGoal", crse.CareerGoal},
	}

	if Form(doc) == models.FormExtended {
		fields = append(fields,
			Field{"education", "percentage", edu.Percentage},
			Field{"financial", "loanRequired", fin.LoanRequired},
			Field{"job", "noticePeriod", job.NoticePeriod},
		)
	}
	return fields
}

// Score returns the completion percentage (0-100) for doc. It never panics,
// whatever sections are missing.
func Score(doc models.PreScreening) int {
	fields := MainFields(doc)
	filled := 0
	for _, f := range fields {
		if f.Filled() {
			filled++
		}
	}

	score := int(math.Round(float64(filled) / float64(len(fields)) * MainWeight))
	if strings.TrimSpace(doc.Notes) != "" {
		score += NotesBonus
	}
	if score > Complete {
		score = Complete
	}
	return score
}

// IsComplete reports whether doc scores 100.
func IsComplete(doc models.PreScreening) bool {
	return Score(doc) >= Complete
}

// Missing lists the main fields still unfilled, as "section.field".
func Missing(doc models.PreScreening) []string {
	var out []string
	for _, f := range MainFields(doc) {
		if !f.Filled() {
			out = append(out, f.Section+"."+f.Name)
		}
	}
	return out
}

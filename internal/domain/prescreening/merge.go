package prescreening

import (
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

// Merge overlays the non-empty fields of patch onto base and returns the
// result. Empty or whitespace-only fields in patch leave base untouched, so a partial document
// can be written without clearing earlier answers. Neither argument is
// modified.
func Merge(base, patch models.PreScreening) models.PreScreening {
	out := base

	out.Form = pick(base.Form, patch.Form)
	out.Notes = pick(base.Notes, patch.Notes)

	if patch.Education != nil {
		var e models.EducationSection
		if base.Education != nil {
			e = *base.Education
		}
		p := patch.Education
		e.HighestQualification = pick(e.HighestQualification, p.HighestQualification)
		e.FieldOfStudy = pick(e.FieldOfStudy, p.FieldOfStudy)
		e.Institution = pick(e.Institution, p.Institution)
		e.GraduationYear = pick(e.GraduationYear, p.GraduationYear)
		e.Percentage = pick(e.Percentage, p.Percentage)
		out.Education = &e
	}

	if patch.Financial != nil {
		var f models.FinancialSection
		if base.Financial != nil {
			f = *base.Financial
		}
		p := patch.Financial
		f.CurrentIncome = pick(f.CurrentIncome, p.CurrentIncome)
		f.ExpectedIncome = pick(f.ExpectedIncome, p.ExpectedIncome)
		f.FundingSource = pick(f.FundingSource, p.FundingSource)
		f.CanAffordFee = pick(f.CanAffordFee, p.CanAffordFee)
		f.LoanRequired = pick(f.LoanRequired, p.LoanRequired)
		out.Financial = &f
	}

	if patch.Job != nil {
		var j models.JobSection
		if base.Job != nil {
			j = *base.Job
		}
		p := patch.Job
		j.CurrentRole = pick(j.CurrentRole, p.CurrentRole)
		j.Company = pick(j.Company, p.Company)
		j.ExperienceYears = pick(j.ExperienceYears, p.ExperienceYears)
		j.EmploymentStatus = pick(j.EmploymentStatus, p.EmploymentStatus)
		j.NoticePeriod = pick(j.NoticePeriod, p.NoticePeriod)
		out.Job = &j
	}

	if patch.Social != nil {
		var s models.SocialSection
		if base.Social != nil {
			s = *base.Social
		}
		p := patch.Social
		s.LinkedInProfile = pick(s.LinkedInProfile, p.LinkedInProfile)
		s.City = pick(s.City, p.City)
		s.PreferredLanguage = pick(s.PreferredLanguage, p.PreferredLanguage)
		s.ReferralSource = pick(s.ReferralSource, p.ReferralSource)
		out.Social = &s
	}

	if patch.CourseInterest != nil {
		var c models.CourseInterestSection
		if base.CourseInterest != nil {
			c = *base.CourseInterest
		}
		p := patch.CourseInterest
		c.Program = pick(c.Program, p.Program)
		c.PreferredBatch = pick(c.PreferredBatch, p.PreferredBatch)
		c.LearningMode = pick(c.LearningMode, p.LearningMode)
		c.CareerGoal = pick(c.CareerGoal, p.CareerGoal)
		out.CourseInterest = &c
	}

	return out
}

func pick(cur, next string) string {
	if strings.TrimSpace(next) != "" {
		return next
	}
	return cur
}

// internal/domain/models/prescreening.go
package models

// PreScreening forms. The standard form scores 20 main fields; the extended
// form adds three more (education percentage, loan requirement, notice period)
// for 23. The form is explicit on the document so the denominator never
// changes underneath a partially filled questionnaire.
const (
	FormStandard = "standard"
	FormExtended = "extended"
)

// PreScreening is the questionnaire captured about a lead. Every leaf starts
// empty and is filled incrementally. Sections are pointers so an absent
// section is representable.
type PreScreening struct {
	Form           string                 `bson:"form,omitempty" json:"form,omitempty"`
	Education      *EducationSection      `bson:"education,omitempty" json:"education,omitempty"`
	Financial      *FinancialSection      `bson:"financial,omitempty" json:"financial,omitempty"`
	Job            *JobSection            `bson:"job,omitempty" json:"job,omitempty"`
	Social         *SocialSection         `bson:"social,omitempty" json:"social,omitempty"`
	CourseInterest *CourseInterestSection `bson:"course_interest,omitempty" json:"courseInterest,omitempty"`
	Notes          string                 `bson:"notes,omitempty" json:"notes,omitempty"`
}

type EducationSection struct {
	HighestQualification string `bson:"highest_qualification,omitempty" json:"highestQualification,omitempty"`
	FieldOfStudy         string `bson:"field_of_study,omitempty" json:"fieldOfStudy,omitempty"`
	Institution          string `bson:"institution,omitempty" json:"institution,omitempty"`
	GraduationYear       string `bson:"graduation_year,omitempty" json:"graduationYear,omitempty"`
	Percentage           string `bson:"percentage,omitempty" json:"percentage,omitempty"` // extended form
}

type FinancialSection struct {
	CurrentIncome  string `bson:"current_income,omitempty" json:"currentIncome,omitempty"`
	ExpectedIncome string `bson:"expected_income,omitempty" json:"expectedIncome,omitempty"`
	FundingSource  string `bson:"funding_source,omitempty" json:"fundingSource,omitempty"`
	CanAffordFee   string `bson:"can_afford_fee,omitempty" json:"canAffordFee,omitempty"`
	LoanRequired   string `bson:"loan_required,omitempty" json:"loanRequired,omitempty"` // extended form
}

type JobSection struct {
	CurrentRole      string `bson:"current_role,omitempty" json:"currentRole,omitempty"`
	Company          string `bson:"company,omitempty" json:"company,omitempty"`
	ExperienceYears  string `bson:"experience_years,omitempty" json:"experienceYears,omitempty"`
	EmploymentStatus string `bson:"employment_status,omitempty" json:"employmentStatus,omitempty"`
	NoticePeriod     string `bson:"notice_period,omitempty" json:"noticePeriod,omitempty"` // extended form
}

type SocialSection struct {
	LinkedInProfile   string `bson:"linkedin_profile,omitempty" json:"linkedinProfile,omitempty"`
	City              string `bson:"city,omitempty" json:"city,omitempty"`
	PreferredLanguage string `bson:"preferred_language,omitempty" json:"preferredLanguage,omitempty"`
	ReferralSource    string `bson:"referral_source,omitempty" json:"referralSource,omitempty"`
}

type CourseInterestSection struct {
	Program        string `bson:"program,omitempty" json:"program,omitempty"`
	PreferredBatch string `bson:"preferred_batch,omitempty" json:"preferredBatch,omitempty"`
	LearningMode   string `bson:"learning_mode,omitempty" json:"learningMode,omitempty"`
	CareerGoal     string `bson:"career_goal,omitempty" json:"careerGoal,omitempty"`
}

package models

// CurriculumRequirement stores the weekly session count of a subject for a grade, or
// for a single class when Grade holds a class id.
type CurriculumRequirement struct {
	Grade           string `db:"grade" json:"grade"`
	SubjectID       string `db:"subject_id" json:"subject_id"`
	SessionsPerWeek int    `db:"sessions_per_week" json:"sessions_per_week"`
}

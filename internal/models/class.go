package models

// Class represents a teaching group for an academic year.
type Class struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Grade        string  `db:"grade" json:"grade"`
	AcademicYear string  `db:"academic_year" json:"academic_year"`
	BatchID      *string `db:"batch_id" json:"batch_id,omitempty"`
}

package models

import "time"

// Term models a semester within the institution calendar.
type Term struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Number       int        `db:"number" json:"number"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	WeekCount    int        `db:"week_count" json:"week_count"`
	IsActive     bool       `db:"is_active" json:"is_active"`
}

package models

import "time"

// ScheduleEntry is a persisted teaching session.
type ScheduleEntry struct {
	ID               string    `db:"id" json:"id"`
	TermID           string    `db:"term_id" json:"term_id"`
	SemesterNumber   int       `db:"semester_number" json:"semester_number"`
	RunID            *string   `db:"run_id" json:"run_id,omitempty"`
	ClassID          string    `db:"class_id" json:"class_id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID      string    `db:"classroom_id" json:"classroom_id"`
	SlotTemplateID   string    `db:"slot_template_id" json:"slot_template_id"`
	WeekNumber       int       `db:"week_number" json:"week_number"`
	SessionDate      time.Time `db:"session_date" json:"session_date"`
	SessionWeekLabel string    `db:"session_week_label" json:"session_week_label"`
	Topic            string    `db:"topic" json:"topic"`
	DayOfWeek        int       `db:"day_of_week" json:"day_of_week"`
	Period           int       `db:"period" json:"period"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ScheduleEntryDetail joins display names onto an entry.
type ScheduleEntryDetail struct {
	ScheduleEntry
	ClassName     string `db:"class_name" json:"class_name"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	TeacherName   string `db:"teacher_name" json:"teacher_name"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
}

// ScheduleEntryFilter scopes listing queries.
type ScheduleEntryFilter struct {
	TermID    string
	ClassID   string
	TeacherID string
	Week      int
	Page      int
	PageSize  int
}

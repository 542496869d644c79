package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPending AttendanceStatus = "PENDING"
	AttendanceStatusPresent AttendanceStatus = "H"
	AttendanceStatusSick    AttendanceStatus = "S"
	AttendanceStatusExcused AttendanceStatus = "I"
	AttendanceStatusAbsent  AttendanceStatus = "A"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPending, AttendanceStatusPresent, AttendanceStatusSick, AttendanceStatusExcused, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's attendance row for a scheduled session. Rows are
// created as PENDING placeholders when a timetable is committed.
type AttendanceRecord struct {
	ID              string           `db:"id" json:"id"`
	ScheduleEntryID string           `db:"schedule_entry_id" json:"schedule_entry_id"`
	EnrollmentID    string           `db:"enrollment_id" json:"enrollment_id"`
	Date            time.Time        `db:"date" json:"date"`
	Status          AttendanceStatus `db:"status" json:"status"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

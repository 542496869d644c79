package dto

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// GenerateTimetableRequest describes a generation run over one term. Dates and week
// count override the term's own window when set.
type GenerateTimetableRequest struct {
	TermID       string  `json:"termId" validate:"required"`
	StartDate    *string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	WeekCount    int     `json:"weekCount,omitempty" validate:"omitempty,min=1,max=60"`
	AcademicYear string  `json:"academicYear,omitempty" validate:"omitempty,max=20"`
	PaceWeekly   bool    `json:"paceWeekly,omitempty"`
}

// TimetablePreviewResponse is the dry-run result kept for a later commit.
type TimetablePreviewResponse struct {
	RunID          string                    `json:"runId"`
	TermID         string                    `json:"termId"`
	SemesterNumber int                       `json:"semesterNumber"`
	AcademicYear   string                    `json:"academicYear,omitempty"`
	GeneratedAt    time.Time                 `json:"generatedAt"`
	ExpiresAt      time.Time                 `json:"expiresAt"`
	Entries        []scheduler.ScheduleEntry `json:"entries"`
	Warnings       []string                  `json:"warnings"`
	Shortfalls     []scheduler.Shortfall     `json:"shortfalls"`
	Stats          scheduler.Stats           `json:"stats"`
}

// CommitTimetableRequest persists a stored preview.
type CommitTimetableRequest struct {
	RunID             string `json:"runId" validate:"required,uuid"`
	WithAttendance    bool   `json:"withAttendance"`
	RejectOnShortfall bool   `json:"rejectOnShortfall"`
}

// CommitTimetableResponse summarises an atomic replace of a term's entries.
type CommitTimetableResponse struct {
	RunID             string   `json:"runId"`
	TermID            string   `json:"termId"`
	Deleted           int64    `json:"deleted"`
	Inserted          int      `json:"inserted"`
	AttendanceCreated int64    `json:"attendanceCreated"`
	Warnings          []string `json:"warnings"`
}

// EnqueueTimetableRequest schedules a background generate-and-commit run.
type EnqueueTimetableRequest struct {
	GenerateTimetableRequest
	WithAttendance    bool `json:"withAttendance"`
	RejectOnShortfall bool `json:"rejectOnShortfall"`
}

// TimetableJobResponse exposes the state of a background run.
type TimetableJobResponse struct {
	RunID      string           `json:"runId"`
	TermID     string           `json:"termId"`
	Status     models.RunStatus `json:"status"`
	Params     models.RunParams `json:"params"`
	Meta       types.JSONText   `json:"meta,omitempty"`
	Error      *string          `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// TimetableEntriesQuery filters persisted entries.
type TimetableEntriesQuery struct {
	TermID    string `form:"termId" validate:"required"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	Week      int    `form:"week" validate:"omitempty,min=1"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// TimetableExportQuery selects persisted entries to render as a file.
type TimetableExportQuery struct {
	TermID    string `form:"termId" validate:"required"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	Week      int    `form:"week" validate:"omitempty,min=1"`
	Format    string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

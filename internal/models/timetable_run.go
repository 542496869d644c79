package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus captures the lifecycle of a timetable generation run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// TimetableRun persists one background generate-and-commit job.
type TimetableRun struct {
	ID           string         `db:"id" json:"id"`
	TermID       string         `db:"term_id" json:"term_id"`
	Params       RunParams      `db:"params" json:"params"`
	Status       RunStatus      `db:"status" json:"status"`
	Meta         types.JSONText `db:"meta" json:"meta"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
}

// RunParams stores the generation request persisted as JSONB.
type RunParams struct {
	TermID            string  `json:"termId"`
	StartDate         *string `json:"startDate,omitempty"`
	EndDate           *string `json:"endDate,omitempty"`
	WeekCount         int     `json:"weekCount,omitempty"`
	AcademicYear      string  `json:"academicYear,omitempty"`
	PaceWeekly        bool    `json:"paceWeekly,omitempty"`
	WithAttendance    bool    `json:"withAttendance,omitempty"`
	RejectOnShortfall bool    `json:"rejectOnShortfall,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p RunParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal run params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *RunParams) Scan(value interface{}) error {
	if value == nil {
		*p = RunParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RunParams", value)
	}
	if len(data) == 0 {
		*p = RunParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal run params: %w", err)
	}
	return nil
}

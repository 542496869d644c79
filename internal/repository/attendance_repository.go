package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AttendanceRepository manages attendance placeholders for scheduled sessions.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeletePendingByTerm removes untouched placeholders of a term so the entries they
// point to can be replaced. Recorded attendance is kept.
func (r *AttendanceRepository) DeletePendingByTerm(ctx context.Context, exec sqlx.ExtContext, termID, academicYear string) error {
	query := `DELETE FROM attendance_records WHERE status = $1 AND schedule_entry_id IN (
SELECT id FROM schedule_entries WHERE term_id = $2`
	args := []interface{}{models.AttendanceStatusPending, termID}
	if academicYear != "" {
		query += " AND class_id IN (SELECT id FROM classes WHERE academic_year = $3)"
		args = append(args, academicYear)
	}
	query += ")"
	if _, err := r.exec(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete pending attendance: %w", err)
	}
	return nil
}

// CreatePlaceholders inserts one PENDING row per active enrollment of each entry's
// class and returns the number of rows created.
func (r *AttendanceRepository) CreatePlaceholders(ctx context.Context, exec sqlx.ExtContext, termID string, entryIDs []string) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	const query = `INSERT INTO attendance_records (id, schedule_entry_id, enrollment_id, date, status, created_at)
SELECT gen_random_uuid(), se.id, e.id, se.session_date, $1, NOW()
FROM schedule_entries se
JOIN enrollments e ON e.class_id = se.class_id AND e.term_id = se.term_id AND e.status = $2
WHERE se.term_id = $3 AND se.id = ANY($4)
ON CONFLICT (schedule_entry_id, enrollment_id) DO NOTHING`
	res, err := r.exec(exec).ExecContext(ctx, query, models.AttendanceStatusPending, models.EnrollmentStatusActive, termID, pq.Array(entryIDs))
	if err != nil {
		return 0, fmt.Errorf("create attendance placeholders: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attendance placeholders rows affected: %w", err)
	}
	return created, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// insertBatchSize keeps a multi-row insert under the Postgres bind parameter limit.
const insertBatchSize = 500

const scheduleEntryColumns = `id, term_id, semester_number, run_id, class_id, subject_id, teacher_id, classroom_id, slot_template_id,
week_number, session_date, session_week_label, topic, day_of_week, period, start_time, end_time, created_at`

// ScheduleEntryRepository persists generated teaching sessions.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository builds the repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

func (r *ScheduleEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteByTerm removes the entries of a term. When academicYear is set only classes of
// that year are affected.
func (r *ScheduleEntryRepository) DeleteByTerm(ctx context.Context, exec sqlx.ExtContext, termID, academicYear string) (int64, error) {
	query := "DELETE FROM schedule_entries WHERE term_id = $1"
	args := []interface{}{termID}
	if academicYear != "" {
		query += " AND class_id IN (SELECT id FROM classes WHERE academic_year = $2)"
		args = append(args, academicYear)
	}
	res, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete schedule entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedule entries rows affected: %w", err)
	}
	return affected, nil
}

// InsertBatch writes entries using multi-row inserts.
func (r *ScheduleEntryRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
	}

	const query = `INSERT INTO schedule_entries (` + scheduleEntryColumns + `)
VALUES (:id, :term_id, :semester_number, :run_id, :class_id, :subject_id, :teacher_id, :classroom_id, :slot_template_id,
:week_number, :session_date, :session_week_label, :topic, :day_of_week, :period, :start_time, :end_time, :created_at)`

	for start := 0; start < len(entries); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entries[start:end]); err != nil {
			return fmt.Errorf("insert schedule entries: %w", err)
		}
	}
	return nil
}

// List returns entries with display names, filtered and paginated.
func (r *ScheduleEntryRepository) List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, int, error) {
	base, args := scheduleEntryWhere(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT se.id, se.term_id, se.semester_number, se.run_id, se.class_id, se.subject_id, se.teacher_id, se.classroom_id, se.slot_template_id,
se.week_number, se.session_date, se.session_week_label, se.topic, se.day_of_week, se.period, se.start_time, se.end_time, se.created_at,
c.name AS class_name, s.name AS subject_name, t.full_name AS teacher_name, r.name AS classroom_name %s
ORDER BY se.week_number ASC, se.day_of_week ASC, se.period ASC, c.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var entries []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}
	return entries, total, nil
}

func scheduleEntryWhere(filter models.ScheduleEntryFilter) (string, []interface{}) {
	base := `FROM schedule_entries se
JOIN classes c ON c.id = se.class_id
JOIN subjects s ON s.id = se.subject_id
JOIN teachers t ON t.id = se.teacher_id
JOIN classrooms r ON r.id = se.classroom_id
WHERE se.term_id = $1`
	args := []interface{}{filter.TermID}
	var conditions []string
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("se.class_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("se.teacher_id = $%d", len(args)))
	}
	if filter.Week > 0 {
		args = append(args, filter.Week)
		conditions = append(conditions, fmt.Sprintf("se.week_number = $%d", len(args)))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	return base, args
}

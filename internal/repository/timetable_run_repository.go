package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableRunRepository persists background generation runs.
type TimetableRunRepository struct {
	db *sqlx.DB
}

// NewTimetableRunRepository constructs the repository.
func NewTimetableRunRepository(db *sqlx.DB) *TimetableRunRepository {
	return &TimetableRunRepository{db: db}
}

func (r *TimetableRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new run row with generated defaults.
func (r *TimetableRunRepository) Create(ctx context.Context, run *models.TimetableRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusQueued
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Meta) == 0 {
		run.Meta = types.JSONText("{}")
	}
	const query = `INSERT INTO timetable_runs (id, term_id, params, status, meta, created_by, created_at, finished_at, error_message)
VALUES (:id, :term_id, :params, :status, :meta, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create timetable run: %w", err)
	}
	return nil
}

// FindByID returns a run by its identifier.
func (r *TimetableRunRepository) FindByID(ctx context.Context, id string) (*models.TimetableRun, error) {
	const query = `SELECT id, term_id, params, status, meta, created_by, created_at, finished_at, error_message
FROM timetable_runs WHERE id = $1`
	var run models.TimetableRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, fmt.Errorf("find timetable run: %w", err)
	}
	return &run, nil
}

// UpdateStatus moves a run to a new status. Terminal states stamp finished_at.
func (r *TimetableRunRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RunStatus, meta types.JSONText, errorMessage *string) error {
	var finishedAt *time.Time
	if status == models.RunStatusCompleted || status == models.RunStatusFailed {
		now := time.Now().UTC()
		finishedAt = &now
	}
	const query = `UPDATE timetable_runs SET status = $1, meta = COALESCE($2, meta), error_message = $3, finished_at = COALESCE($4, finished_at) WHERE id = $5`
	var metaArg interface{}
	if len(meta) > 0 {
		metaArg = meta
	}
	if _, err := r.exec(exec).ExecContext(ctx, query, status, metaArg, errorMessage, finishedAt, id); err != nil {
		return fmt.Errorf("update timetable run: %w", err)
	}
	return nil
}

// ListUnfinished returns queued or running runs, oldest first. Used to resume work
// after a restart.
func (r *TimetableRunRepository) ListUnfinished(ctx context.Context, limit int) ([]models.TimetableRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, term_id, params, status, meta, created_by, created_at, finished_at, error_message
FROM timetable_runs WHERE status IN ($1, $2) ORDER BY created_at ASC LIMIT $3`
	var runs []models.TimetableRun
	if err := r.db.SelectContext(ctx, &runs, query, models.RunStatusQueued, models.RunStatusRunning, limit); err != nil {
		return nil, fmt.Errorf("list unfinished timetable runs: %w", err)
	}
	return runs, nil
}

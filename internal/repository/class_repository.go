package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ClassRepository reads classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByAcademicYear returns the classes of an academic year, or every class when the
// year is empty, in a stable grade/name order.
func (r *ClassRepository) ListByAcademicYear(ctx context.Context, academicYear string) ([]models.Class, error) {
	query := "SELECT id, name, grade, academic_year, batch_id FROM classes"
	var args []interface{}
	if academicYear != "" {
		query += " WHERE academic_year = $1"
		args = append(args, academicYear)
	}
	query += " ORDER BY grade ASC, name ASC, id ASC"

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

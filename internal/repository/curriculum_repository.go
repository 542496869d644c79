package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// CurriculumRepository reads curriculum requirements.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// List returns every requirement with a positive weekly count.
func (r *CurriculumRepository) List(ctx context.Context) ([]models.CurriculumRequirement, error) {
	const query = `SELECT grade, subject_id, sessions_per_week FROM curriculum_requirements
WHERE sessions_per_week > 0 ORDER BY grade ASC, subject_id ASC`
	var reqs []models.CurriculumRequirement
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("list curriculum requirements: %w", err)
	}
	return reqs, nil
}

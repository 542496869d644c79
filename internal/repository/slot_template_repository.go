package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SlotTemplateRepository reads the weekly slot grid.
type SlotTemplateRepository struct {
	db *sqlx.DB
}

// NewSlotTemplateRepository constructs the repository.
func NewSlotTemplateRepository(db *sqlx.DB) *SlotTemplateRepository {
	return &SlotTemplateRepository{db: db}
}

// List returns every slot template. Weekday labels are free text, so ordering by
// weekday happens after parsing.
func (r *SlotTemplateRepository) List(ctx context.Context) ([]models.SlotTemplate, error) {
	const query = "SELECT id, day_of_week, period, start_time, end_time FROM slot_templates ORDER BY period ASC, id ASC"
	var slots []models.SlotTemplate
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slot templates: %w", err)
	}
	return slots, nil
}

package models

// SlotTemplate is one recurring cell of the weekly grid. DayOfWeek is stored as a
// label ("MONDAY", "Thứ 2", "1") and parsed when a snapshot is loaded.
type SlotTemplate struct {
	ID        string  `db:"id" json:"id"`
	DayOfWeek string  `db:"day_of_week" json:"day_of_week"`
	Period    int     `db:"period" json:"period"`
	StartTime *string `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string `db:"end_time" json:"end_time,omitempty"`
}

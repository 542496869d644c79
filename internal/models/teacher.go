package models

// Teacher represents an instructor record.
type Teacher struct {
	ID             string  `db:"id" json:"id"`
	FullName       string  `db:"full_name" json:"full_name"`
	Expertise      *string `db:"expertise" json:"expertise,omitempty"`
	WeeklyCapacity *int    `db:"weekly_capacity" json:"weekly_capacity,omitempty"`
	Active         bool    `db:"active" json:"active"`
}

package models

// Subject represents an academic subject.
type Subject struct {
	ID       string  `db:"id" json:"id"`
	Code     string  `db:"code" json:"code"`
	Name     string  `db:"name" json:"name"`
	Category *string `db:"category" json:"category,omitempty"`
}

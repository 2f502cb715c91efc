package models

import "time"

// ClassSection is a named, year-scoped grouping of students.
type ClassSection struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenant_id"`
	Name     string `db:"name" json:"name"`
	Year     int    `db:"year" json:"year"`
}

// ClassLink associates a student with a class section. At most one exists per pair.
type ClassLink struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassSectionID string    `db:"class_section_id" json:"class_section_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ClassLinkResult reports the outcome of a find-or-insert.
type ClassLinkResult struct {
	Link    ClassLink `json:"link"`
	Created bool      `json:"created"`
}

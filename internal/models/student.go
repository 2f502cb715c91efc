package models

import "time"

// Student is the canonical learner record, unique per (tenant, enrollment number).
// The school year lives in a column whose name differs between schema generations,
// so it is written explicitly and never scanned.
type Student struct {
	ID               string     `db:"id" json:"id"`
	TenantID         string     `db:"tenant_id" json:"tenant_id"`
	FullName         string     `db:"full_name" json:"full_name"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	EnrollmentNumber string     `db:"enrollment_number" json:"enrollment_number"`
	ClassSectionName *string    `db:"class_section_name" json:"class_section_name,omitempty"`
	Year             int        `db:"-" json:"year,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

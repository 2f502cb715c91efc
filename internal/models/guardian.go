package models

import "time"

// GuardianRole tags a guardian slot.
type GuardianRole string

const (
	GuardianRolePrimary   GuardianRole = "primary"
	GuardianRoleSecondary GuardianRole = "secondary"
)

// Guardian is a parent or legal representative attached to an enrollment.
type Guardian struct {
	ID           string       `db:"id" json:"id"`
	EnrollmentID string       `db:"enrollment_id" json:"enrollment_id"`
	Role         GuardianRole `db:"role" json:"role"`
	FullName     *string      `db:"full_name" json:"full_name"`
	NationalID   *string      `db:"national_id" json:"national_id"`
	BirthDate    *time.Time   `db:"birth_date" json:"birth_date"`
	Phone        *string      `db:"phone" json:"phone"`
	Email        *string      `db:"email" json:"email"`
	Occupation   *string      `db:"occupation" json:"occupation"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

package models

import "time"

// FinancialResponsible is the party billed for tuition.
type FinancialResponsible struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	FullName     *string   `db:"full_name" json:"full_name"`
	NationalID   *string   `db:"national_id" json:"national_id"`
	PostalCode   *string   `db:"postal_code" json:"postal_code"`
	Street       *string   `db:"street" json:"street"`
	Number       *string   `db:"number" json:"number"`
	Complement   *string   `db:"complement" json:"complement"`
	District     *string   `db:"district" json:"district"`
	City         *string   `db:"city" json:"city"`
	Region       *string   `db:"region" json:"region"`
	Phone        *string   `db:"phone" json:"phone"`
	Email        *string   `db:"email" json:"email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

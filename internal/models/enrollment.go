package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Submissions always start as pending; later
// transitions belong to payment and administration flows.
const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment is the record created once per successful wizard submission.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	TenantID       string           `db:"tenant_id" json:"tenant_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassSectionID *string          `db:"class_section_id" json:"class_section_id,omitempty"`
	Number         string           `db:"number" json:"number"`
	Year           int              `db:"year" json:"year"`
	Sequence       int              `db:"sequence" json:"sequence"`
	SignatureRef   *string          `db:"signature_ref" json:"signature_ref,omitempty"`
	SubmittedAt    time.Time        `db:"submitted_at" json:"submitted_at"`
	Status         EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentSequence is the allocated human-facing number for a new enrollment.
type EnrollmentSequence struct {
	Number   string `json:"number"`
	Year     int    `json:"year"`
	Sequence int    `json:"sequence"`
}

// EnrollmentListItem enriches Enrollment with denormalised names for admin listings.
type EnrollmentListItem struct {
	Enrollment
	StudentName      string  `db:"student_name" json:"student_name"`
	ClassSectionName *string `db:"class_section_name" json:"class_section_name,omitempty"`
	ClassLinked      bool    `db:"class_linked" json:"class_linked"`
}

// EnrollmentDetail aggregates every record written for one submission.
type EnrollmentDetail struct {
	Enrollment
	Student               *Student              `json:"student,omitempty"`
	ClassSection          *ClassSection         `json:"class_section,omitempty"`
	ClassLinked           bool                  `json:"class_linked"`
	Guardians             []Guardian            `json:"guardians"`
	FinancialResponsible  *FinancialResponsible `json:"financial_responsible,omitempty"`
	SignatureURL          string                `json:"signature_url,omitempty"`
	SignatureURLExpiresAt *time.Time            `json:"signature_url_expires_at,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	TenantID  string
	Status    EnrollmentStatus
	Year      int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import (
	"strings"
	"time"
)

// WizardState is a node of the enrollment wizard state machine.
type WizardState string

const (
	WizardStateCollectingStudent              WizardState = "collecting_student"
	WizardStateCollectingGuardians            WizardState = "collecting_guardians"
	WizardStateCollectingFinancialResponsible WizardState = "collecting_financial_responsible"
	WizardStateCollectingSignature            WizardState = "collecting_signature"
	WizardStateReviewing                      WizardState = "reviewing"
	WizardStateSubmitting                     WizardState = "submitting"
	WizardStateConfirmed                      WizardState = "confirmed"
	WizardStateError                          WizardState = "error"
)

// StudentStep is the first wizard step.
type StudentStep struct {
	FullName       *string `json:"full_name" validate:"required,max=160"`
	BirthDate      *string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	ClassSectionID *string `json:"class_section_id,omitempty" validate:"omitempty,uuid"`
}

// GuardianStep holds one guardian slot. Required-ness depends on the slot, so
// the tags here only constrain format.
type GuardianStep struct {
	FullName   *string `json:"full_name" validate:"omitempty,max=160"`
	NationalID *string `json:"national_id" validate:"omitempty,max=32"`
	BirthDate  *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Occupation *string `json:"occupation" validate:"omitempty,max=120"`
}

// FinancialResponsibleStep holds the billed party.
type FinancialResponsibleStep struct {
	FullName   *string `json:"full_name" validate:"required,max=160"`
	NationalID *string `json:"national_id" validate:"required,max=32"`
	PostalCode *string `json:"postal_code" validate:"omitempty,len=8,numeric"`
	Street     *string `json:"street" validate:"required"`
	Number     *string `json:"number" validate:"omitempty,max=16"`
	Complement *string `json:"complement"`
	District   *string `json:"district"`
	City       *string `json:"city" validate:"required"`
	Region     *string `json:"region" validate:"omitempty,max=32"`
	Phone      *string `json:"phone" validate:"required,max=32"`
	Email      *string `json:"email" validate:"required,email"`
}

// WizardPayload is the full in-progress form. Signature is the captured PNG as a data URL.
type WizardPayload struct {
	Student              StudentStep              `json:"student"`
	PrimaryGuardian      GuardianStep             `json:"primary_guardian"`
	SecondaryGuardian    GuardianStep             `json:"secondary_guardian"`
	FinancialResponsible FinancialResponsibleStep `json:"financial_responsible"`
	Signature            *string                  `json:"signature,omitempty"`
}

// WizardSession is the persisted snapshot of one wizard instance.
type WizardSession struct {
	ID         string        `json:"id"`
	TenantID   string        `json:"tenant_id"`
	State      WizardState   `json:"state"`
	ErrorFrom  WizardState   `json:"error_from,omitempty"`
	LastError  *WizardError  `json:"last_error,omitempty"`
	Payload    WizardPayload `json:"payload"`
	Enrollment *Enrollment   `json:"enrollment,omitempty"`
	Resumed    bool          `json:"resumed"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// WizardError is the surfaced failure kept on a session in the error state.
type WizardError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ResumeMarkers are read by the sign-in redirect handler to route the user back.
type ResumeMarkers struct {
	TenantPending string `json:"tenant_pending"`
	ReturnTo      string `json:"return_to"`
}

// Sanitize trims every text field and nils out blank ones. Applying it twice is a no-op.
func (s *StudentStep) Sanitize() {
	s.FullName = CleanString(s.FullName)
	s.BirthDate = CleanString(s.BirthDate)
	s.ClassSectionID = CleanString(s.ClassSectionID)
}

// Sanitize trims every text field and nils out blank ones.
func (g *GuardianStep) Sanitize() {
	g.FullName = CleanString(g.FullName)
	g.NationalID = CleanString(g.NationalID)
	g.BirthDate = CleanString(g.BirthDate)
	g.Phone = CleanString(g.Phone)
	g.Email = CleanString(g.Email)
	g.Occupation = CleanString(g.Occupation)
}

// IsBlank reports whether no field carries a non-blank value.
func (g GuardianStep) IsBlank() bool {
	for _, v := range []*string{g.FullName, g.NationalID, g.BirthDate, g.Phone, g.Email, g.Occupation} {
		if CleanString(v) != nil {
			return false
		}
	}
	return true
}

// Sanitize trims every text field and nils out blank ones.
func (f *FinancialResponsibleStep) Sanitize() {
	f.FullName = CleanString(f.FullName)
	f.NationalID = CleanString(f.NationalID)
	f.PostalCode = CleanString(f.PostalCode)
	f.Street = CleanString(f.Street)
	f.Number = CleanString(f.Number)
	f.Complement = CleanString(f.Complement)
	f.District = CleanString(f.District)
	f.City = CleanString(f.City)
	f.Region = CleanString(f.Region)
	f.Phone = CleanString(f.Phone)
	f.Email = CleanString(f.Email)
}

// Sanitize normalises every step of the payload.
func (p *WizardPayload) Sanitize() {
	p.Student.Sanitize()
	p.PrimaryGuardian.Sanitize()
	p.SecondaryGuardian.Sanitize()
	p.FinancialResponsible.Sanitize()
	p.Signature = CleanString(p.Signature)
}

// CleanString trims the value and maps nil or whitespace-only input to nil.
func CleanString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringValue dereferences v, returning "" for nil.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package service

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// EnrollmentWizard is the step state machine. It mutates the session it is handed and
// never touches storage; persistence and submission belong to WizardSessionService.
type EnrollmentWizard struct {
	validate *validator.Validate
	clock    Clock
}

// NewEnrollmentWizard constructs the state machine. Field errors are reported by JSON name.
func NewEnrollmentWizard(validate *validator.Validate, clock Clock) *EnrollmentWizard {
	if validate == nil {
		validate = validator.New()
	}
	useJSONFieldNames(validate)
	if clock == nil {
		clock = time.Now
	}
	return &EnrollmentWizard{validate: validate, clock: clock}
}

// previousStep maps each state to the one Back returns to.
var previousStep = map[models.WizardState]models.WizardState{
	models.WizardStateCollectingGuardians:            models.WizardStateCollectingStudent,
	models.WizardStateCollectingFinancialResponsible: models.WizardStateCollectingGuardians,
	models.WizardStateCollectingSignature:            models.WizardStateCollectingFinancialResponsible,
	models.WizardStateReviewing:                      models.WizardStateCollectingSignature,
}

// NewSession returns a session at the first step.
func (w *EnrollmentWizard) NewSession(id, tenantID string) *models.WizardSession {
	now := w.clock().UTC()
	return &models.WizardSession{
		ID:        id,
		TenantID:  tenantID,
		State:     models.WizardStateCollectingStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ResumeSession returns a session at reviewing, pre-filled with a restored payload.
func (w *EnrollmentWizard) ResumeSession(id, tenantID string, payload models.WizardPayload) *models.WizardSession {
	session := w.NewSession(id, tenantID)
	payload.Sanitize()
	session.Payload = payload
	session.State = models.WizardStateReviewing
	session.Resumed = true
	return session
}

// SubmitStudent validates the student step and advances to guardians.
func (w *EnrollmentWizard) SubmitStudent(s *models.WizardSession, step models.StudentStep) error {
	if err := w.expect(s, models.WizardStateCollectingStudent); err != nil {
		return err
	}
	step.Sanitize()
	verr := &ValidationError{}
	if err := w.check(verr, "student.", step); err != nil {
		return err
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	s.Payload.Student = step
	w.advance(s, models.WizardStateCollectingGuardians)
	return nil
}

// SubmitGuardians validates both guardian slots and advances to the financial responsible.
// The primary guardian needs a name and a phone; the secondary is optional.
func (w *EnrollmentWizard) SubmitGuardians(s *models.WizardSession, primary, secondary models.GuardianStep) error {
	if err := w.expect(s, models.WizardStateCollectingGuardians); err != nil {
		return err
	}
	primary.Sanitize()
	secondary.Sanitize()
	verr := &ValidationError{}
	requirePrimaryGuardian(verr, primary)
	if err := w.check(verr, "primary_guardian.", primary); err != nil {
		return err
	}
	if !secondary.IsBlank() {
		if err := w.check(verr, "secondary_guardian.", secondary); err != nil {
			return err
		}
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	s.Payload.PrimaryGuardian = primary
	s.Payload.SecondaryGuardian = secondary
	w.advance(s, models.WizardStateCollectingFinancialResponsible)
	return nil
}

// SubmitFinancialResponsible validates the billed party and advances to the signature.
func (w *EnrollmentWizard) SubmitFinancialResponsible(s *models.WizardSession, step models.FinancialResponsibleStep) error {
	if err := w.expect(s, models.WizardStateCollectingFinancialResponsible); err != nil {
		return err
	}
	step.Sanitize()
	verr := &ValidationError{}
	if err := w.check(verr, "financial_responsible.", step); err != nil {
		return err
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	s.Payload.FinancialResponsible = step
	w.advance(s, models.WizardStateCollectingSignature)
	return nil
}

// SubmitSignature stores a captured signature data URL and advances to review.
func (w *EnrollmentWizard) SubmitSignature(s *models.WizardSession, dataURL string) error {
	if err := w.expect(s, models.WizardStateCollectingSignature); err != nil {
		return err
	}
	cleaned := models.CleanString(&dataURL)
	if cleaned == nil {
		return appErrors.Clone(appErrors.ErrNothingDrawn, "").
			WithDetails(map[string]interface{}{"fields": map[string]string{"signature": "required"}})
	}
	s.Payload.Signature = cleaned
	w.advance(s, models.WizardStateReviewing)
	return nil
}

// ClearSignature discards the captured signature. From review it returns to the signature step.
func (w *EnrollmentWizard) ClearSignature(s *models.WizardSession) error {
	if err := w.expect(s, models.WizardStateCollectingSignature, models.WizardStateReviewing); err != nil {
		return err
	}
	s.Payload.Signature = nil
	w.advance(s, models.WizardStateCollectingSignature)
	return nil
}

// Back returns to the previous collecting step, keeping entered data.
func (w *EnrollmentWizard) Back(s *models.WizardSession) error {
	w.recover(s)
	prev, ok := previousStep[s.State]
	if !ok {
		return invalidState(s.State)
	}
	w.advance(s, prev)
	return nil
}

// BeginSubmit re-validates the whole payload and moves reviewing to submitting.
func (w *EnrollmentWizard) BeginSubmit(s *models.WizardSession) error {
	if err := w.expect(s, models.WizardStateReviewing); err != nil {
		return err
	}
	s.Payload.Sanitize()
	if err := w.ValidatePayload(s.Payload); err != nil {
		return err
	}
	w.advance(s, models.WizardStateSubmitting)
	return nil
}

type stepCheck struct {
	prefix string
	value  interface{}
}

// ValidatePayload applies every step validator to a complete payload.
func (w *EnrollmentWizard) ValidatePayload(p models.WizardPayload) error {
	verr := &ValidationError{}
	requirePrimaryGuardian(verr, p.PrimaryGuardian)
	checks := []stepCheck{
		{"student.", p.Student},
		{"primary_guardian.", p.PrimaryGuardian},
		{"financial_responsible.", p.FinancialResponsible},
	}
	if !p.SecondaryGuardian.IsBlank() {
		checks = append(checks, stepCheck{"secondary_guardian.", p.SecondaryGuardian})
	}
	for _, c := range checks {
		if err := w.check(verr, c.prefix, c.value); err != nil {
			return err
		}
	}
	if p.Signature == nil {
		verr.add("signature", "required")
	}
	return verr.orNil()
}

// Complete records the written enrollment. confirmed is terminal.
func (w *EnrollmentWizard) Complete(s *models.WizardSession, enrollment *models.Enrollment) error {
	if s.State != models.WizardStateSubmitting {
		return invalidState(s.State)
	}
	s.Enrollment = enrollment
	s.LastError = nil
	w.advance(s, models.WizardStateConfirmed)
	return nil
}

// Fail moves the session into error. A failed submission returns to reviewing on
// the next operation; other failures return to the state they happened in.
func (w *EnrollmentWizard) Fail(s *models.WizardSession, err error) {
	from := s.State
	if from == models.WizardStateSubmitting {
		from = models.WizardStateReviewing
	}
	if from == models.WizardStateError || from == models.WizardStateConfirmed {
		return
	}
	appErr := appErrors.FromError(err)
	s.LastError = &models.WizardError{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	s.ErrorFrom = from
	w.advance(s, models.WizardStateError)
}

func (w *EnrollmentWizard) check(verr *ValidationError, prefix string, value interface{}) error {
	if err := verr.merge(prefix, w.validate.Struct(value)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate step")
	}
	return nil
}

// expect recovers from error and checks the current state is one of allowed.
func (w *EnrollmentWizard) expect(s *models.WizardSession, allowed ...models.WizardState) error {
	w.recover(s)
	for _, state := range allowed {
		if s.State == state {
			return nil
		}
	}
	return invalidState(s.State)
}

// recover returns an errored session to the step it failed in. A loaded session still
// marked submitting never had its outcome recorded, so it goes back to review.
func (w *EnrollmentWizard) recover(s *models.WizardSession) {
	if s.State == models.WizardStateSubmitting {
		w.advance(s, models.WizardStateReviewing)
		return
	}
	if s.State != models.WizardStateError {
		return
	}
	back := s.ErrorFrom
	if back == "" {
		back = models.WizardStateReviewing
	}
	s.ErrorFrom = ""
	s.LastError = nil
	w.advance(s, back)
}

func (w *EnrollmentWizard) advance(s *models.WizardSession, to models.WizardState) {
	s.State = to
	s.UpdatedAt = w.clock().UTC()
}

func useJSONFieldNames(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func invalidState(state models.WizardState) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidState, "").
		WithDetails(map[string]interface{}{"state": string(state)})
}

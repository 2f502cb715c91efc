package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// ValidationError lists field-level failures of a wizard step, keyed by JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, rule string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = rule
	}
}

func (e *ValidationError) merge(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		e.add(prefix+fe.Field(), fe.Tag())
	}
	return nil
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return appErrors.Wrap(e, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message).
		WithDetails(map[string]interface{}{"fields": e.Fields})
}

// requirePrimaryGuardian flags the fields a primary guardian cannot be stored without.
func requirePrimaryGuardian(verr *ValidationError, g models.GuardianStep) {
	if models.CleanString(g.FullName) == nil {
		verr.add("primary_guardian.full_name", "required")
	}
	if models.CleanString(g.Phone) == nil {
		verr.add("primary_guardian.phone", "required")
	}
}

// missingPrimaryGuardian rejects a payload that cannot produce a primary guardian row.
func missingPrimaryGuardian(p models.WizardPayload) error {
	verr := &ValidationError{}
	requirePrimaryGuardian(verr, p.PrimaryGuardian)
	if len(verr.Fields) == 0 {
		return nil
	}
	return appErrors.Wrap(verr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message).
		WithDetails(map[string]interface{}{"fields": verr.Fields, "written": false})
}

// ReconciliationSchemaError is a student insert failure other than a missing year column.
// Nothing has been written when it is returned.
type ReconciliationSchemaError struct {
	Column string
	Err    error
}

func (e *ReconciliationSchemaError) Error() string {
	return fmt.Sprintf("reconcile student (year column %q): %v", e.Column, e.Err)
}

func (e *ReconciliationSchemaError) Unwrap() error { return e.Err }

// Writer steps, in execution order.
const (
	StepSignature            = "signature"
	StepEnrollment           = "enrollment"
	StepPrimaryGuardian      = "primary_guardian"
	StepSecondaryGuardian    = "secondary_guardian"
	StepFinancialResponsible = "financial_responsible"
	StepClassLink            = "class_link"
)

// PartialWriteError reports a failure after the enrollment row exists. Completed steps
// are durable; nothing is rolled back.
type PartialWriteError struct {
	EnrollmentID   string
	FailedStep     string
	CompletedSteps []string
	Err            error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("enrollment %s partially written: %s failed after %s: %v",
		e.EnrollmentID, e.FailedStep, strings.Join(e.CompletedSteps, ","), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func partialWrite(pw *PartialWriteError) *appErrors.Error {
	return appErrors.Wrap(pw, appErrors.ErrPartialWrite.Code, appErrors.ErrPartialWrite.Status, appErrors.ErrPartialWrite.Message).
		WithDetails(map[string]interface{}{
			"written":         true,
			"enrollment_id":   pw.EnrollmentID,
			"failed_step":     pw.FailedStep,
			"completed_steps": pw.CompletedSteps,
		})
}

// nothingWritten marks a failure before the enrollment row exists. written=false refers
// to the enrollment; a student reconciled earlier may already be stored.
func nothingWritten(err error, base *appErrors.Error, message string) *appErrors.Error {
	if message == "" {
		message = base.Message
	}
	return appErrors.Wrap(err, base.Code, base.Status, message).
		WithDetails(map[string]interface{}{"written": false})
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/database"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// Unique index guarding (tenant_id, year, sequence).
const enrollmentSequenceConstraint = "enrollments_tenant_year_sequence_key"

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type guardianStore interface {
	Create(ctx context.Context, guardian *models.Guardian) error
}

type financialResponsibleStore interface {
	Create(ctx context.Context, fr *models.FinancialResponsible) error
}

type signatureArchive interface {
	Store(ctx context.Context, tenantID, dataURL string) (string, error)
	Delete(ref string) error
}

type classLinker interface {
	Ensure(ctx context.Context, studentID, classSectionID, trigger string) (*models.ClassLinkResult, error)
}

type classLinkScheduler interface {
	Schedule(job ClassLinkJob) error
}

// WriteRequest is everything the writer needs for one submission.
type WriteRequest struct {
	TenantID     string
	Sequence     models.EnrollmentSequence
	Student      *models.Student
	ClassSection *models.ClassSection
	Payload      models.WizardPayload
}

// EnrollmentWriter persists an enrollment and its dependent rows as a sequence of
// independent writes. The enrollment row is always written first and the class link
// last; nothing already written is rolled back.
type EnrollmentWriter struct {
	enrollments enrollmentStore
	guardians   guardianStore
	financial   financialResponsibleStore
	signatures  signatureArchive
	links       classLinker
	retrier     classLinkScheduler
	clock       Clock
	logger      *zap.Logger
}

// NewEnrollmentWriter constructs an EnrollmentWriter. retrier may be nil.
func NewEnrollmentWriter(enrollments enrollmentStore, guardians guardianStore, financial financialResponsibleStore, signatures signatureArchive, links classLinker, retrier classLinkScheduler, clock Clock, logger *zap.Logger) *EnrollmentWriter {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentWriter{
		enrollments: enrollments,
		guardians:   guardians,
		financial:   financial,
		signatures:  signatures,
		links:       links,
		retrier:     retrier,
		clock:       clock,
		logger:      logger,
	}
}

// Write runs the submission writes in order. Failures before the enrollment row
// exists report written=false with the reconciled student id; later failures return
// a PartialWriteError. A payload without a usable primary guardian is rejected first.
func (w *EnrollmentWriter) Write(ctx context.Context, req WriteRequest) (*models.Enrollment, error) {
	payload := req.Payload
	payload.Sanitize()
	if err := missingPrimaryGuardian(payload); err != nil {
		return nil, err
	}

	var signatureRef *string
	if payload.Signature != nil && w.signatures != nil {
		ref, err := w.signatures.Store(ctx, req.TenantID, *payload.Signature)
		if err != nil {
			return nil, withStudent(nothingWritten(err, appErrors.ErrInternal, "failed to store signature"), req.Student)
		}
		signatureRef = &ref
	}

	enrollment := &models.Enrollment{
		TenantID:     req.TenantID,
		Number:       req.Sequence.Number,
		Year:         req.Sequence.Year,
		Sequence:     req.Sequence.Sequence,
		SignatureRef: signatureRef,
		SubmittedAt:  w.clock().UTC(),
		Status:       models.EnrollmentStatusPending,
	}
	if req.Student != nil {
		enrollment.StudentID = req.Student.ID
	}
	if req.ClassSection != nil {
		id := req.ClassSection.ID
		enrollment.ClassSectionID = &id
	}

	if err := w.enrollments.Create(ctx, enrollment); err != nil {
		if signatureRef != nil {
			if delErr := w.signatures.Delete(*signatureRef); delErr != nil {
				w.logger.Warn("failed to remove orphaned signature", zap.String("ref", *signatureRef), zap.Error(delErr))
			}
		}
		if database.IsUniqueViolation(err, enrollmentSequenceConstraint) {
			return nil, withStudent(nothingWritten(err, appErrors.ErrSequenceConflict, ""), req.Student).
				WithDetails(map[string]interface{}{"number": enrollment.Number})
		}
		return nil, withStudent(nothingWritten(err, appErrors.ErrInternal, "failed to create enrollment"), req.Student)
	}

	completed := []string{StepEnrollment}
	fail := func(step string, err error) *appErrors.Error {
		pw := &PartialWriteError{EnrollmentID: enrollment.ID, FailedStep: step, CompletedSteps: append([]string(nil), completed...), Err: err}
		w.logger.Error("enrollment partially written",
			zap.String("tenant_id", req.TenantID),
			zap.String("enrollment_id", enrollment.ID),
			zap.String("number", enrollment.Number),
			zap.String("failed_step", step),
			zap.Strings("completed_steps", pw.CompletedSteps),
			zap.Error(err))
		return partialWrite(pw)
	}

	if err := w.guardians.Create(ctx, guardianRow(enrollment.ID, models.GuardianRolePrimary, payload.PrimaryGuardian)); err != nil {
		return nil, fail(StepPrimaryGuardian, err)
	}
	completed = append(completed, StepPrimaryGuardian)

	if !payload.SecondaryGuardian.IsBlank() {
		if err := w.guardians.Create(ctx, guardianRow(enrollment.ID, models.GuardianRoleSecondary, payload.SecondaryGuardian)); err != nil {
			return nil, fail(StepSecondaryGuardian, err)
		}
		completed = append(completed, StepSecondaryGuardian)
	}

	if err := w.financial.Create(ctx, financialRow(enrollment.ID, payload.FinancialResponsible)); err != nil {
		return nil, fail(StepFinancialResponsible, err)
	}
	completed = append(completed, StepFinancialResponsible)

	if enrollment.StudentID != "" && enrollment.ClassSectionID != nil {
		if _, err := w.links.Ensure(ctx, enrollment.StudentID, *enrollment.ClassSectionID, ClassLinkTriggerSubmission); err != nil {
			scheduled := w.scheduleRetry(enrollment)
			return nil, fail(StepClassLink, err).WithDetails(map[string]interface{}{"class_link_retry_scheduled": scheduled})
		}
	}

	return enrollment, nil
}

func withStudent(err *appErrors.Error, student *models.Student) *appErrors.Error {
	if student == nil || student.ID == "" {
		return err
	}
	return err.WithDetails(map[string]interface{}{"student_id": student.ID})
}

func (w *EnrollmentWriter) scheduleRetry(enrollment *models.Enrollment) bool {
	if w.retrier == nil {
		return false
	}
	err := w.retrier.Schedule(ClassLinkJob{
		EnrollmentID:   enrollment.ID,
		StudentID:      enrollment.StudentID,
		ClassSectionID: *enrollment.ClassSectionID,
	})
	if err != nil {
		w.logger.Warn("failed to schedule class link retry", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		return false
	}
	return true
}

func guardianRow(enrollmentID string, role models.GuardianRole, step models.GuardianStep) *models.Guardian {
	return &models.Guardian{
		EnrollmentID: enrollmentID,
		Role:         role,
		FullName:     step.FullName,
		NationalID:   step.NationalID,
		BirthDate:    parseDate(step.BirthDate),
		Phone:        step.Phone,
		Email:        step.Email,
		Occupation:   step.Occupation,
	}
}

func financialRow(enrollmentID string, step models.FinancialResponsibleStep) *models.FinancialResponsible {
	return &models.FinancialResponsible{
		EnrollmentID: enrollmentID,
		FullName:     step.FullName,
		NationalID:   step.NationalID,
		PostalCode:   step.PostalCode,
		Street:       step.Street,
		Number:       step.Number,
		Complement:   step.Complement,
		District:     step.District,
		City:         step.City,
		Region:       step.Region,
		Phone:        step.Phone,
		Email:        step.Email,
	}
}

// parseDate reads a YYYY-MM-DD value; anything else is stored as null.
func parseDate(v *string) *time.Time {
	if v == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *v)
	if err != nil {
		return nil
	}
	return &t
}

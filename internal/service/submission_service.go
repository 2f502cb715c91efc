package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type classSectionReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.ClassSection, error)
}

type studentReconciler interface {
	Reconcile(ctx context.Context, tenantID string, input StudentInput) (*models.Student, error)
}

type enrollmentWriter interface {
	Write(ctx context.Context, req WriteRequest) (*models.Enrollment, error)
}

// SubmissionService runs allocate, reconcile and write for one confirmed wizard, in that order.
type SubmissionService struct {
	allocator  SequenceAllocator
	sections   classSectionReader
	reconciler studentReconciler
	writer     enrollmentWriter
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(allocator SequenceAllocator, sections classSectionReader, reconciler studentReconciler, writer enrollmentWriter, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		allocator:  allocator,
		sections:   sections,
		reconciler: reconciler,
		writer:     writer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Submit persists a validated payload and returns the new enrollment.
func (s *SubmissionService) Submit(ctx context.Context, tenantID string, payload models.WizardPayload) (*models.Enrollment, error) {
	enrollment, err := s.submit(ctx, tenantID, payload)
	s.metrics.RecordSubmission(submissionOutcome(err))
	if err != nil {
		return nil, err
	}
	s.logger.Info("enrollment submitted",
		zap.String("tenant_id", tenantID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("number", enrollment.Number))
	return enrollment, nil
}

func (s *SubmissionService) submit(ctx context.Context, tenantID string, payload models.WizardPayload) (*models.Enrollment, error) {
	payload.Sanitize()
	if err := missingPrimaryGuardian(payload); err != nil {
		return nil, err
	}

	seq, err := s.allocator.Next(ctx, tenantID)
	if err != nil {
		return nil, appErrors.FromError(err).WithDetails(map[string]interface{}{"written": false})
	}

	section, err := s.resolveSection(ctx, tenantID, payload.Student.ClassSectionID)
	if err != nil {
		return nil, err
	}

	input := StudentInput{
		EnrollmentNumber: seq.Number,
		FullName:         models.StringValue(payload.Student.FullName),
		BirthDate:        parseDate(payload.Student.BirthDate),
		Year:             seq.Year,
	}
	if section != nil {
		name := section.Name
		input.ClassSectionName = &name
	}
	student, err := s.reconciler.Reconcile(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	return s.writer.Write(ctx, WriteRequest{
		TenantID:     tenantID,
		Sequence:     seq,
		Student:      student,
		ClassSection: section,
		Payload:      payload,
	})
}

// resolveSection returns nil when no section was chosen or it no longer exists; the
// enrollment is then written without a class link.
func (s *SubmissionService) resolveSection(ctx context.Context, tenantID string, id *string) (*models.ClassSection, error) {
	if id == nil || s.sections == nil {
		return nil, nil
	}
	section, err := s.sections.FindByID(ctx, tenantID, *id)
	if err != nil {
		return nil, nothingWritten(err, appErrors.ErrInternal, "failed to load class section")
	}
	if section == nil {
		s.logger.Warn("class section not found, enrollment will not be linked",
			zap.String("tenant_id", tenantID), zap.String("class_section_id", *id))
	}
	return section, nil
}

func submissionOutcome(err error) string {
	var pw *PartialWriteError
	switch {
	case err == nil:
		return OutcomeConfirmed
	case errors.As(err, &pw):
		return OutcomePartialWrite
	case errors.Is(err, appErrors.ErrSequenceConflict):
		return OutcomeSequenceConflict
	case errors.Is(err, appErrors.ErrReconciliation):
		return OutcomeReconciliationErr
	default:
		return OutcomeNothingWritten
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type fakeSections struct {
	sections map[string]models.ClassSection
	err      error
}

func (f *fakeSections) FindByID(ctx context.Context, tenantID, id string) (*models.ClassSection, error) {
	if f.err != nil {
		return nil, f.err
	}
	section, ok := f.sections[id]
	if !ok || section.TenantID != tenantID {
		return nil, nil
	}
	return &section, nil
}

type submissionFixture struct {
	writer   *writerFixture
	students *fakeStudentTable
	sections *fakeSections
	metrics  *MetricsService
	service  *SubmissionService
}

func newSubmissionFixture(strategy string) *submissionFixture {
	wf := newWriterFixture()
	students := newFakeStudentTable("school_year")
	sections := &fakeSections{sections: map[string]models.ClassSection{
		"c0a8012e-0000-4000-8000-000000000001": {ID: "c0a8012e-0000-4000-8000-000000000001", TenantID: "T1", Name: "1A", Year: 2025},
	}}
	metrics := NewMetricsService()
	allocator := NewSequenceAllocator(strategy, wf.enrollments, &fakeCounter{}, fixedClock(2025), metrics)
	reconciler := NewStudentReconciler(students, NewStudentSchema(config.EnrollmentConfig{}), metrics, nil)
	return &submissionFixture{
		writer:   wf,
		students: students,
		sections: sections,
		metrics:  metrics,
		service:  NewSubmissionService(allocator, sections, reconciler, wf.writer, metrics, nil),
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyMax)
	payload := janeDoePayload()
	payload.Student.ClassSectionID = sp("c0a8012e-0000-4000-8000-000000000001")

	enrollment, err := f.service.Submit(context.Background(), "T1", payload)
	require.NoError(t, err)
	assert.Equal(t, "2025-00001", enrollment.Number)

	require.Len(t, f.students.rows, 1)
	assert.Equal(t, "2025-00001", f.students.rows[0].EnrollmentNumber)
	assert.Equal(t, "1A", *f.students.rows[0].ClassSectionName)
	assert.Equal(t, f.students.rows[0].ID, enrollment.StudentID)
	assert.Equal(t, 1, f.writer.links.count())

	second, err := f.service.Submit(context.Background(), "T1", payload)
	require.NoError(t, err)
	assert.Equal(t, "2025-00002", second.Number)
	assert.Len(t, f.students.rows, 2)
}

func TestSubmitUnknownSectionSkipsLink(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyCounter)
	payload := janeDoePayload()
	payload.Student.ClassSectionID = sp("c0a8012e-0000-4000-8000-0000000000ff")

	enrollment, err := f.service.Submit(context.Background(), "T1", payload)
	require.NoError(t, err)
	assert.Nil(t, enrollment.ClassSectionID)
	assert.Zero(t, f.writer.links.count())
}

func TestSubmitReconciliationFailureWritesNoEnrollment(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyCounter)
	f.students.createErr = errors.New("permission denied")

	_, err := f.service.Submit(context.Background(), "T1", janeDoePayload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrReconciliation))
	assert.Zero(t, f.writer.enrollments.count())
	assert.Equal(t, OutcomeReconciliationErr, submissionOutcome(err))
}

func TestSubmitAllocatorFailure(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyMax)
	f.writer.enrollments.maxErr = errors.New("down")

	_, err := f.service.Submit(context.Background(), "T1", janeDoePayload())
	require.Error(t, err)
	assert.Equal(t, false, appErrors.FromError(err).Details["written"])
	assert.Empty(t, f.students.rows)
}

func TestSubmissionOutcome(t *testing.T) {
	assert.Equal(t, OutcomeConfirmed, submissionOutcome(nil))
	assert.Equal(t, OutcomePartialWrite, submissionOutcome(partialWrite(&PartialWriteError{FailedStep: StepClassLink})))
	assert.Equal(t, OutcomeSequenceConflict, submissionOutcome(appErrors.Clone(appErrors.ErrSequenceConflict, "")))
	assert.Equal(t, OutcomeNothingWritten, submissionOutcome(errors.New("boom")))
}

func TestSubmitRejectsMissingPrimaryGuardianBeforeAnyWrite(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyMax)
	payload := janeDoePayload()
	payload.PrimaryGuardian.Phone = nil

	_, err := f.service.Submit(context.Background(), "T1", payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.students.rows)
	assert.Zero(t, f.writer.enrollments.count())
}

func TestSubmitEnrollmentFailureReportsReconciledStudent(t *testing.T) {
	f := newSubmissionFixture(config.SequenceStrategyMax)
	f.writer.enrollments.createErr = errors.New("connection reset")

	_, err := f.service.Submit(context.Background(), "T1", janeDoePayload())
	require.Error(t, err)
	require.Len(t, f.students.rows, 1)
	details := appErrors.FromError(err).Details
	assert.Equal(t, false, details["written"])
	assert.Equal(t, f.students.rows[0].ID, details["student_id"])
}

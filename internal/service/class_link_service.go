package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
	"github.com/noah-isme/sma-admission-api/pkg/jobs"
)

// Class-link triggers, used as a metrics label.
const (
	ClassLinkTriggerSubmission = "submission"
	ClassLinkTriggerRetry      = "retry"
	ClassLinkTriggerManual     = "manual"
)

type classLinkStore interface {
	Find(ctx context.Context, studentID, classSectionID string) (*models.ClassLink, error)
	Create(ctx context.Context, link *models.ClassLink) error
}

// ClassLinkService associates students with class sections, at most once per pair.
type ClassLinkService struct {
	links   classLinkStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewClassLinkService constructs a ClassLinkService.
func NewClassLinkService(links classLinkStore, metrics *MetricsService, logger *zap.Logger) *ClassLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassLinkService{links: links, metrics: metrics, logger: logger}
}

// Ensure looks the pair up and inserts a link only when none exists.
func (s *ClassLinkService) Ensure(ctx context.Context, studentID, classSectionID, trigger string) (*models.ClassLinkResult, error) {
	result, err := s.ensure(ctx, studentID, classSectionID)
	s.metrics.RecordClassLink(trigger, err)
	return result, err
}

func (s *ClassLinkService) ensure(ctx context.Context, studentID, classSectionID string) (*models.ClassLinkResult, error) {
	existing, err := s.links.Find(ctx, studentID, classSectionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.ClassLinkResult{Link: *existing}, nil
	}
	link := &models.ClassLink{StudentID: studentID, ClassSectionID: classSectionID}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	return &models.ClassLinkResult{Link: *link, Created: true}, nil
}

// ClassLinkJob is the payload of a queued class-link retry.
type ClassLinkJob struct {
	EnrollmentID   string
	StudentID      string
	ClassSectionID string
}

// ClassLinkRetrier retries failed class links in the background.
type ClassLinkRetrier struct {
	links   *ClassLinkService
	queue   *jobs.Queue
	enabled bool
	metrics *MetricsService
	logger  *zap.Logger
}

// NewClassLinkRetrier builds the retry queue. A disabled retrier accepts nothing and
// leaves reconciliation to the manual endpoint.
func NewClassLinkRetrier(links *ClassLinkService, cfg config.ClassLinkRetryConfig, metrics *MetricsService, logger *zap.Logger) *ClassLinkRetrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ClassLinkRetrier{links: links, enabled: cfg.Enabled, metrics: metrics, logger: logger}
	r.queue = jobs.NewQueue("class-link-retry", r.handle, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		OnExhausted: r.exhausted,
	})
	return r
}

// Start launches the workers.
func (r *ClassLinkRetrier) Start(ctx context.Context) {
	if r.enabled {
		r.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (r *ClassLinkRetrier) Stop() {
	r.queue.Stop()
}

// Schedule queues a retry for the enrollment. A retry already in flight for the same
// enrollment is not duplicated.
func (r *ClassLinkRetrier) Schedule(job ClassLinkJob) error {
	if !r.enabled {
		return nil
	}
	err := r.queue.Enqueue(jobs.Job{
		ID:       uuid.NewString(),
		Key:      job.EnrollmentID,
		Type:     "class_link",
		Payload:  job,
		Enqueued: time.Now().UTC(),
	})
	if errors.Is(err, jobs.ErrDuplicate) {
		return nil
	}
	return err
}

// Pending reports whether a retry is queued for the enrollment.
func (r *ClassLinkRetrier) Pending(enrollmentID string) bool {
	return r.queue.Pending(enrollmentID)
}

func (r *ClassLinkRetrier) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ClassLinkJob)
	if !ok {
		return fmt.Errorf("unexpected class link payload %T", job.Payload)
	}
	result, err := r.links.Ensure(ctx, payload.StudentID, payload.ClassSectionID, ClassLinkTriggerRetry)
	if err != nil {
		return err
	}
	r.logger.Info("class link reconciled",
		zap.String("enrollment_id", payload.EnrollmentID),
		zap.String("student_id", payload.StudentID),
		zap.String("class_section_id", payload.ClassSectionID),
		zap.Bool("created", result.Created))
	return nil
}

func (r *ClassLinkRetrier) exhausted(job jobs.Job, err error) {
	payload, _ := job.Payload.(ClassLinkJob)
	r.logger.Error("class link retries exhausted, manual reconciliation required",
		zap.String("enrollment_id", payload.EnrollmentID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
}

func classLinkFailure(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link student to class section")
}

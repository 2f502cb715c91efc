package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentListItem, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Enrollment, error)
}

type studentReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Student, error)
}

type guardianReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Guardian, error)
}

type financialResponsibleReader interface {
	FindByEnrollment(ctx context.Context, enrollmentID string) (*models.FinancialResponsible, error)
}

type classLinkFinder interface {
	Find(ctx context.Context, studentID, classSectionID string) (*models.ClassLink, error)
}

type signatureLinker interface {
	SignedURL(enrollmentID, ref string) (string, time.Time, error)
}

// EnrollmentServiceDeps groups the admin read side collaborators.
type EnrollmentServiceDeps struct {
	Enrollments enrollmentRepository
	Students    studentReader
	Guardians   guardianReader
	Financial   financialResponsibleReader
	Sections    classSectionReader
	LinkFinder  classLinkFinder
	Linker      classLinker
	Signatures  signatureLinker
	APIPrefix   string
	Logger      *zap.Logger
}

// EnrollmentService is the administrator view of submitted enrollments.
type EnrollmentService struct {
	enrollments enrollmentRepository
	students    studentReader
	guardians   guardianReader
	financial   financialResponsibleReader
	sections    classSectionReader
	linkFinder  classLinkFinder
	linker      classLinker
	signatures  signatureLinker
	apiPrefix   string
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(deps EnrollmentServiceDeps) *EnrollmentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	prefix := strings.TrimRight(deps.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &EnrollmentService{
		enrollments: deps.Enrollments,
		students:    deps.Students,
		guardians:   deps.Guardians,
		financial:   deps.Financial,
		sections:    deps.Sections,
		linkFinder:  deps.LinkFinder,
		linker:      deps.Linker,
		signatures:  deps.Signatures,
		apiPrefix:   prefix,
		logger:      deps.Logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentListItem, *models.Pagination, error) {
	items, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Detail loads one enrollment with every dependent record written for it.
func (s *EnrollmentService) Detail(ctx context.Context, tenantID, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	detail := &models.EnrollmentDetail{Enrollment: *enrollment, Guardians: []models.Guardian{}}

	if enrollment.StudentID != "" {
		detail.Student, err = s.students.FindByID(ctx, tenantID, enrollment.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
	}
	if enrollment.ClassSectionID != nil {
		detail.ClassSection, err = s.sections.FindByID(ctx, tenantID, *enrollment.ClassSectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
		}
		if enrollment.StudentID != "" {
			link, err := s.linkFinder.Find(ctx, enrollment.StudentID, *enrollment.ClassSectionID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class link")
			}
			detail.ClassLinked = link != nil
		}
	}

	guardians, err := s.guardians.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardians")
	}
	if guardians != nil {
		detail.Guardians = guardians
	}
	detail.FinancialResponsible, err = s.financial.FindByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load financial responsible")
	}

	if enrollment.SignatureRef != nil && s.signatures != nil {
		token, expiresAt, err := s.signatures.SignedURL(enrollment.ID, *enrollment.SignatureRef)
		if err != nil {
			s.logger.Warn("failed to sign signature url", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		} else {
			detail.SignatureURL = fmt.Sprintf("%s/signatures/%s", s.apiPrefix, token)
			detail.SignatureURLExpiresAt = &expiresAt
		}
	}
	return detail, nil
}

// LinkClass runs the class-link find-or-insert for an enrollment whose link failed.
func (s *EnrollmentService) LinkClass(ctx context.Context, tenantID, id string) (*models.ClassLinkResult, error) {
	enrollment, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if enrollment.StudentID == "" || enrollment.ClassSectionID == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment has no class section to link")
	}
	result, err := s.linker.Ensure(ctx, enrollment.StudentID, *enrollment.ClassSectionID, ClassLinkTriggerManual)
	if err != nil {
		return nil, classLinkFailure(err)
	}
	s.logger.Info("class link reconciled manually",
		zap.String("tenant_id", tenantID),
		zap.String("enrollment_id", id),
		zap.Bool("created", result.Created))
	return result, nil
}

func (s *EnrollmentService) load(ctx context.Context, tenantID, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return enrollment, nil
}

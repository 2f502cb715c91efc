package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	"github.com/noah-isme/sma-admission-api/pkg/database"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type studentStore interface {
	FindByEnrollmentNumber(ctx context.Context, tenantID, number string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student, yearColumn string) error
	YearColumns(ctx context.Context, candidates []string) ([]string, error)
}

// Schema resolution sources.
const (
	schemaSourcePinned     = "pinned"
	schemaSourceIntrospect = "introspection"
	schemaSourceProbe      = "probe"
)

// StudentSchema remembers which year column the students table carries. It is owned
// by whoever builds the reconciler, and Reset makes tests deterministic.
type StudentSchema struct {
	mu        sync.Mutex
	pinned    string
	preferred string
	legacy    string
	resolved  string
}

// NewStudentSchema builds the capability cache from configuration.
func NewStudentSchema(cfg config.EnrollmentConfig) *StudentSchema {
	preferred := cfg.StudentYearColumnPreferred
	if preferred == "" {
		preferred = "school_year"
	}
	legacy := cfg.StudentYearColumnLegacy
	if legacy == "" {
		legacy = "year"
	}
	return &StudentSchema{pinned: cfg.StudentYearColumn, preferred: preferred, legacy: legacy}
}

// Preferred returns the evolved column name.
func (s *StudentSchema) Preferred() string { return s.preferred }

// Legacy returns the historical column name.
func (s *StudentSchema) Legacy() string { return s.legacy }

// Resolved returns the known column, or "" if nothing is known yet.
func (s *StudentSchema) Resolved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned != "" {
		return s.pinned
	}
	return s.resolved
}

// Remember records a column proven by a successful write.
func (s *StudentSchema) Remember(column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = column
}

// Reset forgets anything learned at runtime. A pinned column survives.
func (s *StudentSchema) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = ""
}

// pin returns the configured column, if any.
func (s *StudentSchema) pin() string { return s.pinned }

// StudentReconciler finds or creates the student for (tenant, enrollment number).
type StudentReconciler struct {
	students studentStore
	schema   *StudentSchema
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewStudentReconciler constructs a StudentReconciler.
func NewStudentReconciler(students studentStore, schema *StudentSchema, metrics *MetricsService, logger *zap.Logger) *StudentReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schema == nil {
		schema = NewStudentSchema(config.EnrollmentConfig{})
	}
	return &StudentReconciler{students: students, schema: schema, metrics: metrics, logger: logger}
}

// StudentInput carries the attributes of a student to reconcile.
type StudentInput struct {
	EnrollmentNumber string
	FullName         string
	BirthDate        *time.Time
	ClassSectionName *string
	Year             int
}

// Reconcile returns the existing student for the number or inserts a new one. The
// year column is taken from the schema cache; without a pinned or introspected
// answer the preferred column is tried first and, only on an undefined-column
// error for it, the legacy column.
func (r *StudentReconciler) Reconcile(ctx context.Context, tenantID string, input StudentInput) (*models.Student, error) {
	existing, err := r.students.FindByEnrollmentNumber(ctx, tenantID, input.EnrollmentNumber)
	if err != nil {
		return nil, nothingWritten(err, appErrors.ErrReconciliation, "")
	}
	if existing != nil {
		return existing, nil
	}

	student := &models.Student{
		TenantID:         tenantID,
		FullName:         input.FullName,
		BirthDate:        input.BirthDate,
		EnrollmentNumber: input.EnrollmentNumber,
		ClassSectionName: input.ClassSectionName,
		Year:             input.Year,
	}

	column := r.resolveColumn(ctx)
	err = r.students.Create(ctx, student, column)
	if err == nil {
		r.schema.Remember(column)
		return student, nil
	}

	if r.schema.pin() == "" && column == r.schema.Preferred() && column != r.schema.Legacy() && database.IsUndefinedColumn(err, column) {
		r.logger.Info("students year column missing, retrying with legacy name",
			zap.String("tenant_id", tenantID), zap.String("column", column), zap.String("legacy", r.schema.Legacy()))
		student.ID = ""
		legacy := r.schema.Legacy()
		if err = r.students.Create(ctx, student, legacy); err == nil {
			r.schema.Remember(legacy)
			r.metrics.RecordSchemaResolution(schemaSourceProbe, legacy)
			return student, nil
		}
		column = legacy
	}

	return nil, nothingWritten(&ReconciliationSchemaError{Column: column, Err: err}, appErrors.ErrReconciliation, "")
}

func (r *StudentReconciler) resolveColumn(ctx context.Context) string {
	if pinned := r.schema.pin(); pinned != "" {
		return pinned
	}
	if known := r.schema.Resolved(); known != "" {
		return known
	}

	columns, err := r.students.YearColumns(ctx, []string{r.schema.Preferred(), r.schema.Legacy()})
	if err != nil {
		r.logger.Warn("students schema introspection failed, probing by write", zap.Error(err))
		return r.schema.Preferred()
	}
	for _, candidate := range []string{r.schema.Preferred(), r.schema.Legacy()} {
		for _, col := range columns {
			if col == candidate {
				r.schema.Remember(candidate)
				r.metrics.RecordSchemaResolution(schemaSourceIntrospect, candidate)
				return candidate
			}
		}
	}
	return r.schema.Preferred()
}

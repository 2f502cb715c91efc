package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-admission-api/internal/models"
)

var columnIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, tenant_id, full_name, birth_date, enrollment_number, class_section_name, created_at`

// FindByEnrollmentNumber returns the student for (tenant, number), or nil when absent.
func (r *StudentRepository) FindByEnrollmentNumber(ctx context.Context, tenantID, number string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE tenant_id = $1 AND enrollment_number = $2 ORDER BY created_at ASC LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, tenantID, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student by enrollment number: %w", err)
	}
	return &student, nil
}

// FindByID fetches a student within the tenant, or nil when absent.
func (r *StudentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE tenant_id = $1 AND id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// Create inserts a student, writing Year into yearColumn. The caller decides which
// column the schema supports; an unknown column comes back as a pq undefined_column error.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, yearColumn string) error {
	if !columnIdent.MatchString(yearColumn) {
		return fmt.Errorf("create student: invalid year column %q", yearColumn)
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf(`INSERT INTO students (id, tenant_id, full_name, birth_date, enrollment_number, class_section_name, %s, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, pq.QuoteIdentifier(yearColumn))
	if _, err := r.db.ExecContext(ctx, query,
		student.ID, student.TenantID, student.FullName, student.BirthDate,
		student.EnrollmentNumber, student.ClassSectionName, student.Year, student.CreatedAt,
	); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// YearColumns reports which of the candidate columns exist on the students table.
func (r *StudentRepository) YearColumns(ctx context.Context, candidates []string) ([]string, error) {
	const query = `SELECT column_name FROM information_schema.columns
        WHERE table_schema = current_schema() AND table_name = 'students' AND column_name = ANY($1)`
	var columns []string
	if err := r.db.SelectContext(ctx, &columns, query, pq.Array(candidates)); err != nil {
		return nil, fmt.Errorf("introspect student columns: %w", err)
	}
	return columns, nil
}

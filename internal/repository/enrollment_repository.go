package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admission-api/internal/models"
)

// EnrollmentRepository persists enrollment rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a new enrollment. A clash on (tenant_id, year, sequence) surfaces as a
// pq unique violation on enrollments_tenant_year_sequence_key.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.SubmittedAt.IsZero() {
		enrollment.SubmittedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	const query = `INSERT INTO enrollments (id, tenant_id, student_id, class_section_id, number, year, sequence, signature_ref, submitted_at, status)
        VALUES (:id, :tenant_id, :student_id, :class_section_id, :number, :year, :sequence, :signature_ref, :submitted_at, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// MaxSequence returns the highest sequence used by the tenant in the year, or 0.
func (r *EnrollmentRepository) MaxSequence(ctx context.Context, tenantID string, year int) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM enrollments WHERE tenant_id = $1 AND year = $2`
	var max int
	if err := r.db.GetContext(ctx, &max, query, tenantID, year); err != nil {
		return 0, fmt.Errorf("max enrollment sequence: %w", err)
	}
	return max, nil
}

// FindByID fetches an enrollment scoped to the tenant. It returns nil when missing.
func (r *EnrollmentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Enrollment, error) {
	const query = `SELECT id, tenant_id, student_id, class_section_id, number, year, sequence, signature_ref, submitted_at, status
        FROM enrollments WHERE tenant_id = $1 AND id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &enrollment, nil
}

// List returns a page of enrollments with student and class names.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentListItem, int, error) {
	base := `FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN class_sections cs ON cs.id = e.class_section_id`
	args := []interface{}{filter.TenantID}
	conditions := []string{"e.tenant_id = $1"}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("e.year = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.number) LIKE $%d OR LOWER(s.full_name) LIKE $%d)", len(args), len(args)))
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"number":       "e.number",
		"submitted_at": "e.submitted_at",
		"student_name": "s.full_name",
		"sequence":     "e.sequence",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.tenant_id, e.student_id, e.class_section_id, e.number, e.year, e.sequence, e.signature_ref, e.submitted_at, e.status,
        s.full_name AS student_name, cs.name AS class_section_name,
        EXISTS (SELECT 1 FROM class_links cl WHERE cl.student_id = e.student_id AND cl.class_section_id = e.class_section_id) AS class_linked
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var items []models.EnrollmentListItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return items, total, nil
}

// normalizePage clamps paging input. Exports pass a page size of -1 to lift the cap.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size == -1:
		size = 10000
	case size <= 0 || size > 100:
		size = 20
	}
	return page, size
}

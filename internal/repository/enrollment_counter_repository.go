package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnrollmentCounterRepository hands out per-tenant, per-year sequence values atomically.
type EnrollmentCounterRepository struct {
	db *sqlx.DB
}

// NewEnrollmentCounterRepository constructs the repository.
func NewEnrollmentCounterRepository(db *sqlx.DB) *EnrollmentCounterRepository {
	return &EnrollmentCounterRepository{db: db}
}

// Next increments the counter row and returns the new value. The first call for a
// (tenant, year) seeds the row from the highest sequence already in enrollments so
// switching strategies never reissues a number.
func (r *EnrollmentCounterRepository) Next(ctx context.Context, tenantID string, year int) (int, error) {
	const query = `INSERT INTO enrollment_counters (tenant_id, year, value)
        VALUES ($1, $2, COALESCE((SELECT MAX(sequence) FROM enrollments WHERE tenant_id = $1 AND year = $2), 0) + 1)
        ON CONFLICT (tenant_id, year) DO UPDATE SET value = enrollment_counters.value + 1
        RETURNING value`
	var value int
	if err := r.db.GetContext(ctx, &value, query, tenantID, year); err != nil {
		return 0, fmt.Errorf("increment enrollment counter: %w", err)
	}
	return value, nil
}

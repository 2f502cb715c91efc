package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admission-api/internal/models"
)

// GuardianRepository persists guardians attached to enrollments.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository constructs a GuardianRepository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// Create inserts a guardian row.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	if guardian.CreatedAt.IsZero() {
		guardian.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO guardians (id, enrollment_id, role, full_name, national_id, birth_date, phone, email, occupation, created_at)
        VALUES (:id, :enrollment_id, :role, :full_name, :national_id, :birth_date, :phone, :email, :occupation, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("create %s guardian: %w", guardian.Role, err)
	}
	return nil
}

// ListByEnrollment returns the guardians of an enrollment, primary first.
func (r *GuardianRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Guardian, error) {
	const query = `SELECT id, enrollment_id, role, full_name, national_id, birth_date, phone, email, occupation, created_at
        FROM guardians WHERE enrollment_id = $1 ORDER BY CASE role WHEN 'primary' THEN 0 ELSE 1 END, created_at`
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return guardians, nil
}

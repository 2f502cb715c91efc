package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admission-api/internal/models"
)

// FinancialResponsibleRepository persists the billed party of an enrollment.
type FinancialResponsibleRepository struct {
	db *sqlx.DB
}

// NewFinancialResponsibleRepository constructs the repository.
func NewFinancialResponsibleRepository(db *sqlx.DB) *FinancialResponsibleRepository {
	return &FinancialResponsibleRepository{db: db}
}

// Create inserts a financial responsible row.
func (r *FinancialResponsibleRepository) Create(ctx context.Context, fr *models.FinancialResponsible) error {
	if fr.ID == "" {
		fr.ID = uuid.NewString()
	}
	if fr.CreatedAt.IsZero() {
		fr.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO financial_responsible (id, enrollment_id, full_name, national_id, postal_code, street, number, complement, district, city, region, phone, email, created_at)
        VALUES (:id, :enrollment_id, :full_name, :national_id, :postal_code, :street, :number, :complement, :district, :city, :region, :phone, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fr); err != nil {
		return fmt.Errorf("create financial responsible: %w", err)
	}
	return nil
}

// FindByEnrollment returns the financial responsible of an enrollment, or nil.
func (r *FinancialResponsibleRepository) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.FinancialResponsible, error) {
	const query = `SELECT id, enrollment_id, full_name, national_id, postal_code, street, number, complement, district, city, region, phone, email, created_at
        FROM financial_responsible WHERE enrollment_id = $1 ORDER BY created_at LIMIT 1`
	var fr models.FinancialResponsible
	if err := r.db.GetContext(ctx, &fr, query, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get financial responsible: %w", err)
	}
	return &fr, nil
}

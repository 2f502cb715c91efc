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

// ClassSectionRepository reads class sections. Section CRUD lives elsewhere.
type ClassSectionRepository struct {
	db *sqlx.DB
}

// NewClassSectionRepository constructs a ClassSectionRepository.
func NewClassSectionRepository(db *sqlx.DB) *ClassSectionRepository {
	return &ClassSectionRepository{db: db}
}

// FindByID fetches a section within the tenant, or nil when absent.
func (r *ClassSectionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.ClassSection, error) {
	const query = `SELECT id, tenant_id, name, year FROM class_sections WHERE tenant_id = $1 AND id = $2`
	var section models.ClassSection
	if err := r.db.GetContext(ctx, &section, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class section: %w", err)
	}
	return &section, nil
}

// ClassLinkRepository persists student to class-section links.
type ClassLinkRepository struct {
	db *sqlx.DB
}

// NewClassLinkRepository constructs a ClassLinkRepository.
func NewClassLinkRepository(db *sqlx.DB) *ClassLinkRepository {
	return &ClassLinkRepository{db: db}
}

// Find returns the link for the pair, or nil.
func (r *ClassLinkRepository) Find(ctx context.Context, studentID, classSectionID string) (*models.ClassLink, error) {
	const query = `SELECT id, student_id, class_section_id, created_at FROM class_links
        WHERE student_id = $1 AND class_section_id = $2 ORDER BY created_at LIMIT 1`
	var link models.ClassLink
	if err := r.db.GetContext(ctx, &link, query, studentID, classSectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find class link: %w", err)
	}
	return &link, nil
}

// Create inserts a link row.
func (r *ClassLinkRepository) Create(ctx context.Context, link *models.ClassLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO class_links (id, student_id, class_section_id, created_at) VALUES (:id, :student_id, :class_section_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create class link: %w", err)
	}
	return nil
}

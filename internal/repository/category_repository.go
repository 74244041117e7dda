package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hakplan/hakplan-api/internal/models"
)

// CategoryRepository handles persistence for evaluation categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListBySubject returns categories for a subject ordered by weight descending.
func (r *CategoryRepository) ListBySubject(ctx context.Context, subjectID string, activeOnly bool) ([]models.EvaluationCategory, error) {
	query := `SELECT id, subject_id, name, kind, weight, max_score, description, active, created_at, updated_at
        FROM evaluation_categories WHERE subject_id = $1`
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY weight DESC, name ASC"

	var categories []models.EvaluationCategory
	if err := r.db.SelectContext(ctx, &categories, query, subjectID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.EvaluationCategory, error) {
	const query = `SELECT id, subject_id, name, kind, weight, max_score, description, active, created_at, updated_at
        FROM evaluation_categories WHERE id = $1`
	var category models.EvaluationCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create persists a new evaluation category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.EvaluationCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	const query = `INSERT INTO evaluation_categories (id, subject_id, name, kind, weight, max_score, description, active, created_at, updated_at)
        VALUES (:id, :subject_id, :name, :kind, :weight, :max_score, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies an evaluation category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.EvaluationCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluation_categories SET name = :name, kind = :kind, weight = :weight, max_score = :max_score,
        description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag on a category.
func (r *CategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE evaluation_categories SET active = $1, updated_at = NOW() WHERE id = $2`, active, id); err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	return nil
}

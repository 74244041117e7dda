package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hakplan/hakplan-api/internal/models"
)

// ComputedGradeRepository stores final-score snapshots. The table is
// append-only; rows are never updated or deleted.
type ComputedGradeRepository struct {
	db *sqlx.DB
}

// NewComputedGradeRepository creates a new computed grade repository.
func NewComputedGradeRepository(db *sqlx.DB) *ComputedGradeRepository {
	return &ComputedGradeRepository{db: db}
}

// Insert appends a new snapshot.
func (r *ComputedGradeRepository) Insert(ctx context.Context, grade *models.ComputedGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO computed_grades (id, user_id, subject_id, exam_type, final_score, component_scores, created_at)
        VALUES (:id, :user_id, :subject_id, :exam_type, :final_score, :component_scores, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("insert computed grade: %w", err)
	}
	return nil
}

// List returns snapshots newest-first with pagination metadata.
func (r *ComputedGradeRepository) List(ctx context.Context, filter models.ComputedGradeFilter) ([]models.ComputedGrade, int, error) {
	base := `FROM computed_grades cg JOIN subjects s ON s.id = cg.subject_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("cg.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("cg.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("cg.exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT cg.id, cg.user_id, cg.subject_id, s.name AS subject_name, cg.exam_type, cg.final_score, cg.component_scores, cg.created_at
        %s ORDER BY cg.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var grades []models.ComputedGrade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list computed grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count computed grades: %w", err)
	}

	return grades, total, nil
}

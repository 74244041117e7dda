package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hakplan/hakplan-api/internal/models"
)

// StudyPlanRepository stores on-demand study plans.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository creates a new study plan repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

// Insert persists a generated plan.
func (r *StudyPlanRepository) Insert(ctx context.Context, plan *models.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_plans (id, user_id, subject, current_score, target_score, time_frame_weeks, difficulty, total_study_hours, weekly_hours, weekly_improvement, created_at)
        VALUES (:id, :user_id, :subject, :current_score, :target_score, :time_frame_weeks, :difficulty, :total_study_hours, :weekly_hours, :weekly_improvement, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("insert study plan: %w", err)
	}
	return nil
}

// ListByUser returns a student's plans newest-first.
func (r *StudyPlanRepository) ListByUser(ctx context.Context, userID string) ([]models.StudyPlan, error) {
	const query = `SELECT id, user_id, subject, current_score, target_score, time_frame_weeks, difficulty, total_study_hours, weekly_hours, weekly_improvement, created_at
        FROM study_plans WHERE user_id = $1 ORDER BY created_at DESC`
	var plans []models.StudyPlan
	if err := r.db.SelectContext(ctx, &plans, query, userID); err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}
	return plans, nil
}

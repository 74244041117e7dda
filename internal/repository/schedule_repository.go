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

// ScheduleRepository handles persistence for exam and assignment calendar items.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule items ascending by date with pagination metadata.
// Grade filters match the cohort tag or "all"; past-due filtering happens
// here via FromDate, not in the urgency classifier.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleItem, int, error) {
	base := "FROM schedule_items WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("item_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("(grade = $%d OR grade = '%s')", len(args)+1, models.GradeAll))
		args = append(args, filter.Grade)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("item_date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("item_date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
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
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, item_type, subject, title, item_date, grade, description, max_score, created_by, created_at, updated_at
        %s ORDER BY item_date ASC LIMIT %d OFFSET %d`, base, size, offset)
	var items []models.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule items: %w", err)
	}

	return items, total, nil
}

// FindByID returns a schedule item by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleItem, error) {
	const query = `SELECT id, item_type, subject, title, item_date, grade, description, max_score, created_by, created_at, updated_at
        FROM schedule_items WHERE id = $1`
	var item models.ScheduleItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create persists a new schedule item.
func (r *ScheduleRepository) Create(ctx context.Context, item *models.ScheduleItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO schedule_items (id, item_type, subject, title, item_date, grade, description, max_score, created_by, created_at, updated_at)
        VALUES (:id, :item_type, :subject, :title, :item_date, :grade, :description, :max_score, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create schedule item: %w", err)
	}
	return nil
}

// Update modifies a schedule item.
func (r *ScheduleRepository) Update(ctx context.Context, item *models.ScheduleItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_items SET item_type = :item_type, subject = :subject, title = :title, item_date = :item_date,
        grade = :grade, description = :description, max_score = :max_score, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update schedule item: %w", err)
	}
	return nil
}

// Delete removes a schedule item.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule item: %w", err)
	}
	return nil
}

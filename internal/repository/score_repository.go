package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hakplan/hakplan-api/internal/models"
)

// ScoreRepository handles per-category raw score persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert inserts or overwrites the score for (user, subject, category).
func (r *ScoreRepository) Upsert(ctx context.Context, entry *models.ScoreEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO score_entries (id, user_id, subject_id, category_id, score, score_date, notes, created_at, updated_at)
        VALUES (:id, :user_id, :subject_id, :category_id, :score, :score_date, :notes, :created_at, :updated_at)
        ON CONFLICT (user_id, subject_id, category_id)
        DO UPDATE SET score = EXCLUDED.score, score_date = EXCLUDED.score_date, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert score entry: %w", err)
	}
	return nil
}

// BulkUpsert writes multiple entries in a transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, entries []models.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		const query = `INSERT INTO score_entries (id, user_id, subject_id, category_id, score, score_date, notes, created_at, updated_at)
            VALUES (:id, :user_id, :subject_id, :category_id, :score, :score_date, :notes, :created_at, :updated_at)
            ON CONFLICT (user_id, subject_id, category_id)
            DO UPDATE SET score = EXCLUDED.score, score_date = EXCLUDED.score_date, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score entries: %w", err)
	}
	return nil
}

// ListByUserAndSubject returns a student's entries for one subject.
func (r *ScoreRepository) ListByUserAndSubject(ctx context.Context, userID, subjectID string) ([]models.ScoreEntry, error) {
	const query = `SELECT id, user_id, subject_id, category_id, score, score_date, notes, created_at, updated_at
        FROM score_entries WHERE user_id = $1 AND subject_id = $2 ORDER BY updated_at DESC`
	var entries []models.ScoreEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, subjectID); err != nil {
		return nil, fmt.Errorf("list score entries: %w", err)
	}
	return entries, nil
}

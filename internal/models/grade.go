package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScoreEntry is a student's raw score for one evaluation category. Entries
// are unique per (user, subject, category); re-submission overwrites.
type ScoreEntry struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	SubjectID  string     `db:"subject_id" json:"subject_id"`
	CategoryID string     `db:"category_id" json:"category_id"`
	Score      float64    `db:"score" json:"score"`
	ScoreDate  *time.Time `db:"score_date" json:"score_date,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ComponentScores maps category id to the raw score used in a computation.
// Stored as JSONB so snapshots stay self-contained when categories change.
type ComponentScores map[string]float64

// Value implements driver.Valuer.
func (s ComponentScores) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *ComponentScores) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ComponentScores{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported component scores type %T", src)
	}
}

// ComputedGrade is an immutable snapshot of one final-score computation.
// New submissions append new snapshots; existing rows are never mutated.
type ComputedGrade struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	SubjectID   string          `db:"subject_id" json:"subject_id"`
	SubjectName string          `db:"subject_name" json:"subject_name"`
	ExamType    string          `db:"exam_type" json:"exam_type"`
	FinalScore  float64         `db:"final_score" json:"final_score"`
	Components  ComponentScores `db:"component_scores" json:"component_scores"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ComputedGradeFilter scopes grade history queries.
type ComputedGradeFilter struct {
	UserID    string
	SubjectID string
	ExamType  string
	Page      int
	PageSize  int
}

package models

import "time"

// Subject represents an academic subject. Subjects are soft-deleted via
// Active so historic categories and grade snapshots keep their references.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CategoryKind tags an evaluation category as written or performance based.
type CategoryKind string

const (
	CategoryKindWritten     CategoryKind = "written"
	CategoryKindPerformance CategoryKind = "performance"
)

// EvaluationCategory is one weighted component of a subject's grading scheme.
// Weight is percentage points; active weights per subject are expected to sum
// to 100 but deviations are tolerated and only surfaced as an advisory flag.
type EvaluationCategory struct {
	ID          string       `db:"id" json:"id"`
	SubjectID   string       `db:"subject_id" json:"subject_id"`
	Name        string       `db:"name" json:"name"`
	Kind        CategoryKind `db:"kind" json:"kind"`
	Weight      float64      `db:"weight" json:"weight"`
	MaxScore    *float64     `db:"max_score" json:"max_score,omitempty"`
	Description *string      `db:"description" json:"description,omitempty"`
	Active      bool         `db:"active" json:"active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// DefaultMaxScore applies when a category has no explicit maximum.
const DefaultMaxScore = 100.0

// MaxScoreOrDefault returns the configured maximum or the 100-point default.
func (c EvaluationCategory) MaxScoreOrDefault() float64 {
	if c.MaxScore != nil && *c.MaxScore > 0 {
		return *c.MaxScore
	}
	return DefaultMaxScore
}

// SubjectDetail combines a subject with its active categories and the
// advisory weight summary.
type SubjectDetail struct {
	Subject     Subject              `json:"subject"`
	Categories  []EvaluationCategory `json:"categories"`
	WeightTotal float64              `json:"weight_total"`
	Unbalanced  bool                 `json:"unbalanced"`
}

package models

import "time"

// Difficulty tiers a study plan by the size of the score gap.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// StudyPlan is a heuristic study-hour estimate persisted on demand. Plans
// are never recomputed when grades change; a new plan must be requested.
type StudyPlan struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	Subject           string     `db:"subject" json:"subject"`
	CurrentScore      float64    `db:"current_score" json:"current_score"`
	TargetScore       float64    `db:"target_score" json:"target_score"`
	TimeFrameWeeks    int        `db:"time_frame_weeks" json:"time_frame_weeks"`
	Difficulty        Difficulty `db:"difficulty" json:"difficulty"`
	TotalStudyHours   int        `db:"total_study_hours" json:"total_study_hours"`
	WeeklyHours       int        `db:"weekly_hours" json:"weekly_hours"`
	WeeklyImprovement float64    `db:"weekly_improvement" json:"weekly_improvement"`
	Recommendations   []string   `db:"-" json:"recommendations,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

package models

import "time"

// ScheduleType distinguishes exam dates from assignment due dates.
type ScheduleType string

const (
	ScheduleTypeExam       ScheduleType = "exam"
	ScheduleTypeAssignment ScheduleType = "assignment"
)

// GradeAll marks a schedule item as visible to every cohort.
const GradeAll = "all"

// ScheduleItem is an admin-managed calendar entry, read-only for students.
// Grade is the audience cohort tag ("1", "2", "3" or "all").
type ScheduleItem struct {
	ID          string       `db:"id" json:"id"`
	Type        ScheduleType `db:"item_type" json:"type"`
	Subject     string       `db:"subject" json:"subject"`
	Title       string       `db:"title" json:"title"`
	Date        time.Time    `db:"item_date" json:"date"`
	Grade       string       `db:"grade" json:"grade"`
	Description *string      `db:"description" json:"description,omitempty"`
	MaxScore    *float64     `db:"max_score" json:"max_score,omitempty"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedule items.
type ScheduleFilter struct {
	Type     ScheduleType
	Grade    string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
}

// UrgencyTier classifies how soon a schedule item is due.
type UrgencyTier string

const (
	UrgencyUrgent UrgencyTier = "urgent"
	UrgencyNormal UrgencyTier = "normal"
)

// UpcomingItem annotates a schedule item with countdown information.
type UpcomingItem struct {
	ScheduleItem
	DaysUntil int         `json:"days_until"`
	Urgency   UrgencyTier `json:"urgency"`
}

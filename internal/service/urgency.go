package service

import (
	"sort"
	"time"

	"github.com/hakplan/hakplan-api/internal/models"
)

// Urgency thresholds in days, matching the D-day badge cutoffs.
const (
	examUrgentDays       = 7
	assignmentUrgentDays = 3
)

// DaysUntil returns the whole calendar days from today until target. Both
// operands are truncated to midnight UTC first so time-of-day and timezone
// noise cannot shift the count. Negative means past due.
func DaysUntil(target, today time.Time) int {
	return int(midnightUTC(target).Sub(midnightUTC(today)).Hours() / 24)
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Classify maps a day count to an urgency tier. Past-due items still
// classify as urgent; excluding them is the callers' query concern.
func Classify(daysUntil int, kind models.ScheduleType) models.UrgencyTier {
	threshold := examUrgentDays
	if kind == models.ScheduleTypeAssignment {
		threshold = assignmentUrgentDays
	}
	if daysUntil <= threshold {
		return models.UrgencyUrgent
	}
	return models.UrgencyNormal
}

// Annotate decorates schedule items with countdown and urgency relative to
// today. Input order (ascending by date) is preserved.
func Annotate(items []models.ScheduleItem, today time.Time) []models.UpcomingItem {
	upcoming := make([]models.UpcomingItem, 0, len(items))
	for _, item := range items {
		days := DaysUntil(item.Date, today)
		upcoming = append(upcoming, models.UpcomingItem{
			ScheduleItem: item,
			DaysUntil:    days,
			Urgency:      Classify(days, item.Type),
		})
	}
	return upcoming
}

// MergeUrgent filters the urgent items from both exam and assignment feeds
// into one alert list sorted by ascending days-until.
func MergeUrgent(feeds ...[]models.UpcomingItem) []models.UpcomingItem {
	var urgent []models.UpcomingItem
	for _, feed := range feeds {
		for _, item := range feed {
			if item.Urgency == models.UrgencyUrgent {
				urgent = append(urgent, item)
			}
		}
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].DaysUntil < urgent[j].DaysUntil
	})
	return urgent
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	"github.com/hakplan/hakplan-api/pkg/config"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

type mockScheduleRepo struct {
	items     map[string]models.ScheduleItem
	listCalls int
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleItem, int, error) {
	m.listCalls++
	var result []models.ScheduleItem
	for _, item := range m.items {
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.Grade != "" && item.Grade != filter.Grade && item.Grade != models.GradeAll {
			continue
		}
		if filter.FromDate != nil && item.Date.Before(*filter.FromDate) {
			continue
		}
		result = append(result, item)
	}
	return result, len(result), nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.ScheduleItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, item *models.ScheduleItem) error {
	if m.items == nil {
		m.items = make(map[string]models.ScheduleItem)
	}
	if item.ID == "" {
		item.ID = "sched-1"
	}
	m.items[item.ID] = *item
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, item *models.ScheduleItem) error {
	m.items[item.ID] = *item
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type mockScheduleCache struct {
	store       map[string][]byte
	invalidated int
	sets        int
	hits        int
}

func (m *mockScheduleCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *mockScheduleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	m.sets++
	return nil
}

func (m *mockScheduleCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.store = nil
	m.invalidated++
	return nil
}

func newScheduleService(repo *mockScheduleRepo, cache *mockScheduleCache, cacheEnabled bool, today time.Time) *ScheduleService {
	svc := NewScheduleService(repo, cache, config.SchedulesConfig{CacheEnabled: cacheEnabled, CacheTTL: time.Minute}, nil, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return today }
	return svc
}

func TestScheduleServiceUpcomingAnnotates(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockScheduleRepo{items: map[string]models.ScheduleItem{
		"a": {ID: "a", Type: models.ScheduleTypeExam, Grade: "2", Date: today.AddDate(0, 0, 5)},
		"b": {ID: "b", Type: models.ScheduleTypeExam, Grade: models.GradeAll, Date: today.AddDate(0, 0, 20)},
		"c": {ID: "c", Type: models.ScheduleTypeExam, Grade: "3", Date: today.AddDate(0, 0, 2)},
	}}
	svc := newScheduleService(repo, &mockScheduleCache{}, false, today)

	upcoming, err := svc.Upcoming(context.Background(), "2", models.ScheduleTypeExam)
	require.NoError(t, err)

	require.Len(t, upcoming, 2)
	byID := map[string]models.UpcomingItem{}
	for _, item := range upcoming {
		byID[item.ID] = item
	}
	assert.Equal(t, models.UrgencyUrgent, byID["a"].Urgency)
	assert.Equal(t, 5, byID["a"].DaysUntil)
	assert.Equal(t, models.UrgencyNormal, byID["b"].Urgency)
}

func TestScheduleServiceUpcomingUsesCache(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockScheduleRepo{items: map[string]models.ScheduleItem{
		"a": {ID: "a", Type: models.ScheduleTypeExam, Grade: "1", Date: today.AddDate(0, 0, 3)},
	}}
	cache := &mockScheduleCache{}
	svc := newScheduleService(repo, cache, true, today)

	first, err := svc.Upcoming(context.Background(), "1", models.ScheduleTypeExam)
	require.NoError(t, err)
	second, err := svc.Upcoming(context.Background(), "1", models.ScheduleTypeExam)
	require.NoError(t, err)

	assert.Equal(t, len(first), len(second))
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
}

func TestScheduleServiceWritesInvalidateCache(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockScheduleRepo{items: map[string]models.ScheduleItem{}}
	cache := &mockScheduleCache{}
	svc := newScheduleService(repo, cache, true, today)

	item, err := svc.Create(context.Background(), "admin-1", CreateScheduleRequest{
		Type:    "exam",
		Subject: "Mathematics",
		Title:   "Midterm",
		Date:    today.AddDate(0, 0, 14),
		Grade:   "2",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.Update(context.Background(), item.ID, UpdateScheduleRequest{
		Type:    "exam",
		Subject: "Mathematics",
		Title:   "Midterm (moved)",
		Date:    today.AddDate(0, 0, 15),
		Grade:   "2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	require.NoError(t, svc.Delete(context.Background(), item.ID))
	assert.Equal(t, 3, cache.invalidated)
}

func TestScheduleServiceAlertsMergesUrgent(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockScheduleRepo{items: map[string]models.ScheduleItem{
		"exam-soon":  {ID: "exam-soon", Type: models.ScheduleTypeExam, Grade: "1", Date: today.AddDate(0, 0, 6)},
		"exam-far":   {ID: "exam-far", Type: models.ScheduleTypeExam, Grade: "1", Date: today.AddDate(0, 0, 30)},
		"hw-soon":    {ID: "hw-soon", Type: models.ScheduleTypeAssignment, Grade: "1", Date: today.AddDate(0, 0, 2)},
		"hw-not-yet": {ID: "hw-not-yet", Type: models.ScheduleTypeAssignment, Grade: "1", Date: today.AddDate(0, 0, 5)},
	}}
	svc := newScheduleService(repo, &mockScheduleCache{}, false, today)

	alerts, err := svc.Alerts(context.Background(), "1")
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	assert.Equal(t, "hw-soon", alerts[0].ID)
	assert.Equal(t, "exam-soon", alerts[1].ID)
}

func TestScheduleServiceCreateValidatesGrade(t *testing.T) {
	svc := newScheduleService(&mockScheduleRepo{}, &mockScheduleCache{}, false, time.Now())

	_, err := svc.Create(context.Background(), "admin-1", CreateScheduleRequest{
		Type:    "exam",
		Subject: "Mathematics",
		Title:   "Midterm",
		Date:    time.Now(),
		Grade:   "9",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

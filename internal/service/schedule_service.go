package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	"github.com/hakplan/hakplan-api/pkg/config"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

// ScheduleRepository is the persistence surface for schedule items.
type ScheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleItem, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleItem, error)
	Create(ctx context.Context, item *models.ScheduleItem) error
	Update(ctx context.Context, item *models.ScheduleItem) error
	Delete(ctx context.Context, id string) error
}

// ScheduleCache is the cache surface for upcoming feeds.
type ScheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const scheduleCachePrefix = "schedules:"

// CreateScheduleRequest is the payload for registering a calendar item.
type CreateScheduleRequest struct {
	Type        string    `json:"type" validate:"required,oneof=exam assignment"`
	Subject     string    `json:"subject" validate:"required,min=1,max=100"`
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Date        time.Time `json:"date" validate:"required"`
	Grade       string    `json:"grade" validate:"required,oneof=1 2 3 all"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	MaxScore    *float64  `json:"max_score,omitempty" validate:"omitempty,gt=0"`
}

// UpdateScheduleRequest is the payload for modifying a calendar item.
type UpdateScheduleRequest struct {
	Type        string    `json:"type" validate:"required,oneof=exam assignment"`
	Subject     string    `json:"subject" validate:"required,min=1,max=100"`
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Date        time.Time `json:"date" validate:"required"`
	Grade       string    `json:"grade" validate:"required,oneof=1 2 3 all"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	MaxScore    *float64  `json:"max_score,omitempty" validate:"omitempty,gt=0"`
}

// ScheduleService manages the shared exam and assignment calendar. Reads are
// cohort-scoped and cached; writes are admin-only and invalidate the cache.
type ScheduleService struct {
	schedules ScheduleRepository
	cache     ScheduleCache
	cfg       config.SchedulesConfig
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(schedules ScheduleRepository, cache ScheduleCache, cfg config.SchedulesConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		cache:     cache,
		cfg:       cfg,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns calendar items for the caller's cohort. Admins pass an empty
// grade to see everything.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleItem, *models.Pagination, error) {
	items, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule items")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Upcoming returns not-yet-due items visible to the cohort, annotated with
// countdown and urgency, soonest first.
func (s *ScheduleService) Upcoming(ctx context.Context, grade string, itemType models.ScheduleType) ([]models.UpcomingItem, error) {
	key := fmt.Sprintf("%supcoming:%s:%s", scheduleCachePrefix, grade, itemType)
	if s.cfg.CacheEnabled {
		var cached []models.UpcomingItem
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.ObserveCacheHit()
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.ObserveCacheMiss()
	}

	today := midnightUTC(s.now())
	items, _, err := s.schedules.List(ctx, models.ScheduleFilter{
		Type:     itemType,
		Grade:    grade,
		FromDate: &today,
		PageSize: 100,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming items")
	}

	upcoming := Annotate(items, today)
	if s.cfg.CacheEnabled {
		if err := s.cache.Set(ctx, key, upcoming, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return upcoming, nil
}

// Alerts merges the urgent exam and assignment items for the cohort into one
// feed ordered by ascending days-until.
func (s *ScheduleService) Alerts(ctx context.Context, grade string) ([]models.UpcomingItem, error) {
	exams, err := s.Upcoming(ctx, grade, models.ScheduleTypeExam)
	if err != nil {
		return nil, err
	}
	assignments, err := s.Upcoming(ctx, grade, models.ScheduleTypeAssignment)
	if err != nil {
		return nil, err
	}
	return MergeUrgent(exams, assignments), nil
}

// Get returns a single calendar item.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleItem, error) {
	item, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule item")
	}
	return item, nil
}

// Create registers a calendar item and invalidates cached feeds.
func (s *ScheduleService) Create(ctx context.Context, createdBy string, req CreateScheduleRequest) (*models.ScheduleItem, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	item := &models.ScheduleItem{
		Type:        models.ScheduleType(req.Type),
		Subject:     req.Subject,
		Title:       req.Title,
		Date:        req.Date,
		Grade:       req.Grade,
		Description: req.Description,
		MaxScore:    req.MaxScore,
		CreatedBy:   createdBy,
	}
	if err := s.schedules.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule item")
	}

	s.invalidateCache(ctx)
	s.logger.Info("schedule item created",
		zap.String("schedule_id", item.ID),
		zap.String("type", string(item.Type)),
		zap.String("grade", item.Grade))
	return item, nil
}

// Update modifies a calendar item and invalidates cached feeds.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.ScheduleItem, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Type = models.ScheduleType(req.Type)
	item.Subject = req.Subject
	item.Title = req.Title
	item.Date = req.Date
	item.Grade = req.Grade
	item.Description = req.Description
	item.MaxScore = req.MaxScore
	if err := s.schedules.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule item")
	}

	s.invalidateCache(ctx)
	return item, nil
}

// Delete removes a calendar item. Deletion is hard; calendar entries have no
// dependents.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule item")
	}
	s.invalidateCache(ctx)
	s.logger.Info("schedule item deleted", zap.String("schedule_id", id))
	return nil
}

func (s *ScheduleService) invalidateCache(ctx context.Context) {
	if !s.cfg.CacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, scheduleCachePrefix+"*"); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
	}
}

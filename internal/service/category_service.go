package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

// CategoryRepository is the persistence surface for evaluation categories.
type CategoryRepository interface {
	ListBySubject(ctx context.Context, subjectID string, activeOnly bool) ([]models.EvaluationCategory, error)
	FindByID(ctx context.Context, id string) (*models.EvaluationCategory, error)
	Create(ctx context.Context, category *models.EvaluationCategory) error
	Update(ctx context.Context, category *models.EvaluationCategory) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CategorySubjectReader resolves the parent subject for category writes.
type CategorySubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateCategoryRequest is the payload for adding a weighted component.
type CreateCategoryRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Kind        string   `json:"kind" validate:"required,oneof=written performance"`
	Weight      float64  `json:"weight" validate:"required,gt=0,lte=100"`
	MaxScore    *float64 `json:"max_score,omitempty" validate:"omitempty,gt=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateCategoryRequest is the payload for modifying a component.
type UpdateCategoryRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Kind        string   `json:"kind" validate:"required,oneof=written performance"`
	Weight      float64  `json:"weight" validate:"required,gt=0,lte=100"`
	MaxScore    *float64 `json:"max_score,omitempty" validate:"omitempty,gt=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
}

// CategoryService manages a subject's weighted grading scheme. Weight sums
// are advisory; changing weights never touches stored snapshots.
type CategoryService struct {
	categories CategoryRepository
	subjects   CategorySubjectReader
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(categories CategoryRepository, subjects CategorySubjectReader, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, subjects: subjects, validate: validate, logger: logger}
}

// List returns a subject's categories, active ones only by default.
func (s *CategoryService) List(ctx context.Context, subjectID string, includeInactive bool) ([]models.EvaluationCategory, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	categories, err := s.categories.ListBySubject(ctx, subjectID, !includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Create adds a weighted component to a subject.
func (s *CategoryService) Create(ctx context.Context, subjectID string, req CreateCategoryRequest) (*models.EvaluationCategory, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if !subject.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is inactive")
	}

	category := &models.EvaluationCategory{
		SubjectID:   subjectID,
		Name:        req.Name,
		Kind:        models.CategoryKind(req.Kind),
		Weight:      req.Weight,
		MaxScore:    req.MaxScore,
		Description: req.Description,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.logger.Info("category created",
		zap.String("category_id", category.ID),
		zap.String("subject_id", subjectID),
		zap.Float64("weight", category.Weight))
	return category, nil
}

// Update modifies a component. Stored grade snapshots are unaffected.
func (s *CategoryService) Update(ctx context.Context, id string, req UpdateCategoryRequest) (*models.EvaluationCategory, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	category.Name = req.Name
	category.Kind = models.CategoryKind(req.Kind)
	category.Weight = req.Weight
	category.MaxScore = req.MaxScore
	category.Description = req.Description
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// Deactivate soft-deletes a component so future computations skip it while
// historic snapshots keep their stored contributions.
func (s *CategoryService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if err := s.categories.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate category")
	}
	s.logger.Info("category deactivated", zap.String("category_id", id))
	return nil
}

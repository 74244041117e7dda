package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

// ScoreRepository persists raw per-category score entries.
type ScoreRepository interface {
	BulkUpsert(ctx context.Context, entries []models.ScoreEntry) error
	ListByUserAndSubject(ctx context.Context, userID, subjectID string) ([]models.ScoreEntry, error)
}

// ComputedGradeRepository persists final-score snapshots.
type ComputedGradeRepository interface {
	Insert(ctx context.Context, grade *models.ComputedGrade) error
	List(ctx context.Context, filter models.ComputedGradeFilter) ([]models.ComputedGrade, int, error)
}

// GradePreviewRequest computes a final score without persisting anything.
type GradePreviewRequest struct {
	SubjectID string             `json:"subject_id" validate:"required"`
	Scores    map[string]float64 `json:"scores" validate:"required,min=1"`
}

// GradeSubmitRequest records raw scores and appends a final-score snapshot.
type GradeSubmitRequest struct {
	SubjectID string             `json:"subject_id" validate:"required"`
	ExamType  string             `json:"exam_type" validate:"required,min=1,max=50"`
	Scores    map[string]float64 `json:"scores" validate:"required,min=1"`
	ScoreDate *time.Time         `json:"score_date,omitempty"`
	Notes     *string            `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// GradePreview is the presentation form of a computation. Scores are rounded
// to two decimals here and nowhere earlier.
type GradePreview struct {
	SubjectID          string                 `json:"subject_id"`
	Complete           bool                   `json:"complete"`
	FinalScore         float64                `json:"final_score"`
	WeightTotal        float64                `json:"weight_total"`
	Unbalanced         bool                   `json:"unbalanced"`
	Contributions      models.ComponentScores `json:"contributions,omitempty"`
	MissingCategoryIDs []string               `json:"missing_category_ids,omitempty"`
}

// GradeService computes weighted final scores and manages grade history.
type GradeService struct {
	subjects   CategorySubjectReader
	categories SubjectCategoryReader
	scores     ScoreRepository
	grades     ComputedGradeRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(subjects CategorySubjectReader, categories SubjectCategoryReader, scores ScoreRepository, grades ComputedGradeRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	return &GradeService{subjects: subjects, categories: categories, scores: scores, grades: grades, validate: validate, logger: logger}
}

// Preview computes the weighted final score for the provided raw scores.
// A score set missing weighted categories yields an incomplete preview, not
// an error; out-of-range or unknown-category scores are rejected.
func (s *GradeService) Preview(ctx context.Context, req GradePreviewRequest) (*GradePreview, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject and at least one score are required")
	}

	categories, err := s.loadActiveCategories(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}

	result, err := ComputeFinalScore(categories, req.Scores)
	if err != nil {
		return nil, err
	}

	return presentResult(req.SubjectID, categories, result), nil
}

// Submit upserts the raw score entries and appends an immutable snapshot of
// the computed final score. The score set must cover every active weighted
// category; partial sets cannot be snapshotted.
func (s *GradeService) Submit(ctx context.Context, userID string, req GradeSubmitRequest) (*models.ComputedGrade, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject, exam type and scores are required")
	}

	categories, err := s.loadActiveCategories(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}

	result, err := ComputeFinalScore(categories, req.Scores)
	if err != nil {
		return nil, err
	}
	if !result.Complete {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("scores missing for categories: %s", strings.Join(result.MissingCategoryIDs, ", ")))
	}

	entries := make([]models.ScoreEntry, 0, len(req.Scores))
	for categoryID, score := range req.Scores {
		entries = append(entries, models.ScoreEntry{
			UserID:     userID,
			SubjectID:  req.SubjectID,
			CategoryID: categoryID,
			Score:      score,
			ScoreDate:  req.ScoreDate,
			Notes:      req.Notes,
		})
	}
	if err := s.scores.BulkUpsert(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score entries")
	}

	snapshot := &models.ComputedGrade{
		UserID:     userID,
		SubjectID:  req.SubjectID,
		ExamType:   req.ExamType,
		FinalScore: Round2(result.FinalScore),
		Components: models.ComponentScores(req.Scores),
	}
	if err := s.grades.Insert(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store computed grade")
	}

	s.logger.Info("grade submitted",
		zap.String("user_id", userID),
		zap.String("subject_id", req.SubjectID),
		zap.String("exam_type", req.ExamType),
		zap.Float64("final_score", snapshot.FinalScore))
	return snapshot, nil
}

// History lists a student's snapshots newest-first.
func (s *GradeService) History(ctx context.Context, filter models.ComputedGradeFilter) ([]models.ComputedGrade, *models.Pagination, error) {
	grades, total, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return grades, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Scores returns the student's current raw entries for one subject together
// with a preview computed from them.
func (s *GradeService) Scores(ctx context.Context, userID, subjectID string) ([]models.ScoreEntry, *GradePreview, error) {
	categories, err := s.loadActiveCategories(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.scores.ListByUserAndSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list score entries")
	}

	known := make(map[string]bool, len(categories))
	for _, category := range categories {
		known[category.ID] = true
	}
	rawScores := make(map[string]float64, len(entries))
	for _, entry := range entries {
		// Entries for deactivated categories stay stored but drop out of
		// the live computation.
		if known[entry.CategoryID] {
			rawScores[entry.CategoryID] = entry.Score
		}
	}

	result, err := ComputeFinalScore(categories, rawScores)
	if err != nil {
		return nil, nil, err
	}
	return entries, presentResult(subjectID, categories, result), nil
}

func (s *GradeService) loadActiveCategories(ctx context.Context, subjectID string) ([]models.EvaluationCategory, error) {
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

	categories, err := s.categories.ListBySubject(ctx, subjectID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load categories")
	}
	if len(categories) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "subject has no active evaluation categories")
	}
	return categories, nil
}

func presentResult(subjectID string, categories []models.EvaluationCategory, result *FinalScoreResult) *GradePreview {
	var configuredWeight float64
	for _, category := range categories {
		configuredWeight += category.Weight
	}

	preview := &GradePreview{
		SubjectID:          subjectID,
		Complete:           result.Complete,
		WeightTotal:        Round2(configuredWeight),
		Unbalanced:         Round2(configuredWeight) != 100,
		MissingCategoryIDs: result.MissingCategoryIDs,
	}
	if result.Complete {
		preview.FinalScore = Round2(result.FinalScore)
		preview.Contributions = models.ComponentScores{}
		for categoryID, contribution := range result.Contributions {
			preview.Contributions[categoryID] = Round2(contribution)
		}
	}
	return preview
}

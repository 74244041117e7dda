package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

type mockSubjectReader struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

type mockCategoryReader struct {
	categories map[string][]models.EvaluationCategory
}

func (m *mockCategoryReader) ListBySubject(ctx context.Context, subjectID string, activeOnly bool) ([]models.EvaluationCategory, error) {
	return m.categories[subjectID], nil
}

type mockScoreRepo struct {
	entries map[string][]models.ScoreEntry
}

func (m *mockScoreRepo) BulkUpsert(ctx context.Context, entries []models.ScoreEntry) error {
	if m.entries == nil {
		m.entries = make(map[string][]models.ScoreEntry)
	}
	for _, entry := range entries {
		key := entry.UserID + ":" + entry.SubjectID
		m.entries[key] = append(m.entries[key], entry)
	}
	return nil
}

func (m *mockScoreRepo) ListByUserAndSubject(ctx context.Context, userID, subjectID string) ([]models.ScoreEntry, error) {
	return m.entries[userID+":"+subjectID], nil
}

type mockComputedGradeRepo struct {
	snapshots []models.ComputedGrade
}

func (m *mockComputedGradeRepo) Insert(ctx context.Context, grade *models.ComputedGrade) error {
	grade.ID = "grade-1"
	m.snapshots = append(m.snapshots, *grade)
	return nil
}

func (m *mockComputedGradeRepo) List(ctx context.Context, filter models.ComputedGradeFilter) ([]models.ComputedGrade, int, error) {
	var result []models.ComputedGrade
	for _, snapshot := range m.snapshots {
		if filter.UserID != "" && snapshot.UserID != filter.UserID {
			continue
		}
		if filter.SubjectID != "" && snapshot.SubjectID != filter.SubjectID {
			continue
		}
		result = append(result, snapshot)
	}
	return result, len(result), nil
}

func newGradeService(grades *mockComputedGradeRepo, scores *mockScoreRepo) *GradeService {
	subjects := &mockSubjectReader{subjects: map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", Active: true},
		"old":  {ID: "old", Name: "Retired", Active: false},
	}}
	categories := &mockCategoryReader{categories: map[string][]models.EvaluationCategory{
		"math": {
			{ID: "written", Name: "Written Exam", Weight: 60, Active: true},
			{ID: "performance", Name: "Performance", Weight: 40, Active: true},
		},
	}}
	return NewGradeService(subjects, categories, scores, grades, validator.New(), zap.NewNop())
}

func TestGradeServicePreviewComplete(t *testing.T) {
	svc := newGradeService(&mockComputedGradeRepo{}, &mockScoreRepo{})

	preview, err := svc.Preview(context.Background(), GradePreviewRequest{
		SubjectID: "math",
		Scores:    map[string]float64{"written": 90, "performance": 75},
	})
	require.NoError(t, err)

	assert.True(t, preview.Complete)
	assert.Equal(t, 84.0, preview.FinalScore)
	assert.False(t, preview.Unbalanced)
	assert.Equal(t, 54.0, preview.Contributions["written"])
}

func TestGradeServicePreviewIncompleteIsNotAnError(t *testing.T) {
	svc := newGradeService(&mockComputedGradeRepo{}, &mockScoreRepo{})

	preview, err := svc.Preview(context.Background(), GradePreviewRequest{
		SubjectID: "math",
		Scores:    map[string]float64{"written": 90},
	})
	require.NoError(t, err)

	assert.False(t, preview.Complete)
	assert.Zero(t, preview.FinalScore)
	assert.Equal(t, []string{"performance"}, preview.MissingCategoryIDs)
}

func TestGradeServicePreviewInactiveSubject(t *testing.T) {
	svc := newGradeService(&mockComputedGradeRepo{}, &mockScoreRepo{})

	_, err := svc.Preview(context.Background(), GradePreviewRequest{
		SubjectID: "old",
		Scores:    map[string]float64{"written": 90},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceSubmitSnapshots(t *testing.T) {
	grades := &mockComputedGradeRepo{}
	scores := &mockScoreRepo{}
	svc := newGradeService(grades, scores)

	snapshot, err := svc.Submit(context.Background(), "user-1", GradeSubmitRequest{
		SubjectID: "math",
		ExamType:  "midterm",
		Scores:    map[string]float64{"written": 90, "performance": 75},
	})
	require.NoError(t, err)

	assert.Equal(t, 84.0, snapshot.FinalScore)
	assert.Equal(t, "midterm", snapshot.ExamType)
	require.Len(t, grades.snapshots, 1)
	assert.Equal(t, 90.0, grades.snapshots[0].Components["written"])

	entries, err := scores.ListByUserAndSubject(context.Background(), "user-1", "math")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGradeServiceSubmitRejectsPartialScores(t *testing.T) {
	grades := &mockComputedGradeRepo{}
	svc := newGradeService(grades, &mockScoreRepo{})

	_, err := svc.Submit(context.Background(), "user-1", GradeSubmitRequest{
		SubjectID: "math",
		ExamType:  "midterm",
		Scores:    map[string]float64{"written": 90},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, grades.snapshots)
}

func TestGradeServiceSubmitRejectsOutOfRange(t *testing.T) {
	svc := newGradeService(&mockComputedGradeRepo{}, &mockScoreRepo{})

	_, err := svc.Submit(context.Background(), "user-1", GradeSubmitRequest{
		SubjectID: "math",
		ExamType:  "midterm",
		Scores:    map[string]float64{"written": 120, "performance": 75},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceScoresBuildsPreview(t *testing.T) {
	scores := &mockScoreRepo{}
	svc := newGradeService(&mockComputedGradeRepo{}, scores)

	require.NoError(t, scores.BulkUpsert(context.Background(), []models.ScoreEntry{
		{UserID: "user-1", SubjectID: "math", CategoryID: "written", Score: 80},
	}))

	entries, preview, err := svc.Scores(context.Background(), "user-1", "math")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, preview.Complete)
	assert.Equal(t, []string{"performance"}, preview.MissingCategoryIDs)
}

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

type mockSubjectRepo struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var result []models.Subject
	for _, subject := range m.subjects {
		if filter.ActiveOnly && !subject.Active {
			continue
		}
		result = append(result, subject)
	}
	return result, len(result), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

func (m *mockSubjectRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	for _, subject := range m.subjects {
		if subject.Name == name && subject.Active && subject.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.subjects == nil {
		m.subjects = make(map[string]models.Subject)
	}
	if subject.ID == "" {
		subject.ID = "subject-new"
	}
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) SetActive(ctx context.Context, id string, active bool) error {
	subject := m.subjects[id]
	subject.Active = active
	m.subjects[id] = subject
	return nil
}

func newSubjectService(repo *mockSubjectRepo, categories *mockCategoryReader) *SubjectService {
	return NewSubjectService(repo, categories, validator.New(), zap.NewNop())
}

func TestSubjectServiceGetFlagsUnbalancedWeights(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", Active: true},
	}}
	categories := &mockCategoryReader{categories: map[string][]models.EvaluationCategory{
		"math": {
			{ID: "a", Weight: 50},
			{ID: "b", Weight: 30},
		},
	}}
	svc := newSubjectService(repo, categories)

	detail, err := svc.Get(context.Background(), "math")
	require.NoError(t, err)

	assert.Equal(t, 80.0, detail.WeightTotal)
	assert.True(t, detail.Unbalanced)
}

func TestSubjectServiceGetBalancedWeights(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", Active: true},
	}}
	categories := &mockCategoryReader{categories: map[string][]models.EvaluationCategory{
		"math": {
			{ID: "a", Weight: 60},
			{ID: "b", Weight: 40},
		},
	}}
	svc := newSubjectService(repo, categories)

	detail, err := svc.Get(context.Background(), "math")
	require.NoError(t, err)
	assert.False(t, detail.Unbalanced)
}

func TestSubjectServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", Active: true},
	}}
	svc := newSubjectService(repo, &mockCategoryReader{})

	_, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Mathematics"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeactivateIsSoftDelete(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", Active: true},
	}}
	svc := newSubjectService(repo, &mockCategoryReader{})

	require.NoError(t, svc.Deactivate(context.Background(), "math"))

	subject := repo.subjects["math"]
	assert.False(t, subject.Active)
}

func TestSubjectServiceGetUnknownSubject(t *testing.T) {
	svc := newSubjectService(&mockSubjectRepo{}, &mockCategoryReader{})

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

type mockPlanRepo struct {
	inserted []models.StudyPlan
}

func (m *mockPlanRepo) Insert(ctx context.Context, plan *models.StudyPlan) error {
	plan.ID = "plan-1"
	m.inserted = append(m.inserted, *plan)
	return nil
}

func (m *mockPlanRepo) ListByUser(ctx context.Context, userID string) ([]models.StudyPlan, error) {
	var plans []models.StudyPlan
	for _, plan := range m.inserted {
		if plan.UserID == userID {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func TestEstimateStudyPlanMediumTier(t *testing.T) {
	plan, err := EstimateStudyPlan(StudyPlanRequest{
		Subject:        "Mathematics",
		CurrentScore:   70,
		TargetScore:    85,
		TimeFrameWeeks: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DifficultyMedium, plan.Difficulty)
	assert.Equal(t, 30, plan.TotalStudyHours)
	assert.Equal(t, 8, plan.WeeklyHours)
	assert.InDelta(t, 3.75, plan.WeeklyImprovement, 1e-9)
	assert.NotEmpty(t, plan.Recommendations)
}

func TestEstimateStudyPlanTiers(t *testing.T) {
	easy, err := EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 80, TargetScore: 88, TimeFrameWeeks: 2})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyEasy, easy.Difficulty)

	medium, err := EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 80, TargetScore: 89, TimeFrameWeeks: 2})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, medium.Difficulty)

	hard, err := EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 60, TargetScore: 90, TimeFrameWeeks: 2})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyHard, hard.Difficulty)
}

func TestEstimateStudyPlanHardTierAddsSupportTactics(t *testing.T) {
	easy, err := EstimateStudyPlan(StudyPlanRequest{Subject: "Mathematics", CurrentScore: 85, TargetScore: 90, TimeFrameWeeks: 2})
	require.NoError(t, err)
	hard, err2 := EstimateStudyPlan(StudyPlanRequest{Subject: "Mathematics", CurrentScore: 50, TargetScore: 90, TimeFrameWeeks: 8})
	require.NoError(t, err2)

	assert.Greater(t, len(hard.Recommendations), len(easy.Recommendations))
}

func TestEstimateStudyPlanUnknownSubjectFallsBack(t *testing.T) {
	plan, err := EstimateStudyPlan(StudyPlanRequest{Subject: "Underwater Basket Weaving", CurrentScore: 70, TargetScore: 80, TimeFrameWeeks: 4})
	require.NoError(t, err)
	assert.Equal(t, genericTactics, plan.Recommendations[:len(genericTactics)])
}

func TestEstimateStudyPlanRejectsNonImprovingGoal(t *testing.T) {
	_, err := EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 90, TargetScore: 90, TimeFrameWeeks: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNonImprovingGoal.Code, appErrors.FromError(err).Code)

	_, err = EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 90, TargetScore: 80, TimeFrameWeeks: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNonImprovingGoal.Code, appErrors.FromError(err).Code)
}

func TestEstimateStudyPlanRejectsNonPositiveTimeframe(t *testing.T) {
	_, err := EstimateStudyPlan(StudyPlanRequest{Subject: "English", CurrentScore: 70, TargetScore: 80, TimeFrameWeeks: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNonPositiveTimeframe.Code, appErrors.FromError(err).Code)
}

func TestStudyPlanServiceCreatePersists(t *testing.T) {
	repo := &mockPlanRepo{}
	svc := NewStudyPlanService(repo, validator.New(), zap.NewNop())

	plan, err := svc.Create(context.Background(), "user-1", StudyPlanRequest{
		Subject:        "Korean Language",
		CurrentScore:   65,
		TargetScore:    85,
		TimeFrameWeeks: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", plan.UserID)
	assert.Equal(t, models.DifficultyHard, plan.Difficulty)
	assert.Equal(t, 40, plan.TotalStudyHours)
	assert.Equal(t, 8, plan.WeeklyHours)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "user-1", repo.inserted[0].UserID)
}

func TestStudyPlanServiceListRestoresRecommendations(t *testing.T) {
	repo := &mockPlanRepo{}
	svc := NewStudyPlanService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "user-1", StudyPlanRequest{
		Subject:        "Mathematics",
		CurrentScore:   50,
		TargetScore:    80,
		TimeFrameWeeks: 10,
	})
	require.NoError(t, err)

	plans, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.NotEmpty(t, plans[0].Recommendations)
	assert.Contains(t, plans[0].Recommendations, hardTierTactics[0])
}

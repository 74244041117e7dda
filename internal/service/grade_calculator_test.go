package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

func floatPtr(v float64) *float64 {
	return &v
}

func twoCategories() []models.EvaluationCategory {
	return []models.EvaluationCategory{
		{ID: "written", Name: "Written Exam", Weight: 60, Active: true},
		{ID: "performance", Name: "Performance", Weight: 40, Active: true},
	}
}

func TestComputeFinalScoreWeightedSum(t *testing.T) {
	result, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written":     90,
		"performance": 75,
	})
	require.NoError(t, err)
	require.True(t, result.Complete)

	// 90*0.6 + 75*0.4 = 84
	assert.InDelta(t, 84.0, result.FinalScore, 1e-9)
	assert.InDelta(t, 54.0, result.Contributions["written"], 1e-9)
	assert.InDelta(t, 30.0, result.Contributions["performance"], 1e-9)
	assert.InDelta(t, 100.0, result.WeightTotal, 1e-9)
}

func TestComputeFinalScoreAllMaxYieldsHundred(t *testing.T) {
	result, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written":     100,
		"performance": 100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.FinalScore, 1e-9)
}

func TestComputeFinalScoreAllZeroYieldsZero(t *testing.T) {
	result, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written":     0,
		"performance": 0,
	})
	require.NoError(t, err)
	require.True(t, result.Complete)
	assert.Zero(t, result.FinalScore)
}

func TestComputeFinalScoreCustomMaxNormalizes(t *testing.T) {
	categories := []models.EvaluationCategory{
		{ID: "quiz", Weight: 50, MaxScore: floatPtr(50)},
		{ID: "final", Weight: 50},
	}
	result, err := ComputeFinalScore(categories, map[string]float64{
		"quiz":  25, // half of 50 normalizes to 50
		"final": 50,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, result.FinalScore, 1e-9)
}

func TestComputeFinalScoreMissingCategoryIsIncomplete(t *testing.T) {
	result, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written": 90,
	})
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.Zero(t, result.FinalScore)
	assert.Nil(t, result.Contributions)
	assert.Equal(t, []string{"performance"}, result.MissingCategoryIDs)
}

func TestComputeFinalScoreZeroWeightCategoryOptional(t *testing.T) {
	categories := append(twoCategories(), models.EvaluationCategory{ID: "extra", Weight: 0})
	result, err := ComputeFinalScore(categories, map[string]float64{
		"written":     80,
		"performance": 80,
	})
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.InDelta(t, 80.0, result.FinalScore, 1e-9)
}

func TestComputeFinalScoreUnbalancedWeightsNotRenormalized(t *testing.T) {
	categories := []models.EvaluationCategory{
		{ID: "a", Weight: 40},
		{ID: "b", Weight: 40},
	}
	result, err := ComputeFinalScore(categories, map[string]float64{
		"a": 100,
		"b": 100,
	})
	require.NoError(t, err)

	// 80 total weight caps the score at 80 with perfect inputs.
	assert.InDelta(t, 80.0, result.FinalScore, 1e-9)
	assert.InDelta(t, 80.0, result.WeightTotal, 1e-9)
}

func TestComputeFinalScoreRejectsOutOfRange(t *testing.T) {
	_, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written":     101,
		"performance": 50,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErr.Code)

	_, err = ComputeFinalScore(twoCategories(), map[string]float64{
		"written":     -1,
		"performance": 50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestComputeFinalScoreRejectsUnknownCategory(t *testing.T) {
	_, err := ComputeFinalScore(twoCategories(), map[string]float64{
		"written": 90,
		"bogus":   50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownCategory.Code, appErrors.FromError(err).Code)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 84.35, Round2(84.345000001))
	assert.Equal(t, 84.34, Round2(84.344999))
	assert.Equal(t, 0.0, Round2(0))
}

package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

// FinalScoreResult is the outcome of a weighted final-score computation.
// Complete is false while any category with weight > 0 has no raw score;
// in that state FinalScore is zero and MissingCategoryIDs lists the gaps.
// An incomplete result is a legitimate intermediate state, not an error.
type FinalScoreResult struct {
	Complete           bool                   `json:"complete"`
	FinalScore         float64                `json:"final_score"`
	WeightTotal        float64                `json:"weight_total"`
	Contributions      models.ComponentScores `json:"contributions,omitempty"`
	MissingCategoryIDs []string               `json:"missing_category_ids,omitempty"`
}

// ComputeFinalScore derives the 100-point weighted aggregate from a subject's
// categories and a student's raw scores keyed by category id.
//
// Each present score is normalized to a 100-point scale and weighted by the
// category's percentage. Weights are not renormalized when configuration does
// not sum to 100; the arithmetic reports whatever the configured weights
// yield. Full float precision is kept throughout; rounding happens only at
// the presentation boundary via Round2.
func ComputeFinalScore(categories []models.EvaluationCategory, rawScores map[string]float64) (*FinalScoreResult, error) {
	byID := make(map[string]models.EvaluationCategory, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	for categoryID, raw := range rawScores {
		category, ok := byID[categoryID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownCategory, fmt.Sprintf("category %s is not part of the subject", categoryID))
		}
		maxScore := category.MaxScoreOrDefault()
		if raw < 0 || raw > maxScore {
			return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, fmt.Sprintf("score %.2f for %s must be between 0 and %.0f", raw, category.Name, maxScore))
		}
	}

	result := &FinalScoreResult{Contributions: models.ComponentScores{}}
	for _, category := range categories {
		raw, present := rawScores[category.ID]
		if !present {
			if category.Weight > 0 {
				result.MissingCategoryIDs = append(result.MissingCategoryIDs, category.ID)
			}
			continue
		}
		normalized := raw / category.MaxScoreOrDefault() * 100
		contribution := normalized * category.Weight / 100
		result.Contributions[category.ID] = contribution
		result.FinalScore += contribution
		result.WeightTotal += category.Weight
	}

	if len(result.MissingCategoryIDs) > 0 {
		sort.Strings(result.MissingCategoryIDs)
		result.FinalScore = 0
		result.Contributions = nil
		return result, nil
	}

	result.Complete = true
	return result, nil
}

// Round2 rounds to two decimal places for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

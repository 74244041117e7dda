package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
)

// StudyPlanRepository persists generated study plans.
type StudyPlanRepository interface {
	Insert(ctx context.Context, plan *models.StudyPlan) error
	ListByUser(ctx context.Context, userID string) ([]models.StudyPlan, error)
}

// StudyPlanRequest asks for a study-hour estimate toward a target score.
type StudyPlanRequest struct {
	Subject        string  `json:"subject" validate:"required,min=1,max=100"`
	CurrentScore   float64 `json:"current_score" validate:"min=0,max=100"`
	TargetScore    float64 `json:"target_score" validate:"required,gt=0,max=100"`
	TimeFrameWeeks int     `json:"time_frame_weeks" validate:"required"`
}

// Difficulty tier cutoffs on the score gap, and the study-hour heuristic of
// two hours per point of improvement.
const (
	hardGapThreshold   = 15.0
	mediumGapThreshold = 8.0
	hoursPerPoint      = 2.0
)

// subjectTactics maps lowercase subject names to study recommendations.
var subjectTactics = map[string][]string{
	"korean language": {
		"Read one literary and one non-literary passage daily and summarize the argument",
		"Keep a vocabulary notebook for unfamiliar idioms and hanja-based words",
		"Review past exam questions and classify them by question type",
	},
	"mathematics": {
		"Solve problem sets by topic and rework every miss until it is solved cold",
		"Keep an error log and redo logged problems after one week",
		"Drill core formulas daily before starting new material",
	},
	"english": {
		"Memorize 30 vocabulary words daily with spaced repetition",
		"Listen to one exam-level passage daily and shadow the audio",
		"Translate three sentences daily from the textbook and check grammar",
	},
	"science": {
		"Redraw key diagrams from memory after each chapter",
		"Work through concept checks before attempting exam-style questions",
	},
	"social studies": {
		"Build a timeline or concept map per unit and quiz yourself from it",
		"Summarize each section in three sentences immediately after reading",
	},
}

// genericTactics applies when no subject-specific catalog entry matches.
var genericTactics = []string{
	"Block fixed daily study sessions and track completion",
	"Review class notes within 24 hours of each lesson",
	"Take a timed practice test at the end of every week",
}

// hardTierTactics is appended when the score gap puts the plan in the hard
// tier.
var hardTierTactics = []string{
	"Arrange weekly tutoring or teacher consultation for the weakest topics",
	"Join or form a study group for accountability",
}

// EstimateStudyPlan derives a heuristic study plan from the score gap. The
// goal must be improving and the time frame positive.
func EstimateStudyPlan(req StudyPlanRequest) (*models.StudyPlan, error) {
	if req.TimeFrameWeeks <= 0 {
		return nil, appErrors.ErrNonPositiveTimeframe
	}
	if req.TargetScore <= req.CurrentScore {
		return nil, appErrors.ErrNonImprovingGoal
	}

	delta := req.TargetScore - req.CurrentScore

	difficulty := models.DifficultyEasy
	switch {
	case delta > hardGapThreshold:
		difficulty = models.DifficultyHard
	case delta > mediumGapThreshold:
		difficulty = models.DifficultyMedium
	}

	totalHours := int(math.Ceil(delta * hoursPerPoint))
	weeklyHours := int(math.Ceil(float64(totalHours) / float64(req.TimeFrameWeeks)))

	tactics, ok := subjectTactics[strings.ToLower(strings.TrimSpace(req.Subject))]
	if !ok {
		tactics = genericTactics
	}
	recommendations := make([]string, 0, len(tactics)+len(hardTierTactics))
	recommendations = append(recommendations, tactics...)
	if difficulty == models.DifficultyHard {
		recommendations = append(recommendations, hardTierTactics...)
	}

	return &models.StudyPlan{
		Subject:           req.Subject,
		CurrentScore:      req.CurrentScore,
		TargetScore:       req.TargetScore,
		TimeFrameWeeks:    req.TimeFrameWeeks,
		Difficulty:        difficulty,
		TotalStudyHours:   totalHours,
		WeeklyHours:       weeklyHours,
		WeeklyImprovement: Round2(delta / float64(req.TimeFrameWeeks)),
		Recommendations:   recommendations,
	}, nil
}

// StudyPlanService generates and stores study plans. Plans are snapshots;
// they are never recomputed when grades change.
type StudyPlanService struct {
	plans    StudyPlanRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudyPlanService constructs a StudyPlanService.
func NewStudyPlanService(plans StudyPlanRepository, validate *validator.Validate, logger *zap.Logger) *StudyPlanService {
	return &StudyPlanService{plans: plans, validate: validate, logger: logger}
}

// Preview estimates a plan without persisting it.
func (s *StudyPlanService) Preview(ctx context.Context, req StudyPlanRequest) (*models.StudyPlan, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study plan payload")
	}
	return EstimateStudyPlan(req)
}

// Create estimates a plan and persists it for the student.
func (s *StudyPlanService) Create(ctx context.Context, userID string, req StudyPlanRequest) (*models.StudyPlan, error) {
	plan, err := s.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	plan.UserID = userID
	if err := s.plans.Insert(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store study plan")
	}

	s.logger.Info("study plan created",
		zap.String("user_id", userID),
		zap.String("subject", plan.Subject),
		zap.String("difficulty", string(plan.Difficulty)))
	return plan, nil
}

// List returns the student's stored plans newest-first. Recommendations are
// re-derived from the stored parameters since they are not persisted.
func (s *StudyPlanService) List(ctx context.Context, userID string) ([]models.StudyPlan, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study plans")
	}
	for i := range plans {
		tactics, ok := subjectTactics[strings.ToLower(strings.TrimSpace(plans[i].Subject))]
		if !ok {
			tactics = genericTactics
		}
		plans[i].Recommendations = append([]string(nil), tactics...)
		if plans[i].Difficulty == models.DifficultyHard {
			plans[i].Recommendations = append(plans[i].Recommendations, hardTierTactics...)
		}
	}
	return plans, nil
}

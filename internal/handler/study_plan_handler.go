package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hakplan/hakplan-api/internal/service"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
	"github.com/hakplan/hakplan-api/pkg/response"
)

// StudyPlanHandler exposes study plan endpoints.
type StudyPlanHandler struct {
	plans   *service.StudyPlanService
	metrics *service.MetricsService
}

// NewStudyPlanHandler constructs handler.
func NewStudyPlanHandler(plans *service.StudyPlanService, metrics *service.MetricsService) *StudyPlanHandler {
	return &StudyPlanHandler{plans: plans, metrics: metrics}
}

// Preview godoc
// @Summary Estimate a study plan without saving
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StudyPlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /study-plans/preview [post]
func (h *StudyPlanHandler) Preview(c *gin.Context) {
	var req service.StudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.plans.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Generate and save a study plan
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StudyPlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /study-plans [post]
func (h *StudyPlanHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.StudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveStudyPlanCreated()
	response.Created(c, plan)
}

// List godoc
// @Summary List the caller's saved study plans
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /study-plans [get]
func (h *StudyPlanHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	plans, err := h.plans.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hakplan/hakplan-api/internal/models"
	"github.com/hakplan/hakplan-api/internal/service"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
	"github.com/hakplan/hakplan-api/pkg/response"
)

// ScheduleHandler exposes the shared exam and assignment calendar.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List calendar items
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param type query string false "exam or assignment"
// @Param grade query string false "Cohort filter (admins only)"
// @Param from query string false "From date (RFC3339)"
// @Param to query string false "To date (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	filter := models.ScheduleFilter{
		Type:     models.ScheduleType(c.Query("type")),
		Grade:    scheduleGradeFor(c, claims),
		FromDate: queryTime(c, "from"),
		ToDate:   queryTime(c, "to"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	items, pagination, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Upcoming godoc
// @Summary Upcoming items with countdown and urgency
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param type query string false "exam or assignment"
// @Success 200 {object} response.Envelope
// @Router /schedules/upcoming [get]
func (h *ScheduleHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	itemType := models.ScheduleType(c.Query("type"))
	if itemType != models.ScheduleTypeExam && itemType != models.ScheduleTypeAssignment && itemType != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be exam or assignment"))
		return
	}
	grade := scheduleGradeFor(c, claims)

	if itemType != "" {
		items, err := h.schedules.Upcoming(c.Request.Context(), grade, itemType)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, items, nil)
		return
	}

	exams, err := h.schedules.Upcoming(c.Request.Context(), grade, models.ScheduleTypeExam)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.schedules.Upcoming(c.Request.Context(), grade, models.ScheduleTypeAssignment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"exams": exams, "assignments": assignments}, nil)
}

// Alerts godoc
// @Summary Urgent deadline alerts for the caller's cohort
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedules/alerts [get]
func (h *ScheduleHandler) Alerts(c *gin.Context) {
	claims := claimsFromContext(c)
	alerts, err := h.schedules.Alerts(c.Request.Context(), scheduleGradeFor(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// Get godoc
// @Summary Calendar item detail
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	item, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create calendar item
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.schedules.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update calendar item
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Param payload body service.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete calendar item
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryTime(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		ts, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil
		}
	}
	return &ts
}

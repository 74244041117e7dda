package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hakplan/hakplan-api/internal/models"
	"github.com/hakplan/hakplan-api/internal/service"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
	"github.com/hakplan/hakplan-api/pkg/response"
)

// GradeHandler exposes grade computation and history endpoints.
type GradeHandler struct {
	grades  *service.GradeService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, exports *service.ExportService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{grades: grades, exports: exports, metrics: metrics}
}

// Preview godoc
// @Summary Compute final score without saving
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradePreviewRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /grades/preview [post]
func (h *GradeHandler) Preview(c *gin.Context) {
	var req service.GradePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	preview, err := h.grades.Preview(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveGradeComputation("rejected")
		response.Error(c, err)
		return
	}
	if preview.Complete {
		h.metrics.ObserveGradeComputation("complete")
	} else {
		h.metrics.ObserveGradeComputation("incomplete")
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Submit godoc
// @Summary Save scores and snapshot the final score
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradeSubmitRequest true "Scores payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.GradeSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	snapshot, err := h.grades.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.metrics.ObserveGradeComputation("rejected")
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGradeComputation("complete")
	response.Created(c, snapshot)
}

// History godoc
// @Summary List the caller's computed grade snapshots
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param subjectId query string false "Filter by subject"
// @Param examType query string false "Filter by exam type"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grades/history [get]
func (h *GradeHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ComputedGradeFilter{
		UserID:    claims.UserID,
		SubjectID: c.Query("subjectId"),
		ExamType:  c.Query("examType"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "pageSize"),
	}
	grades, pagination, err := h.grades.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, pagination)
}

// Scores godoc
// @Summary Current raw scores for a subject with a live preview
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Router /grades/scores/{subjectId} [get]
func (h *GradeHandler) Scores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, preview, err := h.grades.Scores(c.Request.Context(), claims.UserID, c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"entries": entries, "preview": preview}, nil)
}

// Export godoc
// @Summary Download grade history as CSV or PDF
// @Tags Grades
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param subjectId query string false "Filter by subject"
// @Success 200 {file} binary
// @Router /grades/history/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	filter := models.ComputedGradeFilter{
		UserID:    claims.UserID,
		SubjectID: c.Query("subjectId"),
		ExamType:  c.Query("examType"),
	}
	file, err := h.exports.GradeHistory(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

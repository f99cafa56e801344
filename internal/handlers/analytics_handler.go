package handlers

import (
	"net/http"

	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetFormAnalytics returns per-field distributions and quiz statistics
// @Summary Form analytics
// @Description Computes answer distributions over a recent sample of responses
// @Tags analytics
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} services.FormAnalytics
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/analytics [get]
func (h *AnalyticsHandler) GetFormAnalytics(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	analytics, err := h.analyticsService.GetFormAnalytics(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// GetSubmissionTimeSeries returns a daily submission count series
// @Summary Submission time series
// @Description Returns per-day submission counts with gap days filled as zero
// @Tags analytics
// @Produce json
// @Param id path uint true "Form ID"
// @Param days query int false "Series length in days" default(30)
// @Success 200 {array} services.TimeSeriesPoint
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/analytics/series [get]
func (h *AnalyticsHandler) GetSubmissionTimeSeries(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	days := parseIntQuery(c, "days", 0)
	series, err := h.analyticsService.GetSubmissionTimeSeries(c.Request.Context(), formID, userID, days)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetAttendanceStats returns check-in totals for an attendance form
// @Summary Attendance stats
// @Tags analytics
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} services.AttendanceStats
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/analytics/attendance [get]
func (h *AnalyticsHandler) GetAttendanceStats(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.GetAttendanceStats(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetInsightSummary returns a prose summary of the form's analytics
// @Summary Insight summary
// @Tags analytics
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/analytics/insights [get]
func (h *AnalyticsHandler) GetInsightSummary(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.GetInsightSummary(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Insight summary generated",
		Data:    gin.H{"summary": summary},
	})
}

package handlers

import (
	"net/http"

	"github.com/formlab/forms-service/internal/repositories"
	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewResponseHandler(submissionService services.SubmissionService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// ListResponses lists responses for a form with filtering and pagination
// @Summary List responses
// @Description Lists responses submitted to a form, owner only
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Param email query string false "Filter by responder email"
// @Param student_id query string false "Filter by student ID"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ListResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/responses [get]
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.ResponseFilters{
		DateFrom:  parseTimeQuery(c, "date_from"),
		DateTo:    parseTimeQuery(c, "date_to"),
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if email := c.Query("email"); email != "" {
		filters.Email = &email
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}

	responses, total, err := h.submissionService.ListResponses(c.Request.Context(), formID, userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:   responses,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// GetResponse retrieves a single response
// @Summary Get response
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Param responseId path uint true "Response ID"
// @Success 200 {object} models.Response
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/responses/{responseId} [get]
func (h *ResponseHandler) GetResponse(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}
	responseID := parseIDParam(c, "responseId")
	if responseID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	response, err := h.submissionService.GetResponse(c.Request.Context(), formID, responseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteResponse removes a single response
// @Summary Delete response
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Param responseId path uint true "Response ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/responses/{responseId} [delete]
func (h *ResponseHandler) DeleteResponse(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}
	responseID := parseIDParam(c, "responseId")
	if responseID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.submissionService.DeleteResponse(c.Request.Context(), formID, responseID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Response deleted"})
}

// DeleteAllResponses clears every response of a form
// @Summary Delete all responses
// @Description Removes every response submitted to the form
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/responses [delete]
func (h *ResponseHandler) DeleteAllResponses(c *gin.Context) {
	formID := parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.submissionService.DeleteAllResponses(c.Request.Context(), formID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Responses deleted"})
}

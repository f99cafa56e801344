package handlers

import (
	"net/http"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated responder surface: fetching a
// published form by slug and submitting a response to it.
type PublicHandler struct {
	BaseHandler
	formService       services.FormService
	submissionService services.SubmissionService
}

func NewPublicHandler(
	formService services.FormService,
	submissionService services.SubmissionService,
	logger utils.Logger,
) *PublicHandler {
	return &PublicHandler{
		BaseHandler:       NewBaseHandler(logger),
		formService:       formService,
		submissionService: submissionService,
	}
}

// GetPublicForm retrieves the public projection of a published form
// @Summary Get public form
// @Description Returns the responder-facing view of a published form
// @Tags public
// @Produce json
// @Param slug path string true "Form slug"
// @Success 200 {object} services.PublicForm
// @Failure 404 {object} ErrorResponse
// @Router /f/{slug} [get]
func (h *PublicHandler) GetPublicForm(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing form slug",
		})
		return
	}

	form, err := h.formService.GetPublic(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// SubmitResponse accepts a response to a published form
// @Summary Submit response
// @Description Validates and stores a submission against the form definition
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Form slug"
// @Param submission body models.SubmissionPayload true "Submission payload"
// @Success 201 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /f/{slug}/responses [post]
func (h *PublicHandler) SubmitResponse(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing form slug",
		})
		return
	}

	var payload models.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	meta := services.SubmissionMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.submissionService.Submit(c.Request.Context(), slug, &payload, meta)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

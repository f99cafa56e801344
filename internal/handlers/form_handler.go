package handlers

import (
	"net/http"
	"time"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	BaseHandler
	formService   services.FormService
	exportService services.ExportService
}

func NewFormHandler(
	formService services.FormService,
	exportService services.ExportService,
	logger utils.Logger,
) *FormHandler {
	return &FormHandler{
		BaseHandler:   NewBaseHandler(logger),
		formService:   formService,
		exportService: exportService,
	}
}

// CreateForm creates a new form definition
// @Summary Create form
// @Description Creates a new form owned by the authenticated user
// @Tags forms
// @Accept json
// @Produce json
// @Param form body services.CreateFormRequest true "Form definition"
// @Success 201 {object} models.Form
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /forms [post]
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req services.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, form)
}

// GetForm retrieves a form by ID
// @Summary Get form
// @Description Retrieves the full form definition, owner only
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.Form
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// UpdateForm updates a form definition
// @Summary Update form
// @Description Updates a draft or published form; archived forms are read-only
// @Tags forms
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param form body services.UpdateFormRequest true "Fields to update"
// @Success 200 {object} models.Form
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /forms/{id} [put]
func (h *FormHandler) UpdateForm(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// DeleteForm deletes or archives a form
// @Summary Delete form
// @Description Archives a live form; permanently deletes an already archived form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id} [delete]
func (h *FormHandler) DeleteForm(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.formService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Form deleted"})
}

// ListForms lists the caller's forms with filtering and pagination
// @Summary List forms
// @Description Lists forms owned by the authenticated user
// @Tags forms
// @Produce json
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param search query string false "Search in title and description"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ListResponse
// @Router /forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := h.parseFormFilters(c)
	forms, total, err := h.formService.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:   forms,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// UpdateFormStatus transitions a form between lifecycle states
// @Summary Update form status
// @Description Moves a form to draft, published or archived
// @Tags forms
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param status body UpdateStatusRequest true "Target status"
// @Success 200 {object} models.Form
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /forms/{id}/status [patch]
func (h *FormHandler) UpdateFormStatus(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.UpdateStatus(c.Request.Context(), id, req.Status, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// PublishForm publishes a form
// @Summary Publish form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.Form
// @Failure 409 {object} ErrorResponse
// @Router /forms/{id}/publish [post]
func (h *FormHandler) PublishForm(c *gin.Context) {
	h.transitionTo(c, models.StatusPublished)
}

// ArchiveForm archives a form
// @Summary Archive form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.Form
// @Failure 409 {object} ErrorResponse
// @Router /forms/{id}/archive [post]
func (h *FormHandler) ArchiveForm(c *gin.Context) {
	h.transitionTo(c, models.StatusArchived)
}

func (h *FormHandler) transitionTo(c *gin.Context, status models.FormStatus) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.UpdateStatus(c.Request.Context(), id, status, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// GetOwnerStats returns aggregate counts across the caller's forms
// @Summary Owner dashboard stats
// @Tags forms
// @Produce json
// @Success 200 {object} repositories.OwnerStats
// @Router /forms/stats [get]
func (h *FormHandler) GetOwnerStats(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.formService.GetOwnerStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportResponses streams all responses of a form as CSV or Excel
// @Summary Export responses
// @Description Exports every response of the form in the requested format
// @Tags forms
// @Produce application/octet-stream
// @Param id path uint true "Form ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/export [get]
func (h *FormHandler) ExportResponses(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")
	timestamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case "csv":
		data, err := h.exportService.ExportResponsesCSV(c.Request.Context(), id, userID)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="responses-`+timestamp+`.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.exportService.ExportResponsesExcel(c.Request.Context(), id, userID)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="responses-`+timestamp+`.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: "supported formats: csv, xlsx",
		})
	}
}

// UpdateStatusRequest carries the target lifecycle state.
type UpdateStatusRequest struct {
	Status models.FormStatus `json:"status" binding:"required"`
}

func (h *FormHandler) parseFormFilters(c *gin.Context) repositories.FormFilters {
	filters := repositories.FormFilters{
		Search:    c.Query("search"),
		DateFrom:  parseTimeQuery(c, "date_from"),
		DateTo:    parseTimeQuery(c, "date_to"),
		Limit:     parseIntQuery(c, "limit", 20),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.FormStatus(status)
		filters.Status = &s
	}
	if formType := c.Query("type"); formType != "" {
		t := models.FormType(formType)
		filters.Type = &t
	}
	return filters
}

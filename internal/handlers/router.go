package handlers

import (
	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	formHandler      *FormHandler
	responseHandler  *ResponseHandler
	analyticsHandler *AnalyticsHandler
	publicHandler    *PublicHandler
	authMiddleware   gin.HandlerFunc
}

func NewHandlerManager(
	formService services.FormService,
	submissionService services.SubmissionService,
	analyticsService services.AnalyticsService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		formHandler:      NewFormHandler(formService, exportService, logger),
		responseHandler:  NewResponseHandler(submissionService, logger),
		analyticsHandler: NewAnalyticsHandler(analyticsService, logger),
		publicHandler:    NewPublicHandler(formService, submissionService, logger),
		authMiddleware:   AuthMiddleware(logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "forms-service",
		})
	})

	// Public responder surface, no authentication
	public := router.Group("/f")
	{
		public.GET("/:slug", hm.publicHandler.GetPublicForm)
		public.POST("/:slug/responses", hm.publicHandler.SubmitResponse)
	}

	// Owner-facing API, token required
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware)
	{
		forms := v1.Group("/forms")
		{
			forms.POST("", hm.formHandler.CreateForm)
			forms.GET("", hm.formHandler.ListForms)
			forms.GET("/stats", hm.formHandler.GetOwnerStats)
			forms.GET("/:id", hm.formHandler.GetForm)
			forms.PUT("/:id", hm.formHandler.UpdateForm)
			forms.DELETE("/:id", hm.formHandler.DeleteForm)
			forms.PATCH("/:id/status", hm.formHandler.UpdateFormStatus)
			forms.POST("/:id/publish", hm.formHandler.PublishForm)
			forms.POST("/:id/archive", hm.formHandler.ArchiveForm)
			forms.GET("/:id/export", hm.formHandler.ExportResponses)

			// Response management
			forms.GET("/:id/responses", hm.responseHandler.ListResponses)
			forms.DELETE("/:id/responses", hm.responseHandler.DeleteAllResponses)
			forms.GET("/:id/responses/:responseId", hm.responseHandler.GetResponse)
			forms.DELETE("/:id/responses/:responseId", hm.responseHandler.DeleteResponse)

			// Analytics
			forms.GET("/:id/analytics", hm.analyticsHandler.GetFormAnalytics)
			forms.GET("/:id/analytics/series", hm.analyticsHandler.GetSubmissionTimeSeries)
			forms.GET("/:id/analytics/attendance", hm.analyticsHandler.GetAttendanceStats)
			forms.GET("/:id/analytics/insights", hm.analyticsHandler.GetInsightSummary)
		}
	}
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/controllers"
	"eteeap-portfolio-api/middleware"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/monitor"
	"eteeap-portfolio-api/utils"
)

func SetupRoutes(router *gin.Engine) {
	utils.InitValidator()

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/register", controllers.Register)
			public.GET("/health", controllers.Health)
			public.GET("/document-categories", controllers.ListDocumentCategories)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Owners, admins and assigned evaluators; checked per document
			protected.GET("/documents/:id/download", controllers.DownloadDocument)

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PATCH("/:id/read", controllers.MarkNotificationRead)
				notifications.POST("/mark-all-read", controllers.MarkAllNotificationsRead)
			}

			applicant := protected.Group("/applicant")
			applicant.Use(middleware.RequireRole(models.RoleApplicant))
			{
				applicant.GET("/portfolios", controllers.ListMyPortfolios)
				applicant.POST("/portfolios", controllers.CreatePortfolio)
				applicant.GET("/portfolios/:id", controllers.GetPortfolio)
				applicant.PUT("/portfolios/:id", controllers.UpdatePortfolio)
				applicant.DELETE("/portfolios/:id", controllers.DeletePortfolio)
				applicant.POST("/portfolios/:id/submit", controllers.SubmitPortfolio)
				applicant.POST("/portfolios/:id/documents", controllers.UploadDocument)
				applicant.DELETE("/portfolios/:id/documents/:document_id", controllers.DeleteDocument)
			}

			evaluator := protected.Group("/evaluator")
			evaluator.Use(middleware.RequireRole(models.RoleEvaluator))
			{
				evaluator.GET("/portfolios", controllers.ListEvaluatorAssignments)
				evaluator.GET("/portfolios/:assignment_id", controllers.GetEvaluatorAssignment)
				evaluator.POST("/portfolios/:assignment_id/save", controllers.SaveEvaluationDraft)
				evaluator.POST("/portfolios/:assignment_id/submit", controllers.SubmitEvaluation)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/portfolios", controllers.AdminListPortfolios)
				admin.GET("/portfolios/:id", controllers.AdminGetPortfolio)
				admin.POST("/portfolios/:id/assign", controllers.AssignEvaluator)
				admin.PUT("/portfolios/:id/status", controllers.UpdatePortfolioStatus)
				admin.DELETE("/portfolios/:id/assignments/:assignment_id", controllers.RemoveAssignment)

				admin.GET("/users", controllers.ListUsers)
				admin.POST("/users", controllers.CreateUser)
				admin.GET("/users/:id", controllers.GetUser)
				admin.PUT("/users/:id", controllers.UpdateUser)
				admin.DELETE("/users/:id", controllers.DeleteUser)

				admin.GET("/document-categories", controllers.ListDocumentCategories)
				admin.POST("/document-categories", controllers.CreateCategory)
				admin.GET("/document-categories/:id", controllers.GetCategory)
				admin.PUT("/document-categories/:id", controllers.UpdateCategory)
				admin.DELETE("/document-categories/:id", controllers.DeleteCategory)

				admin.GET("/rubric-criteria", controllers.ListCriteria)
				admin.POST("/rubric-criteria", controllers.CreateCriteria)
				admin.GET("/rubric-criteria/:id", controllers.GetCriteria)
				admin.PUT("/rubric-criteria/:id", controllers.UpdateCriteria)
				admin.DELETE("/rubric-criteria/:id", controllers.DeleteCriteria)

				admin.GET("/reports", controllers.GetReports)
				admin.GET("/logs", monitor.TailLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})
}

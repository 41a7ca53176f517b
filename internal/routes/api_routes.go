// scholarship-system/internal/routes/api_routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/anud18/scholarship-system-sub001/internal/handlers"
	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/models"
)

// Handlers bundles every handler the API registers. Wired once in main.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Eligibility   *handlers.EligibilityHandler
	Applications  *handlers.ApplicationHandler
	Reviews       *handlers.ReviewHandler
	BatchImports  *handlers.BatchImportHandler
	Scholarships  *handlers.ScholarshipHandler
	Rosters       *handlers.RosterHandler
	Notifications *handlers.NotificationHandler
	Departments   *handlers.DepartmentHandler
	Users         *handlers.UserHandler
}

// RegisterAPIRoutes registers every authenticated route under /api.
func RegisterAPIRoutes(api *gin.RouterGroup, h *Handlers) {
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	reviewers := middleware.RequireRole(models.RoleProfessor, models.RoleCollege, models.RoleAdmin, models.RoleSuperAdmin)
	importers := middleware.RequireRole(models.RoleCollege, models.RoleAdmin, models.RoleSuperAdmin)

	apiGroup := api.Group("/api")
	{
		apiGroup.GET("/profile", h.Auth.Profile)
		apiGroup.POST("/logout", h.Auth.Logout)

		applications := apiGroup.Group("/applications")
		{
			applications.POST("", h.Applications.Create)
			applications.GET("", h.Applications.List)
			applications.GET("/:id", h.Applications.Get)
			applications.POST("/:id/submit", h.Applications.Submit)
			applications.POST("/:id/withdraw", h.Applications.Withdraw)
			applications.DELETE("/:id", h.Applications.Delete)
			applications.POST("/:id/restore", h.Applications.Restore)
			applications.PUT("/:id/status", staff, h.Applications.UpdateStatus)

			applications.GET("/:id/reviewable-subtypes", reviewers, h.Reviews.ReviewableSubTypes)
			applications.POST("/:id/review", reviewers, h.Reviews.SubmitReview)
		}

		scholarships := apiGroup.Group("/scholarships")
		{
			scholarships.GET("", h.Scholarships.ListTypes)
			scholarships.GET("/:id", h.Scholarships.GetType)
			scholarships.POST("", staff, h.Scholarships.CreateType)
			scholarships.PUT("/:id", staff, h.Scholarships.UpdateType)

			scholarships.GET("/:id/eligibility", h.Eligibility.Check)

			scholarships.POST("/:id/rules/copy", staff, h.Scholarships.CopyRules)
			scholarships.GET("/:id/roster", staff, h.Rosters.Generate)
			scholarships.GET("/:id/roster/export", staff, h.Rosters.Export)
		}

		configurations := apiGroup.Group("/configurations", staff)
		{
			configurations.GET("", h.Scholarships.ListConfigurations)
			configurations.POST("", h.Scholarships.CreateConfiguration)
			configurations.PUT("/:id", h.Scholarships.UpdateConfiguration)
		}

		rules := apiGroup.Group("/rules", staff)
		{
			rules.GET("", h.Scholarships.ListRules)
			rules.POST("", h.Scholarships.CreateRule)
			rules.PUT("/:id", h.Scholarships.UpdateRule)
			rules.DELETE("/:id", h.Scholarships.DeleteRule)
		}

		imports := apiGroup.Group("/batch-imports", importers)
		{
			imports.POST("", h.BatchImports.Upload)
			imports.GET("", h.BatchImports.List)
			imports.GET("/:id", h.BatchImports.Get)
			imports.PUT("/:id/records/:index", h.BatchImports.EditRecord)
			imports.DELETE("/:id/records/:index", h.BatchImports.DeleteRecord)
			imports.POST("/:id/revalidate", h.BatchImports.Revalidate)
			imports.POST("/:id/confirm", h.BatchImports.Confirm)
		}

		notifications := apiGroup.Group("/notifications")
		{
			notifications.GET("", h.Notifications.List)
			notifications.POST("/:id/read", h.Notifications.MarkRead)
			notifications.POST("/read-all", h.Notifications.MarkAllRead)
		}

		users := apiGroup.Group("/users", staff)
		{
			users.GET("", h.Users.List)
			users.GET("/:id", h.Users.Get)
			users.POST("", h.Users.Create)
			users.PUT("/:id", h.Users.Update)
			users.DELETE("/:id", h.Users.Delete)
		}

		departments := apiGroup.Group("/departments")
		{
			departments.GET("", h.Departments.List)
			departments.GET("/:code", h.Departments.Get)
		}
	}
}

// RegisterPublicRoutes registers the unauthenticated routes.
func RegisterPublicRoutes(r *gin.Engine, h *Handlers) {
	r.POST("/api/login", h.Auth.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

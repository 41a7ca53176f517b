// scholarship-system/cmd/server/main.go
package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/anud18/scholarship-system-sub001/config"
	"github.com/anud18/scholarship-system-sub001/internal/audit"
	"github.com/anud18/scholarship-system-sub001/internal/batchimport"
	"github.com/anud18/scholarship-system-sub001/internal/eligibility"
	"github.com/anud18/scholarship-system-sub001/internal/handlers"
	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/internal/quota"
	"github.com/anud18/scholarship-system-sub001/internal/review"
	"github.com/anud18/scholarship-system-sub001/internal/roster"
	"github.com/anud18/scholarship-system-sub001/internal/routes"
	"github.com/anud18/scholarship-system-sub001/internal/studentapi"
	"github.com/anud18/scholarship-system-sub001/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	config.LoadConfig()
	config.ConnectDB()
	config.ConnectRedis()

	err := config.DB.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.ScholarshipType{},
		&models.ScholarshipSubType{},
		&models.ScholarshipConfiguration{},
		&models.ScholarshipRule{},
		&models.Application{},
		&models.ApplicationReview{},
		&models.ApplicationReviewItem{},
		&models.ApplicationSequence{},
		&models.BatchImport{},
		&models.QuotaAllocation{},
		&models.Notification{},
		&models.AuditLog{},
	)
	if err != nil {
		slog.Error("auto-migration failed", "error", err)
		os.Exit(1)
	}

	auditLogger := audit.NewLogger(config.DB)
	quotaService := quota.NewService(config.DB)

	// NewClient returns nil when STUDENT_API_URL is unset; leave the
	// directory interfaces nil in that case so the services degrade cleanly.
	var directory eligibility.StudentDirectory
	var importDirectory batchimport.Directory
	if client := studentapi.NewClient(config.StudentAPIURL); client != nil {
		directory = client
		importDirectory = client
	}

	evaluator := eligibility.NewEvaluator(config.DB, directory)
	workflow := review.NewWorkflow(config.DB, quotaService, auditLogger)

	h := &routes.Handlers{
		Auth:          handlers.NewAuthHandler(config.DB),
		Eligibility:   handlers.NewEligibilityHandler(evaluator),
		Applications:  handlers.NewApplicationHandler(config.DB, evaluator, workflow, directory),
		Reviews:       handlers.NewReviewHandler(workflow),
		BatchImports:  handlers.NewBatchImportHandler(config.DB, batchimport.NewPipeline(config.DB, importDirectory), os.Getenv("UPLOAD_DIR")),
		Scholarships:  handlers.NewScholarshipHandler(config.DB),
		Rosters:       handlers.NewRosterHandler(roster.NewGenerator(config.DB)),
		Notifications: handlers.NewNotificationHandler(config.DB),
		Departments:   handlers.NewDepartmentHandler(config.DB),
		Users:         handlers.NewUserHandler(config.DB),
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc("30 3 * * *", func() {
		purged, err := batchimport.PurgeExpired(config.DB)
		if err != nil {
			slog.Error("staged data purge failed", "error", err)
			return
		}
		if purged > 0 {
			slog.Info("purged expired staged import data", "batches", purged)
		}
	})
	if err != nil {
		slog.Error("failed to schedule purge job", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.Default()
	routes.RegisterPublicRoutes(r, h)

	authorized := r.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	routes.RegisterAPIRoutes(authorized, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("server starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

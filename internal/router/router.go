package router

import (
	"log"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/campusrate/backend/internal/handlers"
	"github.com/campusrate/backend/internal/middleware"
	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/notifier"
	"github.com/campusrate/backend/internal/repositories"
	"github.com/campusrate/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the audit repository so the caller can hand it to the change
// capture pipeline, and the notifier so shutdown can drain it.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgdb *mongo.Database, messagingClient *messaging.Client, logger *slog.Logger) (repositories.AuditRepository, *notifier.Notifier) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.Notification{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mgdb)
	studentRepo := repositories.NewMongoStudentRepository(mgdb)
	professorRepo := repositories.NewMongoProfessorRepository(mgdb)
	courseRepo := repositories.NewMongoCourseRepository(mgdb)
	reviewRepo := repositories.NewMongoReviewRepository(mgdb.Client(), mgdb)
	auditRepo := repositories.NewMongoAuditRepository(mgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	fanout := notifier.New(notificationRepo, messagingClient, logger)

	// --- Public routes ---
	professorHandler := handlers.NewProfessorHandler(professorRepo, courseRepo, userRepo)
	public := e.Group("/api/v1")
	professorHandler.RegisterPublicRoutes(public)
	log.Println("Public professor routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Review and comment routes
	reviewHandler := handlers.NewReviewHandler(reviewRepo, studentRepo, professorRepo, courseRepo, userRepo, fanout)
	reviewHandler.RegisterReviewRoutes(api)
	log.Println("Review routes configured.")

	// Professor course association and bookmark routes
	professorHandler.RegisterProfessorRoutes(api)
	log.Println("Professor routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, professorRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Audit routes (admin only)
	admin := api.Group("/admin", middleware.RequireAdmin())
	auditHandler := handlers.NewAuditHandler(auditRepo)
	auditHandler.RegisterAuditRoutes(admin)
	log.Println("Audit routes configured.")

	log.Println("All routes configured.")
	return auditRepo, fanout
}

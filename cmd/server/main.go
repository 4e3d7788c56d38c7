package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/campusrate/backend/internal/audit"
	"github.com/campusrate/backend/internal/router"
	"github.com/campusrate/backend/pkg/config"
	"github.com/campusrate/backend/pkg/firebase"
	"github.com/campusrate/backend/pkg/logger"
	"github.com/campusrate/backend/pkg/validator"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	slogger := logger.New("campusrate-api", cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	mgdb := db.Mongo.Database(cfg.MongoDatabase)

	// Initialize Firebase. Push delivery is best-effort: without credentials
	// the notifier still persists, it just skips the push leg.
	ctx := context.Background()
	var messagingClient *messaging.Client
	if firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath); err != nil {
		slogger.Warn("firebase unavailable, push delivery disabled", "error", err)
	} else {
		messagingClient = firebaseApp.MessagingClient
	}

	// Create Echo instance
	e := echo.New()
	e.Validator = validator.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	auditRepo, fanout := router.SetupRoutes(e, cfg, db.Postgres, mgdb, messagingClient, slogger)

	// Start the change capture pipeline
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create audit indexes: %v", err)
	}
	pipeline := audit.New(audit.NewMongoSource(mgdb), auditRepo, slogger, cfg.WatchedCollections)
	pipeline.Start(ctx)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt, then drain everything in order: stop accepting
	// requests, stop the capture pipeline, let in-flight notifications land.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slogger.Error("server shutdown", "error", err)
	}
	pipeline.Stop()
	fanout.Wait()
}

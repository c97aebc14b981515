package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/rehab-assign/internal/api"
	"alcyxob/rehab-assign/internal/config"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/repository/mongo"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/service"
	"alcyxob/rehab-assign/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Rehab Assignment API
// @version 1.0
// @description API for clinicians assigning exercise sets to patients.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".") // config.yaml in the working dir, env vars win
	if err != nil {
		// The configured logger does not exist yet; use the package default
		logger.Error("Could not load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(&logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	log.Info("Starting rehab assignment server", "address", cfg.Server.Address)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Error("Could not connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("Failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() { // Run index creation in the background so startup is not blocked
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute) // Timeout for index creation
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB, log); err != nil {
			log.Warn("Index creation finished with errors", "error", err)
			return
		}
		log.Info("Index creation process completed")
	}()

	// --- Initialize Storage ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	fileStorage, err := storage.NewS3Storage(initCtx, cfg.S3, log)
	cancelInit()
	if err != nil {
		log.Error("Failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	setRepo := mongo.NewMongoSetRepository(appDB)
	mappingRepo := mongo.NewMongoMappingRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	uploadRepo := mongo.NewMongoUploadRepository(appDB)

	// --- Initialize Services ---
	// The wizard submits through the assignment service, so it is built first
	assignmentService := service.NewAssignmentService(assignmentRepo, setRepo, mappingRepo, exerciseRepo, userRepo, fileStorage, log)
	wizardService := service.NewWizardService(service.WizardConfig{
		SessionTTL:          cfg.Wizard.SessionTTL,
		DefaultPreset:       schedule.Preset(cfg.Wizard.DefaultPreset),
		DefaultTimesPerWeek: cfg.Wizard.DefaultTimesPerWeek,
	}, setRepo, mappingRepo, exerciseRepo, userRepo, assignmentRepo, assignmentService, log)

	services := api.Services{
		Auth:        service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log),
		Patients:    service.NewPatientService(userRepo, log),
		Library:     service.NewLibraryService(exerciseRepo, log),
		Sets:        service.NewSetService(setRepo, mappingRepo, exerciseRepo, log),
		Assignments: assignmentService,
		Wizards:     wizardService,
		Media:       service.NewMediaService(wizardService, uploadRepo, fileStorage, log),
	}

	// Drop idle wizard sessions once a minute
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go wizardService.RunJanitor(janitorCtx, time.Minute)

	// --- Initialize Gin Engine ---
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// Recovery from gin, request lines through our logger instead of gin.Logger()
	router.Use(gin.Recovery(), api.RequestLogger(log))

	api.SetupRoutes(router, cfg.JWT.Secret, services, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ListenAndServe error", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("Server listening", "address", cfg.Server.Address)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopJanitor()

	// The server gets 5 seconds to finish the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting")
}

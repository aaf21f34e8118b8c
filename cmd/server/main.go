package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vitalia-health/vitalia-ai-go/internal/api"
	"github.com/vitalia-health/vitalia-ai-go/internal/api/handlers"
	"github.com/vitalia-health/vitalia-ai-go/internal/cache"
	"github.com/vitalia-health/vitalia-ai-go/internal/config"
	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/logging"
	"github.com/vitalia-health/vitalia-ai-go/internal/referencedata"
	"github.com/vitalia-health/vitalia-ai-go/internal/services"
	"github.com/vitalia-health/vitalia-ai-go/internal/telemetry"
)

func main() {
	// Load .env if present; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	provider, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize telemetry")
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	ref, err := loadReferenceData(cfg.ReferenceData)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load reference data")
	}
	logger.WithField("version", ref.Version).Info("Reference data loaded")

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	repo := database.NewHistoryRepository(db)
	resultCache := cache.NewCorrelationCache(redis, cfg.Analytics.CacheTTL(), logger)

	bioAgeService := services.NewBioAgeService(ref, logger)
	microbiomeService := services.NewMicrobiomeService(ref, logger)
	gutBrainService := services.NewGutBrainService(repo, ref, cfg.Analytics, logger)
	monitor := services.NewPerformanceMonitor(logger)

	analysisHandler := handlers.NewAnalysisHandler(bioAgeService, microbiomeService, gutBrainService, repo, resultCache, logger)
	moodHandler := handlers.NewMoodHandler(repo, resultCache, logger)
	healthHandler := handlers.NewHealthHandler(db, redis, monitor)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, analysisHandler, moodHandler, healthHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func loadReferenceData(cfg config.ReferenceDataConfig) (*referencedata.ReferenceData, error) {
	if cfg.Path != "" {
		return referencedata.LoadFile(cfg.Path)
	}
	return referencedata.Default()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mont3ll/lms-backend/internal/cache"
	"github.com/Mont3ll/lms-backend/internal/config"
	"github.com/Mont3ll/lms-backend/internal/grading"
	"github.com/Mont3ll/lms-backend/internal/handlers"
	"github.com/Mont3ll/lms-backend/internal/lock"
	"github.com/Mont3ll/lms-backend/internal/repositories/postgres"
	"github.com/Mont3ll/lms-backend/internal/services"
	"github.com/Mont3ll/lms-backend/internal/utils"
	"github.com/Mont3ll/lms-backend/internal/validator"
	"github.com/Mont3ll/lms-backend/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Redis backs both the result cache and the grading claim. The service
	// degrades to in-process equivalents when it is unavailable.
	var cacheService cache.CacheService
	var locker lock.AttemptLocker
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, using in-process cache and locking", "error", err)
		cacheService = cache.NoopCache{}
		locker = lock.NewMemoryLocker()
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
		locker = lock.NewRedisLocker(redisClient)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db, cacheService)
	defer repo.Close()

	v := validator.New()
	grader := grading.NewGrader(grading.NewRegistry(), slogger)

	gradingService := services.NewGradingService(repo, grader, locker, publisher, slogger)
	attemptService := services.NewAttemptService(repo, gradingService, publisher, v, slogger)
	assessmentService := services.NewAssessmentService(repo, v, slogger)
	exportService := services.NewExportService(repo, slogger)
	userService := services.NewUserService(repo, v, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		assessmentService, attemptService, gradingService, exportService, userService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Expiry sweep closes overdue assessments and their open attempts.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runExpirySweep(sweepCtx, assessmentService, logger)

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

func runExpirySweep(ctx context.Context, assessments services.AssessmentService, logger utils.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := assessments.ExpireOverdue(ctx)
			if err != nil {
				logger.Error("Expiry sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				logger.Info("Expiry sweep completed", "assessments_expired", expired)
			}
		}
	}
}

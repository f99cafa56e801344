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

	"github.com/formlab/forms-service/internal/cache"
	"github.com/formlab/forms-service/internal/config"
	"github.com/formlab/forms-service/internal/handlers"
	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories/postgres"
	"github.com/formlab/forms-service/internal/services"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/formlab/forms-service/internal/validator"
	"github.com/formlab/forms-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.Form{}, &models.Response{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()
	cacheService := cache.NewRedisCache(redisClient, logger)

	scoringService := services.NewScoringService(logger)
	formService := services.NewFormService(repo, logger, v, cacheService, publisher)
	submissionService := services.NewSubmissionService(repo, logger, v, scoringService, publisher)
	analyticsService := services.NewAnalyticsService(repo, logger, services.NewRuleInsightProvider())
	exportService := services.NewExportService(repo, logger)

	handlers.InitAuth(cfg.Casdoor)

	appLogger := utils.NewSlogLogger(logger)
	handlerManager := handlers.NewHandlerManager(
		formService,
		submissionService,
		analyticsService,
		exportService,
		appLogger,
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

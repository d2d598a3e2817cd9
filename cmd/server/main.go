package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldops/fieldtrack-backend-go/internal/api"
	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
	"github.com/fieldops/fieldtrack-backend-go/internal/config"
	"github.com/fieldops/fieldtrack-backend-go/internal/database"
	"github.com/fieldops/fieldtrack-backend-go/internal/geocoding"
	"github.com/fieldops/fieldtrack-backend-go/internal/handler"
	"github.com/fieldops/fieldtrack-backend-go/internal/ratelimit"
	"github.com/fieldops/fieldtrack-backend-go/internal/repository"
	"github.com/fieldops/fieldtrack-backend-go/internal/service"
	"github.com/fieldops/fieldtrack-backend-go/internal/validation"
)

func main() {
	cfg := config.Load()

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("starting tracking engine", zap.String("port", cfg.Port))

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	trackRepo := repository.NewTrackRepository(db)
	userRepo := repository.NewUserRepository(db)

	store := cache.NewMemory(cfg.CacheSize, cfg.CacheMaxTTL)

	validator := validation.NewValidator(cfg.MaxAccuracyMeters)
	limiter := ratelimit.NewLimiter(store, logger, cfg.RateLimit, cfg.RateLimitWindow)

	geocoder := geocoding.NewClient(cfg.GeocodingBaseURL, cfg.GeocodingAPIKey, logger)
	resolver := geocoding.NewResolver(geocoder, store, logger)
	backfiller := geocoding.NewBackfiller(resolver, trackRepo, logger)

	trackService := service.NewTrackService(trackRepo, userRepo, validator, limiter, store, logger)
	analyticsService := service.NewAnalyticsService(trackRepo, userRepo, backfiller, store, logger, cfg.AnalyticsCacheTTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.RouterDeps{
		Logger:           logger,
		Cache:            store,
		TrackHandler:     handler.NewTrackHandler(trackService),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService),
		APIRateLimit:     cfg.APIRateLimit,
		APIRateWindow:    cfg.APIRateLimitWindow,
	})

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Printf("failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

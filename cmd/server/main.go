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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rmfonseca/scorebet/internal/api"
	"github.com/rmfonseca/scorebet/internal/api/middleware"
	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/providers"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Team resolver: built-in aliases plus any stored in the database
	resolver := teams.NewResolver()
	var storedAliases []models.TeamAlias
	if err := db.Find(&storedAliases).Error; err != nil {
		logrus.Warnf("Failed to load team aliases from database: %v", err)
	}
	for _, a := range storedAliases {
		if err := resolver.AddAlias(a.Alias, a.Canonical); err != nil {
			logrus.Warnf("Skipping stored alias %q: %v", a.Alias, err)
		}
	}

	// Services
	cacheService := services.NewCacheService(redisClient)
	gameStore := services.NewGameStore(db, resolver, logger)
	oddsStore := services.NewOddsStore(db, resolver, logger)
	modelStore := services.NewModelStore(db, logger)

	provider := providers.NewBallDontLieClient(
		cfg.BallDontLieBaseURL,
		cfg.BallDontLieAPIKey,
		cfg.ExternalAPITimeout,
		cacheService,
		logger,
	)

	predictionService := services.NewPredictionService(
		gameStore, oddsStore, modelStore, provider, resolver, cacheService, logger,
	)

	// Parse fetch interval
	fetchInterval, err := time.ParseDuration(cfg.DataFetchInterval)
	if err != nil {
		logrus.Warnf("Invalid fetch interval, using default 2h: %v", err)
		fetchInterval = 2 * time.Hour
	}

	dataFetcher := services.NewDataFetcherService(
		gameStore,
		oddsStore,
		provider,
		logger,
		fetchInterval,
		cfg.HistoryDays,
		time.Duration(cfg.OddsMaxAgeDays)*24*time.Hour,
	)
	if cfg.EnableBackgroundJobs {
		if err := dataFetcher.Start(!cfg.SkipInitialDataFetch); err != nil {
			logrus.Errorf("Failed to start data fetcher: %v", err)
		}
		defer dataFetcher.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	api.SetupRoutes(router, api.Deps{
		DB:          db,
		Redis:       redisClient,
		Config:      cfg,
		GameStore:   gameStore,
		OddsStore:   oddsStore,
		ModelStore:  modelStore,
		Predictions: predictionService,
		DataFetcher: dataFetcher,
	})

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

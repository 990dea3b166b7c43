package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/auth"
	"github.com/freeeve/hexcommand/internal/config"
	"github.com/freeeve/hexcommand/internal/handler"
	"github.com/freeeve/hexcommand/internal/logger"
	"github.com/freeeve/hexcommand/internal/middleware"
	"github.com/freeeve/hexcommand/internal/repository"
	"github.com/freeeve/hexcommand/internal/repository/postgres"
	redisrepo "github.com/freeeve/hexcommand/internal/repository/redis"
	"github.com/freeeve/hexcommand/internal/repository/sqlite"
	"github.com/freeeve/hexcommand/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Dev: cfg.Dev})

	params, err := config.LoadParams(cfg.TuningFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading tuning failed")
	}
	log.Info().Str("tuning", cfg.TuningFile).Strs("friendly", cfg.Friendly).Msg("Config loaded")

	// Plan store
	var repo repository.PlanRepository
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite open failed")
		}
		defer store.Close()
		repo = store
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite plan store")
	} else {
		db, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		repo = postgres.NewPlanRepo(db)
	}

	// Redis
	redisClient, err := redisrepo.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	graphs := service.NewGraphCache(redisClient, params, cfg.GraphCacheSize)
	planSvc := service.NewPlanService(repo, redisClient, graphs, params, cfg.Friendly, wsHub,
		service.RepoSink{Repo: repo},
		service.CacheSink{Cache: redisClient},
		service.BroadcastSink{Broadcaster: wsHub},
	)

	// Handlers
	mux := handler.Routes(jwtMgr,
		handler.NewAuthHandler(jwtMgr, cfg.Dev),
		handler.NewPlanHandler(planSvc),
		handler.NewMapHandler(planSvc),
		handler.NewWSHandler(wsHub, jwtMgr, cfg.CORSOrigins),
		redisClient.Ping,
	)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.Metrics, middleware.CORS(cfg.CORSOrigins), middleware.JSON)

	// Planning a large map can take a while, so writes get more room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

// Command server runs the achievements API.
//
// @title       ShelfQuest Achievements API
// @version     1.0
// @description Achievement evaluation and progress tracking for reading activity.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/shelfquest/achievements-backend/internal/config"
	httpapi "github.com/shelfquest/achievements-backend/internal/http"
	"github.com/shelfquest/achievements-backend/internal/kafka"
	"github.com/shelfquest/achievements-backend/internal/leaderboard"
	"github.com/shelfquest/achievements-backend/internal/observability"
	"github.com/shelfquest/achievements-backend/internal/repo"
	"github.com/shelfquest/achievements-backend/internal/services"
	"github.com/shelfquest/achievements-backend/internal/sysutil"
	"github.com/shelfquest/achievements-backend/internal/worker"
)

// version is set with -ldflags "-X main.version=...".
var version string

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	reg := services.NewRegistry(db, services.RegistryOptions{
		Table:       cfg.DB.AchievementsTable,
		SeedMissing: cfg.DB.SeedAchievements,
	})
	if !reg.EnsureLoaded(ctx) {
		// Retried lazily on the next evaluation.
		log.Warn().Str("table", cfg.DB.AchievementsTable).Msg("achievement mapping unavailable at startup")
	}
	tracker := services.NewProgressTracker(db, reg)
	achievements := services.NewAchievementService(reg, tracker, services.DefaultEvaluators(repo.ReadingStats{DB: db}))
	events := services.NewEventProcessor(db, achievements)
	reading := services.NewReadingService(db, events)

	var board *leaderboard.Leaderboard
	if cfg.Redis.Addr != "" {
		board, err = leaderboard.New(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; leaderboard disabled")
		} else {
			achievements.Sink = board
			defer board.Close()
			log.Info().Str("addr", cfg.Redis.Addr).Msg("leaderboard enabled")
		}
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = kafka.NewConsumer(cfg.Kafka, events)
		if err == nil {
			err = consumer.Start()
		}
		if err != nil {
			log.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka unavailable; continuing without ingest")
			consumer = nil
		} else {
			log.Info().Str("topic", cfg.Kafka.Topic).Msg("kafka consumer started")
		}
	}

	var poller *worker.Poller
	if cfg.Worker.Enabled {
		poller = worker.NewPoller(events, cfg.Worker)
		poller.Start(ctx)
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:           db,
		Achievements: achievements,
		Events:       events,
		Reading:      reading,
		Leaderboard:  board,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			log.Error().Err(err).Msg("kafka consumer stop failed")
		}
	}
	if poller != nil {
		poller.Stop()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

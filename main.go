// File: /main.go
package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"squadrun-api/config"
	"squadrun-api/database"
	"squadrun-api/jobs"
	"squadrun-api/middleware"
	"squadrun-api/repositories"
	"squadrun-api/routes"
	"squadrun-api/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis is optional: without it the live hub still serves local viewers,
	// it just cannot fan out across instances.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, live fan-out limited to this instance")
	}

	hub := services.NewLiveHub(redisClient)
	feed := services.NewDeviceFeed()
	repo := repositories.NewSessionRepository(db)

	tracker := services.NewTracker(repo, feed, feed, hub, services.TrackerConfig{
		FlushInterval:   cfg.FlushInterval,
		JumpThresholdM:  cfg.JumpThresholdM,
		StopGracePeriod: cfg.StopGracePeriod,
	})
	recovery := services.NewRecoveryService(repo, tracker)
	mailer := services.NewSummaryMailer(cfg)

	cleanupJob := jobs.NewHeartbeatCleanupJob(db, cfg.CleanupInterval, cfg.HeartbeatStale)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	r := gin.Default()
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestLogger())
	routes.SetupCORS(r)

	routes.SetupRoutes(r, routes.Dependencies{
		DB:       db,
		Config:   cfg,
		Repo:     repo,
		Tracker:  tracker,
		Feed:     feed,
		Recovery: recovery,
		Hub:      hub,
		Mailer:   mailer,
	})

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

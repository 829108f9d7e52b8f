package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/softdesk/internal/bootstrap"
	"anoa.com/softdesk/internal/config"
	"anoa.com/softdesk/internal/server"
	"anoa.com/softdesk/pkg/database"
	"anoa.com/softdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Pretty: true})
		log := logger.Get()
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	db, err := database.Connect(cfg.DatabaseOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedDevelopment(db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed development data")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisClient.Close()
	}

	srv := server.NewServer(cfg, db, redisClient)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

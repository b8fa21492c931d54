package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distillery/internal/config"
	"distillery/internal/infra"
	"distillery/internal/planning"
	"distillery/internal/router"
	"distillery/internal/service"
	"distillery/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	}

	var recipes planning.RecipeTable
	if cfg.RecipesPath != "" {
		recipes, err = planning.LoadRecipes(cfg.RecipesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RecipesPath).Msg("failed to load recipes")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Export jobs carry their own frozen stock snapshot, so the worker's
	// planner runs without a ledger.
	if rdb != nil {
		exports := worker.NewExportWorker(
			service.NewPlanningService(nil, recipes, nil, nil),
			infra.NewRedisExportStore(rdb),
			cfg.ExportStoragePath,
		)
		worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, exports)
	}

	r := router.New(cfg, db, rdb, recipes)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("distillery inventory API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

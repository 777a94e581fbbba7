package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jimdaga/carspot/internal/config"
	"github.com/jimdaga/carspot/internal/database"
	"github.com/jimdaga/carspot/internal/geocode"
	"github.com/jimdaga/carspot/internal/ledger"
	"github.com/jimdaga/carspot/internal/logging"
	"github.com/jimdaga/carspot/internal/server"
	"github.com/jimdaga/carspot/internal/store"
	"github.com/jimdaga/carspot/internal/store/csvfile"
	"github.com/jimdaga/carspot/internal/store/githubfs"
	"github.com/jimdaga/carspot/internal/store/gormstore"
	"github.com/jimdaga/carspot/internal/worker"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	st, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "backend", cfg.StoreBackend, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	if cfg.SeedDemo {
		if err := database.SeedDemoData(context.Background(), st, cfg.Spotters, logger); err != nil {
			logger.Warn("Failed to seed demo data", "error", err.Error())
		}
	}

	led, err := ledger.New(context.Background(), st, cfg.Spotters, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err.Error())
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to parse Redis URL", "error", err.Error())
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}
	geo := geocode.NewClient(cfg.NominatimURL, rdb, cfg.GeocodeStub, logger)

	r := server.NewRouter(cfg, led, geo)

	logger.Info("Starting server",
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
		"spotters", cfg.Spotters,
	)
	if err := r.Run(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err.Error())
		os.Exit(1)
	}
}

// openStore builds the persistence backend selected by configuration and
// returns it with a cleanup function for whatever it started.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendCSV:
		s, err := csvfile.New(cfg.DataDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.BackendGitHub:
		if cfg.GitHubToken == "" || cfg.GitHubRepo == "" {
			return nil, noop, fmt.Errorf("github backend requires GITHUB_TOKEN and GITHUB_REPO")
		}
		client := githubfs.NewClient("", cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubBranch)

		// With Redis available, pushes go through the asynq queue and get
		// retries; without it the store falls back to inline goroutine
		// pushes.
		if cfg.RedisURL == "" {
			logger.Warn("REDIS_URL not set, mirror pushes will not be retried")
			return githubfs.New(client, nil, logger), noop, nil
		}

		enqueuer, err := worker.NewEnqueuer(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		stopWorker, err := worker.Start(cfg.RedisURL, client, logger)
		if err != nil {
			enqueuer.Close()
			return nil, noop, err
		}
		cleanup := func() {
			stopWorker()
			enqueuer.Close()
		}
		return githubfs.New(client, enqueuer, logger), cleanup, nil

	case config.BackendDB:
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("db backend requires DATABASE_URL")
		}
		s, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

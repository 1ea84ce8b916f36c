package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/httpserver"
	"github.com/vidtube/backend/internal/logging"
)

// Run bootstraps the vidtube backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, os.Stdout, args[1:])
	case "seed":
		return runSeed(ctx, os.Stdout, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	repos, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	deps, cleanup, err := buildDependencies(cfg, repos, blobs, health, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, newHandler(cfg, deps, logger), httpserver.Options{
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	})

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.StoreMode)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested", "cause", context.Cause(ctx))
	case runErr = <-srvErr:
		if runErr != nil {
			logger.Error("http server stopped", "error", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return errors.Join(runErr, srv.Shutdown(shutdownCtx), cleanup(shutdownCtx))
}

// openStore selects the repository backend. The returned pinger is nil for the
// in-memory store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositorySet, handlers.Pinger, func(), error) {
	if cfg.StoreMode == config.StoreMemory {
		logger.Warn("using in-memory store, data does not survive restarts")
		return memoryRepositories(), nil, func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		return repositorySet{}, nil, nil, err
	}
	return postgresRepositories(pool), pool, pool.Close, nil
}

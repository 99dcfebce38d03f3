// Package app assembles the stores, lock, archive and pipeline runner from configuration.
// The server and the CLI share it so both entry points import the same way.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tkshop/catalog-service/config"
	"github.com/tkshop/catalog-service/internal/database"
	httpclient "github.com/tkshop/catalog-service/internal/http"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/runlock"
	"github.com/tkshop/catalog-service/internal/storage"
)

// App is a wired runtime
type App struct {
	Config  *config.Config
	Stores  *database.Stores
	Archive storage.Storage
	Runner  *pipeline.Runner
	closers []func()
}

// Build opens every backend cfg names. Close releases them.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg}

	stores, err := database.OpenStores(ctx, cfg.Database.Driver, cfg.Pool())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}
	a.Stores = stores
	a.closers = append(a.closers, stores.Close)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("Store ready")

	opts := []pipeline.Option{
		pipeline.WithRunStore(stores.Runs),
		pipeline.WithLogger(logger),
		pipeline.WithFetchConcurrency(cfg.Fetch.Concurrency),
		pipeline.WithHTTPClient(httpclient.NewClient(cfg.Fetch.Config, httpclient.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes))),
	}

	if cfg.Import.Archive {
		archive, err := storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Archive = archive
		opts = append(opts, pipeline.WithArchive(archive))
	}

	if cfg.Redis.URL != "" {
		client, err := runlock.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		opts = append(opts, pipeline.WithLocker(runlock.NewRedis(client, cfg.Redis.KeyPrefix, cfg.Redis.LockTTL)))
		logger.Info().Msg("Using Redis run lock")
	}

	a.Runner = pipeline.NewRunner(stores.Catalog, opts...)
	return a, nil
}

// Close releases backends in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewLogger builds the process logger from logging settings and installs it as the global logger
func NewLogger(cfg config.LoggingConfig, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stderr
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", service).Logger()
	log.Logger = logger
	return logger
}

package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/config"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/runs"
)

func TestBuild_Memory(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Import:   config.ImportConfig{Options: importer.DefaultOptions(), Archive: true},
		Storage:  config.StorageConfig{BasePath: t.TempDir()},
		Fetch:    config.FetchConfig{Concurrency: 2},
	}

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Archive)
	assert.Nil(t, a.Stores.Ping)

	rec, err := a.Runner.Run(context.Background(), runs.TriggerCLI, []pipeline.Source{{Name: "empty.xml", Body: []byte(`<rss><channel></channel></rss>`)}}, cfg.Import.Options)
	require.NoError(t, err)
	assert.Equal(t, runs.StatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Sources[0].ArchiveKey)

	stored, err := a.Stores.Runs.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
}

func TestBuild_BadDriver(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, "catalog-test")
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = NewLogger(config.LoggingConfig{Level: "nonsense"}, "catalog-test")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

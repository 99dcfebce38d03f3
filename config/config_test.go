package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/internal/importer"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3003, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/catalog", cfg.Database.URL)
	assert.Equal(t, importer.PricingExplicitMetaOrder, cfg.Import.Options.Pricing)
	assert.True(t, cfg.Import.Options.AutoCreateCategories)
	assert.True(t, cfg.Import.Options.CreateAllVariants)
	assert.Equal(t, "RUB", cfg.Import.Options.DefaultCurrency)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2.0, cfg.Fetch.RequestsPerSecond)
	assert.Equal(t, 2*time.Hour, cfg.Redis.LockTTL)
	assert.Equal(t, 30, cfg.Schedule.ArchiveCleanup.RetentionDays)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Same(t, cfg, Get())
	assert.Equal(t, "0.0.0.0:3003", cfg.Addr())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  url: catalog.db
import:
  archive: false
  options:
    update_existing: true
    pricing: area-multiplier
    color_denylist: [букле]
    category_mapping:
      Полотенца: cat-1
schedule:
  imports:
    - name: nightly
      schedule: "0 3 * * *"
      urls: [https://shop.test/export.xml]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.False(t, cfg.Import.Archive)
	assert.True(t, cfg.Import.Options.UpdateExisting)
	assert.Equal(t, importer.PricingAreaMultiplier, cfg.Import.Options.Pricing)
	assert.Equal(t, []string{"букле"}, cfg.Import.Options.ColorDenylist)
	assert.Equal(t, "cat-1", cfg.Import.Options.CategoryMapping["полотенца"])
	require.Len(t, cfg.Schedule.Imports, 1)
	assert.Equal(t, "nightly", cfg.Schedule.Imports[0].Name)
	assert.Nil(t, cfg.Schedule.Imports[0].Options)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_DATABASE_DRIVER", "memory")
	t.Setenv("PORT", "8080")
	t.Setenv("CATALOG_FETCH_CONCURRENCY", "8")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_DRIVER=memory\nLOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: DriverMySQL}, Import: ImportConfig{Options: importer.DefaultOptions()}}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	cfg.Database.URL = "x"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverMemory
	cfg.Import.Options.Pricing = "cheapest"
	assert.Error(t, cfg.Validate())
}

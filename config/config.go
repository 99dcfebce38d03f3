// Package config loads catalog-service settings from defaults, an optional YAML file, .env and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/tkshop/catalog-service/internal/database"
	"github.com/tkshop/catalog-service/internal/http/ratelimit"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/jobs"
	"github.com/tkshop/catalog-service/internal/telemetry"
)

// EnvPrefix prefixes every automatic environment override, e.g. CATALOG_SERVER_PORT
const EnvPrefix = "CATALOG"

// Database drivers
const (
	DriverPostgres = database.DriverPostgres
	DriverMySQL    = database.DriverMySQL
	DriverSQLite   = database.DriverSQLite
	DriverMemory   = database.DriverMemory
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Import    ImportConfig     `mapstructure:"import"`
	Fetch     FetchConfig      `mapstructure:"fetch"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Schedule  ScheduleConfig   `mapstructure:"schedule"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	InternalAPIKey string        `mapstructure:"internal_api_key"`
	// MaxBodyBytes caps inline XML uploads
	MaxBodyBytes      int64   `mapstructure:"max_body_bytes"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// DatabaseConfig selects and tunes the record store
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// ImportConfig holds the default import options and archive toggle
type ImportConfig struct {
	Options importer.Options `mapstructure:"options"`
	Archive bool             `mapstructure:"archive"`
}

// FetchConfig tunes remote feed downloads
type FetchConfig struct {
	ratelimit.Config `mapstructure:",squash"`
	Concurrency      int   `mapstructure:"concurrency"`
	MaxBodyBytes     int64 `mapstructure:"max_body_bytes"`
}

// StorageConfig holds feed archive configuration
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	BasePath string `mapstructure:"base_path"`
}

// RedisConfig enables the distributed run lock when URL is set
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// ScheduleConfig holds cron jobs
type ScheduleConfig struct {
	Imports        []jobs.ImportJob  `mapstructure:"imports"`
	CleanupCron    string            `mapstructure:"cleanup_cron"`
	ArchiveCleanup jobs.CleanupConfig `mapstructure:"archive_cleanup"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Telemetry.Endpoint != "" {
		cfg.Telemetry.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Validate checks cross-field settings
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if err := c.Import.Options.Validate(); err != nil {
		return err
	}
	return nil
}

// loadEnvFile loads the first .env found; variables already set win
func loadEnvFile() error {
	for _, path := range []string{".env", "./config/.env"} {
		if _, err := os.Stat(path); err == nil {
			return godotenv.Load(path)
		}
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "CATALOG_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("database.driver", "CATALOG_DATABASE_DRIVER", "DATABASE_DRIVER")
	v.BindEnv("server.port", "CATALOG_SERVER_PORT", "PORT")
	v.BindEnv("server.host", "CATALOG_SERVER_HOST", "HOST")
	v.BindEnv("server.internal_api_key", "CATALOG_SERVER_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	v.BindEnv("logging.level", "CATALOG_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("redis.url", "CATALOG_REDIS_URL", "REDIS_URL")
	v.BindEnv("storage.base_path", "CATALOG_STORAGE_BASE_PATH", "STORAGE_PATH")
	v.BindEnv("telemetry.endpoint", "CATALOG_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3003)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<20)
	v.SetDefault("server.requests_per_second", 10)
	v.SetDefault("server.burst", 20)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	defaults := importer.DefaultOptions()
	v.SetDefault("import.options.default_currency", defaults.DefaultCurrency)
	v.SetDefault("import.options.update_existing", defaults.UpdateExisting)
	v.SetDefault("import.options.skip_invalid", defaults.SkipInvalid)
	v.SetDefault("import.options.auto_create_categories", defaults.AutoCreateCategories)
	v.SetDefault("import.options.create_all_variants", defaults.CreateAllVariants)
	v.SetDefault("import.options.pricing", defaults.Pricing)
	v.SetDefault("import.options.fallback_base_price", defaults.FallbackBasePrice)
	v.SetDefault("import.options.large_base_price", defaults.LargeBasePrice)
	v.SetDefault("import.archive", true)

	fetch := ratelimit.DefaultConfig()
	v.SetDefault("fetch.requests_per_second", fetch.RequestsPerSecond)
	v.SetDefault("fetch.max_retries", fetch.MaxRetries)
	v.SetDefault("fetch.initial_backoff_ms", fetch.InitialBackoffMs)
	v.SetDefault("fetch.max_backoff_ms", fetch.MaxBackoffMs)
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("fetch.max_body_bytes", 256<<20)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/feeds")

	v.SetDefault("redis.key_prefix", "catalog:import:")
	v.SetDefault("redis.lock_ttl", 2*time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("schedule.cleanup_cron", "@daily")
	v.SetDefault("schedule.archive_cleanup.retention_days", jobs.DefaultCleanupConfig().RetentionDays)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
}

// Get returns the configuration of the last successful Load
func Get() *Config {
	return globalConfig
}

// Pool returns the connection settings of the configured database
func (c *Config) Pool() database.PoolConfig {
	return database.PoolConfig{
		URL:             c.Database.URL,
		MaxConns:        c.Database.MaxConnections,
		MinConns:        c.Database.MinConnections,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
	}
}

// Addr returns host:port for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

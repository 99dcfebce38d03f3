package database

import (
	"context"
	"fmt"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/database/gormstore"
	"github.com/tkshop/catalog-service/internal/runs"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = gormstore.DriverMySQL
	DriverSQLite   = gormstore.DriverSQLite
	DriverMemory   = "memory"
)

// Stores bundles the backends selected by one driver
type Stores struct {
	Catalog catalog.Store
	Runs    runs.Store
	// Ping is nil for the in-memory driver
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStores connects the catalog and run stores for driver and migrates their schema
func OpenStores(ctx context.Context, driver string, cfg PoolConfig) (*Stores, error) {
	switch driver {
	case DriverPostgres:
		if err := Connect(ctx, cfg); err != nil {
			return nil, err
		}
		if err := Migrate(ctx, Pool()); err != nil {
			Close()
			return nil, err
		}
		return &Stores{
			Catalog: NewCatalogStore(Pool()),
			Runs:    NewRunStore(Pool()),
			Ping:    Status,
			Close:   Close,
		}, nil

	case DriverMySQL, DriverSQLite:
		db, err := gormstore.Open(driver, cfg.URL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get connection pool: %w", err)
		}
		if cfg.MaxConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxConns)
		}
		if cfg.MaxConnLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
		}
		store := gormstore.New(db)
		return &Stores{
			Catalog: store,
			Runs:    store,
			Ping:    sqlDB.PingContext,
			Close:   func() { sqlDB.Close() },
		}, nil

	case DriverMemory:
		return &Stores{
			Catalog: catalog.NewMemoryStore(),
			Runs:    runs.NewMemoryStore(),
			Close:   func() {},
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// Package database is the PostgreSQL backend of the catalog and run stores
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the connection pool
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

var (
	pool   *pgxpool.Pool
	poolMu sync.RWMutex
)

// ErrNotConnected is returned by Status before Connect succeeds
var ErrNotConnected = errors.New("database not initialized")

// Connect opens the shared pool. Calling it while a pool is open is a no-op.
func Connect(ctx context.Context, cfg PoolConfig) error {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		return nil
	}

	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return fmt.Errorf("error parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	config.HealthCheckPeriod = time.Minute

	newPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := newPool.Ping(ctx); err != nil {
		newPool.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}
	pool = newPool
	return nil
}

// Close closes the shared pool so a later Connect can reopen it
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the shared pool, nil before Connect
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the database
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}
	return p.Ping(ctx)
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkshop/catalog-service/internal/runs"
)

// RunStore implements runs.Store on the import_runs table
type RunStore struct {
	pool *pgxpool.Pool
}

var _ runs.Store = (*RunStore)(nil)

// NewRunStore wraps a pool; Migrate must have run
func NewRunStore(p *pgxpool.Pool) *RunStore {
	return &RunStore{pool: p}
}

func (s *RunStore) Save(ctx context.Context, r *runs.Record) error {
	sources := r.Sources
	if sources == nil {
		sources = []runs.Source{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (id, trigger, status, sources, result, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sources = EXCLUDED.sources,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at
	`, r.ID, string(r.Trigger), string(r.Status), sources, r.Result, r.Error, r.CreatedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*runs.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, trigger, status, sources, result, error, created_at, completed_at
		FROM import_runs WHERE id = $1
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, runs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return r, nil
}

func (s *RunStore) List(ctx context.Context, limit, offset int) ([]runs.Record, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM import_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}
	if limit <= 0 {
		limit = total
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, trigger, status, sources, result, error, created_at, completed_at
		FROM import_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch runs: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (runs.Record, error) {
		r, err := scanRun(row)
		if err != nil {
			return runs.Record{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan runs: %w", err)
	}
	return records, total, nil
}

func scanRun(row pgx.Row) (*runs.Record, error) {
	var r runs.Record
	var trigger, status string
	if err := row.Scan(&r.ID, &trigger, &status, &r.Sources, &r.Result, &r.Error, &r.CreatedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	r.Trigger = runs.Trigger(trigger)
	r.Status = runs.Status(status)
	return &r, nil
}

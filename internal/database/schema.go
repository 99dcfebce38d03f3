package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied by Migrate; every statement is idempotent
const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id          text PRIMARY KEY,
	name        text NOT NULL,
	slug        text NOT NULL UNIQUE,
	created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id              text PRIMARY KEY,
	sku             text NOT NULL UNIQUE,
	slug            text NOT NULL UNIQUE,
	title           text NOT NULL,
	description     text NOT NULL DEFAULT '',
	content         text,
	price           numeric(12,2) NOT NULL DEFAULT 0,
	currency        char(3) NOT NULL,
	stock           integer NOT NULL DEFAULT 0,
	category_id     text NOT NULL,
	images          text[] NOT NULL DEFAULT '{}',
	tier            text NOT NULL DEFAULT 'MIDDLE',
	is_active       boolean NOT NULL DEFAULT true,
	is_in_stock     boolean NOT NULL DEFAULT false,
	seo_title       text NOT NULL DEFAULT '',
	seo_description text NOT NULL DEFAULT '',
	created_at      timestamptz NOT NULL DEFAULT now(),
	updated_at      timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_variants (
	id          text PRIMARY KEY,
	product_id  text NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	color       text,
	size        text,
	price       numeric(12,2) NOT NULL DEFAULT 0,
	stock       integer NOT NULL DEFAULT 0,
	sku         text NOT NULL,
	image_url   text,
	is_active   boolean NOT NULL DEFAULT true,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	UNIQUE NULLS NOT DISTINCT (product_id, color, size)
);

CREATE INDEX IF NOT EXISTS product_variants_product_idx ON product_variants (product_id);

CREATE TABLE IF NOT EXISTS import_runs (
	id           text PRIMARY KEY,
	trigger      text NOT NULL,
	status       text NOT NULL,
	sources      jsonb NOT NULL DEFAULT '[]',
	result       jsonb,
	error        text NOT NULL DEFAULT '',
	created_at   timestamptz NOT NULL DEFAULT now(),
	completed_at timestamptz
);

CREATE INDEX IF NOT EXISTS import_runs_created_idx ON import_runs (created_at DESC);
`

// Migrate creates the catalog and run tables. Requires PostgreSQL 15 or newer.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkshop/catalog-service/internal/catalog"
)

const uniqueViolation = "23505"

// CatalogStore implements catalog.Store on PostgreSQL
type CatalogStore struct {
	pool *pgxpool.Pool
}

var _ catalog.Store = (*CatalogStore)(nil)

// NewCatalogStore wraps a pool; Migrate must have run
func NewCatalogStore(p *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: p}
}

const productColumns = `id, sku, slug, title, description, content, price, currency, stock,
	category_id, images, tier, is_active, is_in_stock, seo_title, seo_description, created_at, updated_at`

const variantColumns = `id, product_id, color, size, price, stock, sku, image_url, is_active, created_at, updated_at`

func (s *CatalogStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogStore) CreateCategory(ctx context.Context, c *catalog.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Slug, c.CreatedAt)
	return wrapWriteError("category "+c.Slug, err)
}

func (s *CatalogStore) FindProductBySKUOrSlug(ctx context.Context, sku, slug string) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products
		WHERE ($1 <> '' AND sku = $1) OR ($2 <> '' AND slug = $2)
		ORDER BY created_at, sku LIMIT 1`, sku, slug)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Images == nil {
		p.Images = []string{}
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.SKU, p.Slug, p.Title, p.Description, p.Content, p.Price, p.Currency, p.Stock,
		p.CategoryID, p.Images, string(p.Tier), p.IsActive, p.IsInStock, p.SEOTitle, p.SEODescription,
		p.CreatedAt, p.UpdatedAt)
	return wrapWriteError("product "+p.SKU, err)
}

func (s *CatalogStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	p.UpdatedAt = time.Now()
	if p.Images == nil {
		p.Images = []string{}
	}
	tag, err := s.pool.Exec(ctx, `UPDATE products SET
		sku = $2, slug = $3, title = $4, description = $5, content = $6, price = $7, currency = $8,
		stock = $9, category_id = $10, images = $11, tier = $12, is_active = $13, is_in_stock = $14,
		seo_title = $15, seo_description = $16, updated_at = $17
		WHERE id = $1`,
		p.ID, p.SKU, p.Slug, p.Title, p.Description, p.Content, p.Price, p.Currency,
		p.Stock, p.CategoryID, p.Images, string(p.Tier), p.IsActive, p.IsInStock,
		p.SEOTitle, p.SEODescription, p.UpdatedAt)
	if err != nil {
		return wrapWriteError("product "+p.SKU, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, catalog.ErrNotFound)
	}
	return nil
}

func (s *CatalogStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, sku`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Product, error) {
		p, err := scanProduct(row)
		if err != nil {
			return catalog.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, nil
}

func (s *CatalogStore) FindVariant(ctx context.Context, productID string, color, size *string) (*catalog.Variant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants
		WHERE product_id = $1 AND color IS NOT DISTINCT FROM $2::text AND size IS NOT DISTINCT FROM $3::text`,
		productID, color, size)
	v, err := scanVariant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateVariant(ctx context.Context, v *catalog.Variant) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := s.pool.Exec(ctx, `INSERT INTO product_variants (`+variantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		v.ID, v.ProductID, v.Color, v.Size, v.Price, v.Stock, v.SKU, v.ImageURL, v.IsActive, v.CreatedAt, v.UpdatedAt)
	return wrapWriteError("variant "+v.SKU, err)
}

func (s *CatalogStore) UpdateVariant(ctx context.Context, v *catalog.Variant) error {
	v.UpdatedAt = time.Now()
	tag, err := s.pool.Exec(ctx, `UPDATE product_variants SET
		color = $2, size = $3, price = $4, stock = $5, sku = $6, image_url = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		v.ID, v.Color, v.Size, v.Price, v.Stock, v.SKU, v.ImageURL, v.IsActive, v.UpdatedAt)
	if err != nil {
		return wrapWriteError("variant "+v.SKU, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("variant %s: %w", v.ID, catalog.ErrNotFound)
	}
	return nil
}

func (s *CatalogStore) ListVariants(ctx context.Context, productID string) ([]catalog.Variant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+variantColumns+` FROM product_variants
		WHERE product_id = $1 ORDER BY created_at, sku`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	variants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Variant, error) {
		v, err := scanVariant(row)
		if err != nil {
			return catalog.Variant{}, err
		}
		return *v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan variants: %w", err)
	}
	return variants, nil
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	var tier string
	err := row.Scan(&p.ID, &p.SKU, &p.Slug, &p.Title, &p.Description, &p.Content, &p.Price, &p.Currency,
		&p.Stock, &p.CategoryID, &p.Images, &tier, &p.IsActive, &p.IsInStock, &p.SEOTitle, &p.SEODescription,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Tier = catalog.Tier(tier)
	return &p, nil
}

func scanVariant(row pgx.Row) (*catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Color, &v.Size, &v.Price, &v.Stock, &v.SKU, &v.ImageURL,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// wrapWriteError maps unique violations to catalog.ErrConflict
func wrapWriteError(what string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, catalog.ErrConflict)
	}
	return fmt.Errorf("failed to write %s: %w", what, err)
}

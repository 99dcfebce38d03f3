// Package gormstore implements the catalog and run stores on gorm, for SQLite and MySQL deployments
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/runs"
)

// Supported drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type categoryRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:191;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (categoryRow) TableName() string { return "categories" }

type productRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	SKU            string `gorm:"column:sku;size:191;uniqueIndex;not null"`
	Slug           string `gorm:"size:191;uniqueIndex;not null"`
	Title          string `gorm:"size:512;not null"`
	Description    string `gorm:"type:text"`
	Content        *string `gorm:"type:text"`
	Price          float64
	Currency       string `gorm:"size:3"`
	Stock          int
	CategoryID     string `gorm:"size:36;index"`
	Images         datatypes.JSONSlice[string]
	Tier           string `gorm:"size:16"`
	IsActive       bool
	IsInStock      bool
	SEOTitle       string `gorm:"column:seo_title;size:512"`
	SEODescription string `gorm:"column:seo_description;type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (productRow) TableName() string { return "products" }

// SQLite and MySQL treat NULLs in unique indexes as distinct, so nil identity
// components are enforced by FindVariant before CreateVariant rather than by the index.
type variantRow struct {
	ID        string  `gorm:"primaryKey;size:36"`
	ProductID string  `gorm:"size:36;not null;uniqueIndex:idx_variant_identity"`
	Color     *string `gorm:"size:191;uniqueIndex:idx_variant_identity"`
	Size      *string `gorm:"size:191;uniqueIndex:idx_variant_identity"`
	Price     float64
	Stock     int
	SKU       string  `gorm:"column:sku;size:191;uniqueIndex;not null"`
	ImageURL  *string `gorm:"size:1024"`
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (variantRow) TableName() string { return "product_variants" }

type runRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Trigger     string `gorm:"size:16"`
	Status      string `gorm:"size:16;index"`
	Sources     datatypes.JSONSlice[runs.Source]
	Result      datatypes.JSONType[*importer.Result]
	Error       string `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index"`
	CompletedAt *time.Time
}

func (runRow) TableName() string { return "import_runs" }

// Open connects to driver/dsn and migrates the schema
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}
	if err := db.AutoMigrate(&categoryRow{}, &productRow{}, &variantRow{}, &runRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// Store implements catalog.Store and runs.Store on one gorm handle
type Store struct {
	db *gorm.DB
}

var (
	_ catalog.Store = (*Store)(nil)
	_ runs.Store    = (*Store)(nil)
)

// New wraps a migrated handle from Open
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var rows []categoryRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	out := make([]catalog.Category, len(rows))
	for i, r := range rows {
		out[i] = catalog.Category{ID: r.ID, Name: r.Name, Slug: r.Slug, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *catalog.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	row := categoryRow{ID: c.ID, Name: c.Name, Slug: c.Slug, CreatedAt: c.CreatedAt}
	return writeError("category "+c.Slug, s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) FindProductBySKUOrSlug(ctx context.Context, sku, slug string) (*catalog.Product, error) {
	q := s.db.WithContext(ctx).Order("created_at, sku")
	switch {
	case sku != "" && slug != "":
		q = q.Where("sku = ? OR slug = ?", sku, slug)
	case sku != "":
		q = q.Where("sku = ?", sku)
	case slug != "":
		q = q.Where("slug = ?", slug)
	default:
		return nil, catalog.ErrNotFound
	}

	var row productRow
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return row.toProduct(), nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	row := fromProduct(p)
	return writeError("product "+p.SKU, s.db.WithContext(ctx).Create(row).Error)
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").
		Updates(fromProduct(p))
	if res.Error != nil {
		return writeError("product "+p.SKU, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", p.ID, catalog.ErrNotFound)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var rows []productRow
	if err := s.db.WithContext(ctx).Order("created_at, sku").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	out := make([]catalog.Product, len(rows))
	for i := range rows {
		out[i] = *rows[i].toProduct()
	}
	return out, nil
}

func (s *Store) FindVariant(ctx context.Context, productID string, color, size *string) (*catalog.Variant, error) {
	q := s.db.WithContext(ctx).Where("product_id = ?", productID)
	q = whereOption(q, "color", color)
	q = whereOption(q, "size", size)

	var row variantRow
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	return row.toVariant(), nil
}

func (s *Store) CreateVariant(ctx context.Context, v *catalog.Variant) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	return writeError("variant "+v.SKU, s.db.WithContext(ctx).Create(fromVariant(v)).Error)
}

func (s *Store) UpdateVariant(ctx context.Context, v *catalog.Variant) error {
	v.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&variantRow{}).
		Where("id = ?", v.ID).
		Select("*").Omit("id", "product_id", "created_at").
		Updates(fromVariant(v))
	if res.Error != nil {
		return writeError("variant "+v.SKU, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("variant %s: %w", v.ID, catalog.ErrNotFound)
	}
	return nil
}

func (s *Store) ListVariants(ctx context.Context, productID string) ([]catalog.Variant, error) {
	var rows []variantRow
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at, sku").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	out := make([]catalog.Variant, len(rows))
	for i := range rows {
		out[i] = *rows[i].toVariant()
	}
	return out, nil
}

// Save upserts a run record
func (s *Store) Save(ctx context.Context, r *runs.Record) error {
	row := runRow{
		ID:          r.ID,
		Trigger:     string(r.Trigger),
		Status:      string(r.Status),
		Sources:     datatypes.NewJSONSlice(r.Sources),
		Result:      datatypes.NewJSONType(r.Result),
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*runs.Record, error) {
	var row runRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, runs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return row.toRecord(), nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]runs.Record, int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&runRow{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]runs.Record, len(rows))
	for i := range rows {
		out[i] = *rows[i].toRecord()
	}
	return out, int(total), nil
}

func whereOption(q *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *value)
}

// writeError maps unique violations to catalog.ErrConflict
func writeError(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, catalog.ErrConflict)
	}
	return fmt.Errorf("failed to write %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

func fromProduct(p *catalog.Product) *productRow {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return &productRow{
		ID: p.ID, SKU: p.SKU, Slug: p.Slug, Title: p.Title, Description: p.Description,
		Content: p.Content, Price: p.Price, Currency: p.Currency, Stock: p.Stock,
		CategoryID: p.CategoryID, Images: datatypes.NewJSONSlice(images), Tier: string(p.Tier),
		IsActive: p.IsActive, IsInStock: p.IsInStock, SEOTitle: p.SEOTitle, SEODescription: p.SEODescription,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (r *productRow) toProduct() *catalog.Product {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return &catalog.Product{
		ID: r.ID, SKU: r.SKU, Slug: r.Slug, Title: r.Title, Description: r.Description,
		Content: r.Content, Price: r.Price, Currency: r.Currency, Stock: r.Stock,
		CategoryID: r.CategoryID, Images: images, Tier: catalog.Tier(r.Tier),
		IsActive: r.IsActive, IsInStock: r.IsInStock, SEOTitle: r.SEOTitle, SEODescription: r.SEODescription,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func fromVariant(v *catalog.Variant) *variantRow {
	return &variantRow{
		ID: v.ID, ProductID: v.ProductID, Color: v.Color, Size: v.Size, Price: v.Price,
		Stock: v.Stock, SKU: v.SKU, ImageURL: v.ImageURL, IsActive: v.IsActive,
		CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt,
	}
}

func (r *variantRow) toVariant() *catalog.Variant {
	return &catalog.Variant{
		ID: r.ID, ProductID: r.ProductID, Color: r.Color, Size: r.Size, Price: r.Price,
		Stock: r.Stock, SKU: r.SKU, ImageURL: r.ImageURL, IsActive: r.IsActive,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (r *runRow) toRecord() *runs.Record {
	sources := []runs.Source(r.Sources)
	if sources == nil {
		sources = []runs.Source{}
	}
	return &runs.Record{
		ID:          r.ID,
		Trigger:     runs.Trigger(r.Trigger),
		Status:      runs.Status(r.Status),
		Sources:     sources,
		Result:      r.Result.Data(),
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}

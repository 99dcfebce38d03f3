package gormstore

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/runs"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func strPtr(s string) *string { return &s }

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)

	var timeout int
	require.NoError(t, db.Raw("PRAGMA busy_timeout").Scan(&timeout).Error)
	assert.Equal(t, 5000, timeout)

	// failed statements are reported through the global zerolog logger
	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)
	assert.Contains(t, buf.String(), "missing_table")
}

func TestStore_Categories(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.CreateCategory(ctx, &catalog.Category{Name: "Полотенца", Slug: "polotentsa"}))
	require.NoError(t, s.CreateCategory(ctx, &catalog.Category{Name: "Белье", Slug: "bele"}))
	err := s.CreateCategory(ctx, &catalog.Category{Name: "Другое", Slug: "bele"})
	assert.ErrorIs(t, err, catalog.ErrConflict)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.NotEmpty(t, cats[0].ID)
}

func TestStore_Products(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	p := &catalog.Product{
		SKU: "TW-1", Slug: "towel", Title: "Полотенце", Price: 450, Currency: "RUB",
		Images: []string{"https://x/a.jpg", "https://x/b.jpg"}, Tier: catalog.TierMiddle, IsActive: true,
	}
	require.NoError(t, s.CreateProduct(ctx, p))
	assert.ErrorIs(t, s.CreateProduct(ctx, &catalog.Product{SKU: "TW-1", Slug: "other"}), catalog.ErrConflict)

	got, err := s.FindProductBySKUOrSlug(ctx, "TW-1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a.jpg", "https://x/b.jpg"}, got.Images)
	assert.Equal(t, catalog.TierMiddle, got.Tier)
	assert.Nil(t, got.Content)

	got, err = s.FindProductBySKUOrSlug(ctx, "nope", "towel")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.FindProductBySKUOrSlug(ctx, "", "")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	got.Title = "Полотенце банное"
	got.Stock = 0
	got.IsInStock = false
	require.NoError(t, s.UpdateProduct(ctx, got))

	all, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Полотенце банное", all[0].Title)
	assert.False(t, all[0].IsInStock)

	missing := &catalog.Product{ID: "missing", SKU: "X", Slug: "x"}
	assert.ErrorIs(t, s.UpdateProduct(ctx, missing), catalog.ErrNotFound)
}

func TestStore_Variants(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	p := &catalog.Product{SKU: "TW-1", Slug: "towel", Title: "Полотенце"}
	require.NoError(t, s.CreateProduct(ctx, p))

	plain := &catalog.Variant{ProductID: p.ID, SKU: "TW-1-default", Price: 100}
	sized := &catalog.Variant{ProductID: p.ID, Size: strPtr("30x30"), SKU: "TW-1-30x30", Price: 100}
	full := &catalog.Variant{ProductID: p.ID, Color: strPtr("Белый"), Size: strPtr("30x30"), SKU: "TW-1-W-30x30", Price: 100}
	for _, v := range []*catalog.Variant{plain, sized, full} {
		require.NoError(t, s.CreateVariant(ctx, v))
	}

	found, err := s.FindVariant(ctx, p.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plain.ID, found.ID)

	found, err = s.FindVariant(ctx, p.ID, nil, strPtr("30x30"))
	require.NoError(t, err)
	assert.Equal(t, sized.ID, found.ID)

	found, err = s.FindVariant(ctx, p.ID, strPtr("Белый"), strPtr("30x30"))
	require.NoError(t, err)
	assert.Equal(t, full.ID, found.ID)

	_, err = s.FindVariant(ctx, p.ID, strPtr("Белый"), nil)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	assert.ErrorIs(t, s.CreateVariant(ctx, &catalog.Variant{ProductID: p.ID, Color: strPtr("Синий"), SKU: "TW-1-default"}), catalog.ErrConflict)

	full.Price = 250
	full.ImageURL = strPtr("https://x/w.jpg")
	require.NoError(t, s.UpdateVariant(ctx, full))
	found, err = s.FindVariant(ctx, p.ID, strPtr("Белый"), strPtr("30x30"))
	require.NoError(t, err)
	assert.Equal(t, 250.0, found.Price)
	require.NotNil(t, found.ImageURL)

	variants, err := s.ListVariants(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, variants, 3)
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
<item>
	<title>Простыня</title>
	<wp:post_type>product</wp:post_type>
	<wp:status>publish</wp:status>
	<wp:post_name>sheet</wp:post_name>
	<category domain="product_cat" nicename="bed">Постельное белье</category>
	<category domain="pa_razmer" nicename="a">150x200</category>
	<category domain="pa_razmer" nicename="b">200x220</category>
	<category domain="product_type" nicename="variable">variable</category>
	<wp:postmeta><wp:meta_key>_sku</wp:meta_key><wp:meta_value>SHEET</wp:meta_value></wp:postmeta>
</item>
</channel>
</rss>`)

	result := importer.New(s).Import(ctx, [][]byte{doc}, importer.DefaultOptions())
	require.True(t, result.Success, result.Errors)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.VariantsCreated)

	p, err := s.FindProductBySKUOrSlug(ctx, "SHEET", "")
	require.NoError(t, err)
	variants, err := s.ListVariants(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, variants, 2)
}

func TestStore_Runs(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"imp_a", "imp_b", "imp_c"} {
		require.NoError(t, s.Save(ctx, &runs.Record{
			ID:        id,
			Trigger:   runs.TriggerCLI,
			Status:    runs.StatusRunning,
			Sources:   []runs.Source{{Name: id + ".xml", Size: 10}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec, err := s.Get(ctx, "imp_b")
	require.NoError(t, err)
	assert.Nil(t, rec.Result)
	rec.Finish(&importer.Result{RunID: "imp_b", Success: false, Errors: []string{"item 1: boom"}, Warnings: []string{}})
	require.NoError(t, s.Save(ctx, rec))

	rec, err = s.Get(ctx, "imp_b")
	require.NoError(t, err)
	assert.Equal(t, runs.StatusFailed, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Equal(t, []string{"item 1: boom"}, rec.Result.Errors)
	assert.Equal(t, "imp_b.xml", rec.Sources[0].Name)

	list, total, err := s.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "imp_c", list[0].ID)
	assert.Equal(t, "imp_b", list[1].ID)

	_, err = s.Get(ctx, "imp_zzz")
	assert.ErrorIs(t, err, runs.ErrNotFound)
}

package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/internal/catalog"
)

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	mem, err := OpenStores(ctx, DriverMemory, PoolConfig{})
	require.NoError(t, err)
	assert.Nil(t, mem.Ping)
	mem.Close()

	lite, err := OpenStores(ctx, DriverSQLite, PoolConfig{URL: filepath.Join(t.TempDir(), "catalog.db"), MaxConns: 1})
	require.NoError(t, err)
	defer lite.Close()
	require.NoError(t, lite.Ping(ctx))
	require.NoError(t, lite.Catalog.CreateCategory(ctx, &catalog.Category{Name: "Пледы", Slug: "pledy"}))
	cats, err := lite.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, err = OpenStores(ctx, "oracle", PoolConfig{})
	assert.Error(t, err)
}

package catalog

import (
	"context"
	"fmt"
)

// Store is the record store the importer reconciles against.
// Implementations must return ErrNotFound (possibly wrapped) from Find* lookups that match nothing.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error

	// FindProductBySKUOrSlug returns the first product whose SKU equals sku or whose slug equals slug
	FindProductBySKUOrSlug(ctx context.Context, sku, slug string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	ListProducts(ctx context.Context) ([]Product, error)

	// FindVariant matches on (productID, color, size) where nil only matches nil
	FindVariant(ctx context.Context, productID string, color, size *string) (*Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
	UpdateVariant(ctx context.Context, v *Variant) error
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
}

// CleanVariantColors clears variant colors rejected by isNonColor and returns how many variants changed.
// Variants whose cleared color would collide with an existing (nil, size) variant are left alone.
func CleanVariantColors(ctx context.Context, store Store, isNonColor func(string) bool) (int, error) {
	products, err := store.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	cleaned := 0
	for _, p := range products {
		variants, err := store.ListVariants(ctx, p.ID)
		if err != nil {
			return cleaned, fmt.Errorf("failed to list variants for %s: %w", p.SKU, err)
		}
		for i := range variants {
			v := variants[i]
			if v.Color == nil || !isNonColor(*v.Color) {
				continue
			}
			if clashesWithColorless(variants, v) {
				continue
			}
			v.Color = nil
			if err := store.UpdateVariant(ctx, &v); err != nil {
				return cleaned, fmt.Errorf("failed to update variant %s: %w", v.SKU, err)
			}
			variants[i] = v
			cleaned++
		}
	}
	return cleaned, nil
}

func clashesWithColorless(variants []Variant, target Variant) bool {
	for _, v := range variants {
		if v.ID != target.ID && v.Color == nil && SameOption(v.Size, target.Size) {
			return true
		}
	}
	return false
}

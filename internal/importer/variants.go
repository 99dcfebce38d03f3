package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/matching"
	"github.com/tkshop/catalog-service/internal/wxr"
)

// Combination is one (color, size) pair of a variant matrix; nil means "no value"
type Combination struct {
	Color *string
	Size  *string
}

// Combinations returns colors × sizes, one per color when there are no sizes, one per size
// when there are no colors, and a single (nil, nil) default when there are neither
func Combinations(colors, sizes []string) []Combination {
	var combos []Combination
	switch {
	case len(colors) > 0 && len(sizes) > 0:
		combos = make([]Combination, 0, len(colors)*len(sizes))
		for i := range colors {
			for j := range sizes {
				combos = append(combos, Combination{Color: &colors[i], Size: &sizes[j]})
			}
		}
	case len(colors) > 0:
		for i := range colors {
			combos = append(combos, Combination{Color: &colors[i]})
		}
	case len(sizes) > 0:
		for j := range sizes {
			combos = append(combos, Combination{Size: &sizes[j]})
		}
	default:
		combos = []Combination{{}}
	}
	return combos
}

// VariantSKU derives a stable variant SKU: base, then the color code, then the kebab-cased size.
// The default combination gets "<base>-default".
func VariantSKU(base string, c Combination) string {
	if c.Color == nil && c.Size == nil {
		return base + "-default"
	}
	sku := base
	if c.Color != nil {
		sku += "-" + ColorCode(*c.Color)
	}
	if c.Size != nil {
		sku += "-" + matching.KebabLower(*c.Size)
	}
	return sku
}

// variantImage picks the first image whose URL mentions the color, else the first image
func variantImage(images []string, c Combination) *string {
	if len(images) == 0 {
		return nil
	}
	if c.Color != nil {
		color := strings.ToLower(*c.Color)
		for i := range images {
			if strings.Contains(strings.ToLower(images[i]), color) {
				return &images[i]
			}
		}
	}
	return &images[0]
}

type plannedVariant struct {
	combo Combination
	sku   string
	price float64
}

// planVariants decides which variants an item yields.
// Variable items get the full matrix (or only its first entry when CreateAllVariants is off).
// Other items with a color or size get a single variant from the first of each.
func (s *Session) planVariants(product *catalog.Product, tax wxr.Taxonomy, prices PriceInput, explicitSKU string) []plannedVariant {
	if tax.IsVariable {
		combos := Combinations(tax.Colors, tax.Sizes)
		if !s.opts.CreateAllVariants {
			combos = combos[:1]
		}
		planned := make([]plannedVariant, 0, len(combos))
		for i, c := range combos {
			planned = append(planned, plannedVariant{
				combo: c,
				sku:   VariantSKU(product.SKU, c),
				price: s.pricing.VariantPrice(product.Price, c, i, prices),
			})
		}
		return planned
	}

	if len(tax.Colors) == 0 && len(tax.Sizes) == 0 {
		return nil
	}

	var c Combination
	colorPart, sizePart := "default", "default"
	if len(tax.Colors) > 0 {
		c.Color = &tax.Colors[0]
		colorPart = matching.KebabLower(tax.Colors[0])
	}
	if len(tax.Sizes) > 0 {
		c.Size = &tax.Sizes[0]
		sizePart = matching.KebabLower(tax.Sizes[0])
	}
	sku := explicitSKU
	if sku == "" {
		sku = fmt.Sprintf("%s-%s-%s", product.SKU, colorPart, sizePart)
	}
	return []plannedVariant{{combo: c, sku: sku, price: product.Price}}
}

// syncVariants reconciles planned variants against the product's stored variants by (color, size)
func (s *Session) syncVariants(ctx context.Context, row int, product *catalog.Product, planned []plannedVariant, images []string) error {
	for _, pv := range planned {
		existing, err := s.store.FindVariant(ctx, product.ID, pv.combo.Color, pv.combo.Size)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("failed to look up variant %s: %w", pv.sku, err)
		}

		v := catalog.Variant{
			ProductID: product.ID,
			Color:     pv.combo.Color,
			Size:      pv.combo.Size,
			Price:     pv.price,
			Stock:     product.Stock,
			SKU:       pv.sku,
			ImageURL:  variantImage(images, pv.combo),
			IsActive:  true,
		}

		if existing == nil {
			if err := s.store.CreateVariant(ctx, &v); err != nil {
				return fmt.Errorf("failed to create variant %s: %w", pv.sku, err)
			}
			s.result.VariantsCreated++
			variantsTotal.WithLabelValues("created").Inc()
			continue
		}

		if !s.opts.UpdateExisting {
			continue
		}
		v.ID = existing.ID
		if err := s.store.UpdateVariant(ctx, &v); err != nil {
			return fmt.Errorf("failed to update variant %s: %w", pv.sku, err)
		}
		s.result.VariantsUpdated++
		variantsTotal.WithLabelValues("updated").Inc()
		s.result.addWarning(row, "variant of %q updated", product.Title)
	}
	return nil
}

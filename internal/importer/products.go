package importer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/matching"
	"github.com/tkshop/catalog-service/internal/wxr"
)

var (
	// ErrMissingTitle is returned for product items with an empty title
	ErrMissingTitle = errors.New("missing title")
	// ErrInvalidStock is returned for a _stock value that is not a number
	ErrInvalidStock = errors.New("invalid stock")
)

const (
	descriptionLimit    = 300
	seoDescriptionLimit = 160
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// stripTags removes markup and collapses whitespace
func stripTags(s string) string {
	s = html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// truncate cuts s to at most limit runes
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}

// TierFor classifies a product by keywords in its category name
func TierFor(categoryName string) catalog.Tier {
	name := strings.ToLower(categoryName)
	switch {
	case strings.Contains(name, "эконом"):
		return catalog.TierEconomy
	case strings.Contains(name, "люкс"), strings.Contains(name, "премиум"):
		return catalog.TierLuxury
	default:
		return catalog.TierMiddle
	}
}

// parseStock reads _stock, falling back to _stock_status
func parseStock(it wxr.Item) (int, error) {
	if raw, ok := it.MetaValue(wxr.MetaStock); ok && strings.TrimSpace(raw) != "" {
		raw = strings.TrimSpace(raw)
		f, err := strconv.ParseFloat(raw, 64)
		// stock columns are 32-bit
		if err != nil || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, fmt.Errorf("%w %q", ErrInvalidStock, raw)
		}
		return int(f), nil
	}
	if status, _ := it.MetaValue(wxr.MetaStockStatus); status == "instock" {
		return DefaultInStockQuantity, nil
	}
	return 0, nil
}

// buildProduct assembles the product fields of an item. SKU falls back to a synthesized one.
func (s *Session) buildProduct(it wxr.Item, tax wxr.Taxonomy, categoryID string, price float64, stock int, images []string) catalog.Product {
	title := strings.TrimSpace(it.Title)

	slug := it.Slug()
	if slug == "" {
		slug = matching.Slugify(title)
	}

	sku, _ := it.MetaValue(wxr.MetaSKU)
	sku = strings.TrimSpace(sku)
	if sku == "" {
		sku = matching.GenerateSKU(tax.Category, title)
	}

	summary := strings.TrimSpace(it.Excerpt)
	if summary == "" {
		summary = stripTags(it.Content)
	}

	var content *string
	if c := strings.TrimSpace(it.Content); c != "" {
		content = &c
	}

	if images == nil {
		images = []string{}
	}

	return catalog.Product{
		SKU:            sku,
		Slug:           slug,
		Title:          title,
		Description:    truncate(summary, descriptionLimit),
		Content:        content,
		Price:          price,
		Currency:       s.opts.DefaultCurrency,
		Stock:          stock,
		CategoryID:     categoryID,
		Images:         images,
		Tier:           TierFor(tax.Category),
		IsActive:       true,
		IsInStock:      stock > 0,
		SEOTitle:       title,
		SEODescription: truncate(summary, seoDescriptionLimit),
	}
}

// reconcileProduct creates or updates the product. The returned product is nil when
// an existing match was left alone because updates are off.
func (s *Session) reconcileProduct(ctx context.Context, row int, p catalog.Product) (*catalog.Product, error) {
	existing, err := s.store.FindProductBySKUOrSlug(ctx, p.SKU, p.Slug)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up product %s: %w", p.SKU, err)
	}

	if existing == nil {
		if err := s.store.CreateProduct(ctx, &p); err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", p.SKU, err)
		}
		s.result.Created++
		itemsTotal.WithLabelValues("created").Inc()
		return &p, nil
	}

	if !s.opts.UpdateExisting {
		s.result.addWarning(row, "product with SKU %q already exists (skipped)", existing.SKU)
		itemsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateProduct(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", p.SKU, err)
	}
	s.result.Updated++
	itemsTotal.WithLabelValues("updated").Inc()
	s.result.addWarning(row, "product %q updated", p.Title)
	return &p, nil
}

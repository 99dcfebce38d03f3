package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Store lookups that match no record
var ErrNotFound = errors.New("catalog: record not found")

// Tier is the coarse price segment of a product
type Tier string

const (
	TierEconomy Tier = "ECONOMY"
	TierMiddle  Tier = "MIDDLE"
	TierLuxury  Tier = "LUXURY"
)

// Category is a product category. Slug is unique, names are matched case-insensitively.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a catalog product. SKU and Slug are each unique.
type Product struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Content        *string   `json:"content,omitempty"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	Stock          int       `json:"stock"`
	CategoryID     string    `json:"categoryId"`
	Images         []string  `json:"images"`
	Tier           Tier      `json:"tier"`
	IsActive       bool      `json:"isActive"`
	IsInStock      bool      `json:"isInStock"`
	SEOTitle       string    `json:"seoTitle"`
	SEODescription string    `json:"seoDescription"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Variant is a purchasable (color, size) combination of a product.
// A nil Color or Size is a distinct identity component.
type Variant struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Color     *string   `json:"color"`
	Size      *string   `json:"size"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	SKU       string    `json:"sku"`
	ImageURL  *string   `json:"imageUrl"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SameOption reports whether two optional attribute values are the same identity component
func SameOption(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// PriceRange returns the displayed price range of a product.
// Products with variants derive the range from the variants.
func PriceRange(p Product, variants []Variant) (min, max float64) {
	if len(variants) == 0 {
		return p.Price, p.Price
	}
	min, max = variants[0].Price, variants[0].Price
	for _, v := range variants[1:] {
		if v.Price < min {
			min = v.Price
		}
		if v.Price > max {
			max = v.Price
		}
	}
	return min, max
}

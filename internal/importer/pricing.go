package importer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tkshop/catalog-service/internal/matching"
)

// ErrInvalidPrice is returned for a price that does not parse or is negative
var ErrInvalidPrice = errors.New("invalid price")

// SizeMultipliers maps canonical size labels to price multipliers relative to a 30x30 item.
// Labels not listed fall back to max(1, area/BaseArea) rounded to one decimal.
var SizeMultipliers = map[string]float64{
	"30x30":   1.0,
	"30x60":   2.0,
	"30x70":   2.3,
	"50x90":   5.0,
	"50x100":  5.6,
	"70x130":  10.1,
	"70x140":  10.9,
	"100x150": 16.7,
	"180x200": 40.0,
	"200x230": 51.1,
}

// BaseArea is the area in cm² that SizeMultipliers are relative to
const BaseArea = 900

// LargeSizes mark blanket-sized items, which get Options.LargeBasePrice as their default base
var LargeSizes = []string{"180x200", "200x230"}

// SizeMultiplier returns the price multiplier for a size label; labels without dimensions give 1.0
func SizeMultiplier(size string) float64 {
	normalized := matching.NormalizeSize(size)
	if m, ok := SizeMultipliers[normalized]; ok {
		return m
	}
	w, h, ok := matching.ParseDimensions(normalized)
	if !ok {
		return 1.0
	}
	m := math.Max(1.0, float64(w*h)/BaseArea)
	return math.Round(m*10) / 10
}

// ParsePrice parses a decimal price, accepting a comma as the decimal separator
func ParsePrice(raw string) (float64, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w %q", ErrInvalidPrice, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w %q: negative", ErrInvalidPrice, raw)
	}
	return v, nil
}

// ExplicitPrices keeps the positive, parseable values of repeated _price meta in document order
func ExplicitPrices(values []string) []float64 {
	var prices []float64
	for _, raw := range values {
		if v, err := ParsePrice(raw); err == nil && v > 0 {
			prices = append(prices, v)
		}
	}
	return prices
}

// PriceInput is the price-related data of one item
type PriceInput struct {
	Sizes    []string
	Explicit []float64 // positive _price values in document order
	Raw      string    // last _price value
	HasRaw   bool
}

// PricingStrategy derives a product's base price and its variants' prices
type PricingStrategy interface {
	Name() string
	BasePrice(in PriceInput) (float64, error)
	// VariantPrice prices the index-th synthesized combination
	VariantPrice(base float64, c Combination, index int, in PriceInput) float64
}

// NewPricingStrategy returns the strategy registered under name
func NewPricingStrategy(name string, opts Options) (PricingStrategy, error) {
	defaults := baseDefaults{fallback: opts.FallbackBasePrice, large: opts.LargeBasePrice}
	switch name {
	case "", PricingExplicitMetaOrder:
		return explicitMetaOrder{fallback: opts.FallbackBasePrice}, nil
	case PricingAreaMultiplier:
		return areaMultiplier{defaults}, nil
	case PricingFixedBase:
		return fixedBase{defaults}, nil
	default:
		return nil, fmt.Errorf("unknown pricing strategy %q", name)
	}
}

type baseDefaults struct {
	fallback float64
	large    float64
}

// base returns the large-item price when any size is blanket-sized, else the fallback
func (d baseDefaults) base(sizes []string) float64 {
	for _, size := range sizes {
		normalized := matching.NormalizeSize(size)
		for _, large := range LargeSizes {
			if strings.Contains(normalized, large) {
				return d.large
			}
		}
	}
	return d.fallback
}

// explicitMetaOrder assigns the repeated _price values to combinations by position.
// Sizes are ranked small to large by area and the n-th ranked size takes the n-th price;
// size-less combinations use their own index. Positions past the last price reuse it.
// The feed is assumed to list prices in that order; nothing verifies it.
type explicitMetaOrder struct {
	fallback float64
}

func (explicitMetaOrder) Name() string { return PricingExplicitMetaOrder }

func (s explicitMetaOrder) BasePrice(in PriceInput) (float64, error) {
	if len(in.Explicit) == 0 {
		return s.fallback, nil
	}
	return minPrice(in.Explicit), nil
}

func (explicitMetaOrder) VariantPrice(base float64, c Combination, index int, in PriceInput) float64 {
	if len(in.Explicit) == 0 {
		return base
	}
	position := index
	if c.Size != nil {
		position = sizeRank(in.Sizes, *c.Size)
	}
	if position >= len(in.Explicit) {
		position = len(in.Explicit) - 1
	}
	return in.Explicit[position]
}

// areaMultiplier scales the base price by SizeMultiplier and rounds to whole units
type areaMultiplier struct {
	baseDefaults
}

func (areaMultiplier) Name() string { return PricingAreaMultiplier }

func (s areaMultiplier) BasePrice(in PriceInput) (float64, error) {
	if len(in.Explicit) > 0 {
		return minPrice(in.Explicit), nil
	}
	return s.base(in.Sizes), nil
}

func (areaMultiplier) VariantPrice(base float64, c Combination, index int, in PriceInput) float64 {
	if c.Size == nil {
		return math.Round(base)
	}
	return math.Round(base * SizeMultiplier(*c.Size))
}

// fixedBase gives every variant the product price. A present _price must be valid.
type fixedBase struct {
	baseDefaults
}

func (fixedBase) Name() string { return PricingFixedBase }

func (s fixedBase) BasePrice(in PriceInput) (float64, error) {
	if in.HasRaw && strings.TrimSpace(in.Raw) != "" {
		return ParsePrice(in.Raw)
	}
	return s.base(in.Sizes), nil
}

func (fixedBase) VariantPrice(base float64, c Combination, index int, in PriceInput) float64 {
	return base
}

func minPrice(prices []float64) float64 {
	m := prices[0]
	for _, p := range prices[1:] {
		m = math.Min(m, p)
	}
	return m
}

func sizeRank(sizes []string, size string) int {
	for i, s := range matching.SortSizesByArea(sizes) {
		if s == size {
			return i
		}
	}
	return 0
}

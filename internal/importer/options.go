package importer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Pricing strategy names
const (
	PricingExplicitMetaOrder = "explicit-meta-order"
	PricingAreaMultiplier    = "area-multiplier"
	PricingFixedBase         = "fixed-base"
)

const (
	DefaultCurrency          = "RUB"
	DefaultFallbackBasePrice = 50
	DefaultLargeBasePrice    = 200
	// DefaultInStockQuantity is the stock assumed for "instock" items without an explicit _stock
	DefaultInStockQuantity = 10
)

// Options configures one import run
type Options struct {
	DefaultCurrency      string            `json:"defaultCurrency" mapstructure:"default_currency" validate:"omitempty,len=3,alpha"`
	UpdateExisting       bool              `json:"updateExisting" mapstructure:"update_existing"`
	SkipInvalid          bool              `json:"skipInvalid" mapstructure:"skip_invalid"`
	CategoryMapping      map[string]string `json:"categoryMapping,omitempty" mapstructure:"category_mapping" validate:"omitempty,dive,keys,required,endkeys,required"`
	AutoCreateCategories bool              `json:"autoCreateCategories" mapstructure:"auto_create_categories"`
	CreateAllVariants    bool              `json:"createAllVariants" mapstructure:"create_all_variants"`
	Pricing              string            `json:"pricing,omitempty" mapstructure:"pricing" validate:"omitempty,oneof=explicit-meta-order area-multiplier fixed-base" jsonschema:"enum=explicit-meta-order,enum=area-multiplier,enum=fixed-base"`
	FallbackBasePrice    float64           `json:"fallbackBasePrice,omitempty" mapstructure:"fallback_base_price" validate:"gte=0"`
	LargeBasePrice       float64           `json:"largeBasePrice,omitempty" mapstructure:"large_base_price" validate:"gte=0"`
	ColorDenylist        []string          `json:"colorDenylist,omitempty" mapstructure:"color_denylist"`
}

// DefaultOptions returns the options the CLI and HTTP API start from
func DefaultOptions() Options {
	return Options{
		DefaultCurrency:      DefaultCurrency,
		AutoCreateCategories: true,
		CreateAllVariants:    true,
		Pricing:              PricingExplicitMetaOrder,
		FallbackBasePrice:    DefaultFallbackBasePrice,
		LargeBasePrice:       DefaultLargeBasePrice,
	}
}

// Clone returns a copy that shares no map or slice with o
func (o Options) Clone() Options {
	c := o
	c.CategoryMapping = maps.Clone(o.CategoryMapping)
	c.ColorDenylist = slices.Clone(o.ColorDenylist)
	return c
}

var validate = validator.New()

// Validate checks option values and fills unset defaults
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid import options: %w", err)
	}
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = DefaultCurrency
	}
	if o.Pricing == "" {
		o.Pricing = PricingExplicitMetaOrder
	}
	if o.FallbackBasePrice == 0 {
		o.FallbackBasePrice = DefaultFallbackBasePrice
	}
	if o.LargeBasePrice == 0 {
		o.LargeBasePrice = DefaultLargeBasePrice
	}
	return nil
}

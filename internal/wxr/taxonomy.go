package wxr

import "strings"

// Taxonomy domains of <category> elements
const (
	DomainCategory    = "product_cat"
	DomainColor       = "pa_cvet"
	DomainSize        = "pa_razmer"
	DomainProductType = "product_type"

	ProductTypeVariable = "variable"
)

// DefaultColorDenylist lists fabric weave and finish words that leak into the color attribute
// of some feeds. Values containing any of them are not colors.
var DefaultColorDenylist = []string{
	"пестротканное",
	"пестротканые",
	"гладкокрашеное",
	"гладкокрашеные",
	"махра",
	"хлопок",
	"ткань",
	"материал",
}

// ColorFilter rejects color values that describe fabric rather than hue
type ColorFilter struct {
	keywords []string
}

// NewColorFilter creates a filter over keywords, matched as case-insensitive substrings.
// A nil slice selects DefaultColorDenylist.
func NewColorFilter(keywords []string) *ColorFilter {
	if keywords == nil {
		keywords = DefaultColorDenylist
	}
	f := &ColorFilter{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

// IsNonColor reports whether value contains a denylisted keyword
func (f *ColorFilter) IsNonColor(value string) bool {
	v := strings.ToLower(value)
	for _, k := range f.keywords {
		if strings.Contains(v, k) {
			return true
		}
	}
	return false
}

// Taxonomy is an item's category terms grouped by domain
type Taxonomy struct {
	Category   string   // chosen category name, "" when the item has no terms at all
	Colors     []string // filtered, decoded, unique
	Sizes      []string // decoded, unique
	IsVariable bool
	Rejected   []string // color values removed by the filter
}

// ExtractTaxonomy groups an item's terms. The category is the first product_cat term,
// falling back to the first term of any domain.
func ExtractTaxonomy(it Item, filter *ColorFilter) Taxonomy {
	var tax Taxonomy
	var firstAny string
	seenColor := make(map[string]bool)
	seenSize := make(map[string]bool)

	for _, term := range it.Terms {
		value := Decode(term.Value)
		if value == "" {
			value = Decode(term.Nicename)
		}
		if firstAny == "" {
			firstAny = value
		}

		switch term.Domain {
		case DomainCategory:
			if tax.Category == "" {
				tax.Category = value
			}
		case DomainColor:
			if value == "" || seenColor[value] {
				continue
			}
			seenColor[value] = true
			if filter != nil && filter.IsNonColor(value) {
				tax.Rejected = append(tax.Rejected, value)
				continue
			}
			tax.Colors = append(tax.Colors, value)
		case DomainSize:
			if value == "" || seenSize[value] {
				continue
			}
			seenSize[value] = true
			tax.Sizes = append(tax.Sizes, value)
		case DomainProductType:
			if strings.EqualFold(value, ProductTypeVariable) {
				tax.IsVariable = true
			}
		}
	}

	if tax.Category == "" {
		tax.Category = firstAny
	}
	return tax
}

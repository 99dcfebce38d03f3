package importer

import (
	"strings"

	"github.com/tkshop/catalog-service/internal/matching"
)

// ColorCodes maps lower-cased color names to the short codes used in variant SKUs
var ColorCodes = map[string]string{
	"белый":     "W",
	"синий":     "B",
	"красный":   "R",
	"зеленый":   "G",
	"желтый":    "Y",
	"черный":    "K",
	"серый":     "GR",
	"розовый":   "P",
	"голубой":   "LB",
	"лиловый":   "LV",
	"персик":    "PE",
	"салатовый": "LG",
	"сиреневый": "SR",
	"бирюза":    "TQ",
}

// ColorCode returns the SKU code of a color: the canonical code when one is defined,
// otherwise the first two letters of its transliteration, uppercased
func ColorCode(color string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(color)), "ё", "е")
	if code, ok := ColorCodes[key]; ok {
		return code
	}

	latin := strings.ReplaceAll(matching.Slugify(color), "-", "")
	if latin == "" {
		latin = strings.TrimSpace(color)
	}
	r := []rune(latin)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

package matching

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	skuPrefixLen   = 3
	skuBodyLen     = 12
	fallbackPrefix = "PRD"
	skuSuffixLen   = 10
	skuSuffixMod   = 10_000_000_000
)

// GenerateSKU synthesizes a deterministic SKU from a category name and a title.
// Format: first three letters of the category, uppercased; up to twelve characters of the
// transliterated title; a ten-digit FNV-1a 64 suffix over the whole normalized category and title.
// "Подушки", "Ортопедическая подушка" -> "ПОД-ORTOPEDICHES-NNNNNNNNNN".
func GenerateSKU(category, title string) string {
	var prefix []rune
	for _, r := range category {
		if unicode.IsLetter(r) {
			prefix = append(prefix, unicode.ToUpper(r))
			if len(prefix) == skuPrefixLen {
				break
			}
		}
	}
	if len(prefix) == 0 {
		prefix = []rune(fallbackPrefix)
	}

	body := strings.ToUpper(Slugify(title))
	if len(body) > skuBodyLen {
		body = strings.TrimRight(body[:skuBodyLen], "-")
	}

	h := fnv.New64a()
	h.Write([]byte(NormalizeKey(category)))
	h.Write([]byte{'|'})
	h.Write([]byte(NormalizeKey(title)))
	suffix := fmt.Sprintf("%0*d", skuSuffixLen, h.Sum64()%skuSuffixMod)

	parts := []string{string(prefix)}
	if body != "" {
		parts = append(parts, body)
	}
	parts = append(parts, suffix)
	return strings.Join(parts, "-")
}

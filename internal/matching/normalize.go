package matching

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9]+`)
	dimensionsRe = regexp.MustCompile(`(\d+)x(\d+)`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// cyrillicLatin is the transliteration used for slugs
var cyrillicLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
}

// Transliterate converts Cyrillic letters to Latin; other runes pass through
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		lower := unicode.ToLower(r)
		latin, ok := cyrillicLatin[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower != r && latin != "" {
			latin = strings.ToUpper(latin[:1]) + latin[1:]
		}
		b.WriteString(latin)
	}
	return b.String()
}

// RemoveDiacritics strips combining marks (é -> e)
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Slugify builds a lowercase ASCII slug: "Постельное белье" -> "postelnoe-bele"
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = RemoveDiacritics(Transliterate(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeKey is the case-insensitive lookup key for names and slugs
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSize canonicalizes a size label: lowercase, no spaces, Cyrillic "х" and "×" become "x"
func NormalizeSize(size string) string {
	s := strings.ToLower(strings.TrimSpace(size))
	s = strings.NewReplacer("х", "x", "×", "x", "*", "x").Replace(s)
	return spaceRe.ReplaceAllString(s, "")
}

// ParseDimensions extracts width and height from a size label such as "70х140"
func ParseDimensions(size string) (width, height int, ok bool) {
	m := dimensionsRe.FindStringSubmatch(NormalizeSize(size))
	if m == nil {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(m[1])
	h, errH := strconv.Atoi(m[2])
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// KebabLower lowercases s and joins whitespace runs with "-" ("Светло Серый" -> "светло-серый")
func KebabLower(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

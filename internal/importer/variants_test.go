package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorCode(t *testing.T) {
	tests := []struct {
		color    string
		expected string
	}{
		{"Белый", "W"},
		{"бирюза", "TQ"},
		{"Жёлтый", "Y"},
		{" Сиреневый ", "SR"},
		{"Бежевый", "BE"},
		{"Navy", "NA"},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			if got := ColorCode(tt.color); got != tt.expected {
				t.Errorf("ColorCode(%q) = %q, want %q", tt.color, got, tt.expected)
			}
		})
	}
}

func TestCombinations(t *testing.T) {
	colors := []string{"Белый", "Синий"}
	sizes := []string{"30x30", "50x90", "70x140"}

	full := Combinations(colors, sizes)
	require.Len(t, full, 6)
	seen := make(map[string]bool)
	for _, c := range full {
		key := *c.Color + "|" + *c.Size
		assert.False(t, seen[key], "duplicate pair %s", key)
		seen[key] = true
	}

	onlyColors := Combinations(colors, nil)
	require.Len(t, onlyColors, 2)
	assert.Nil(t, onlyColors[0].Size)

	onlySizes := Combinations(nil, sizes)
	require.Len(t, onlySizes, 3)
	assert.Nil(t, onlySizes[2].Color)

	none := Combinations(nil, nil)
	require.Len(t, none, 1)
	assert.Nil(t, none[0].Color)
	assert.Nil(t, none[0].Size)
}

func TestVariantSKU(t *testing.T) {
	assert.Equal(t, "TW-1-TQ-70х140", VariantSKU("TW-1", Combination{Color: strPtr("Бирюза"), Size: strPtr("70х140")}))
	assert.Equal(t, "TW-1-W", VariantSKU("TW-1", Combination{Color: strPtr("белый")}))
	assert.Equal(t, "TW-1-евро-макси", VariantSKU("TW-1", Combination{Size: strPtr("Евро Макси")}))
	assert.Equal(t, "TW-1-default", VariantSKU("TW-1", Combination{}))

	// stable across calls
	first := make([]string, 0)
	second := make([]string, 0)
	for _, c := range Combinations([]string{"Персик", "Серый"}, []string{"30x30", "50x90"}) {
		first = append(first, VariantSKU("BAL", c))
	}
	for _, c := range Combinations([]string{"Персик", "Серый"}, []string{"30x30", "50x90"}) {
		second = append(second, VariantSKU("BAL", c))
	}
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"BAL-PE-30x30", "BAL-PE-50x90", "BAL-GR-30x30", "BAL-GR-50x90"}, first)
}

func TestVariantImage(t *testing.T) {
	images := []string{"https://x/main.jpg", "https://x/towel-sinij.jpg", "https://x/towel-Белый.jpg"}

	got := variantImage(images, Combination{Color: strPtr("белый")})
	require.NotNil(t, got)
	assert.Equal(t, "https://x/towel-Белый.jpg", *got)

	got = variantImage(images, Combination{Color: strPtr("Серый")})
	require.NotNil(t, got)
	assert.Equal(t, "https://x/main.jpg", *got)

	assert.Nil(t, variantImage(nil, Combination{Color: strPtr("Серый")}))
}

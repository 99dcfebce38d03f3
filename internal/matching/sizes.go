package matching

import "sort"

// SizeArea returns width*height of a size label, or 0 when it has no dimensions
func SizeArea(size string) int {
	w, h, ok := ParseDimensions(size)
	if !ok {
		return 0
	}
	return w * h
}

// SortSizesByArea returns sizes ordered small to large by area.
// Labels without dimensions keep their relative order after the measurable ones.
func SortSizesByArea(sizes []string) []string {
	out := append([]string(nil), sizes...)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := SizeArea(out[i]), SizeArea(out[j])
		if ai == 0 || aj == 0 {
			return ai != 0 && aj == 0
		}
		return ai < aj
	})
	return out
}

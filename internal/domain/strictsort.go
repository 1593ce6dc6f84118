package domain

import (
	"cmp"
	"slices"
)

// StrictSortIndexes returns the positions of the finite entries of values
// ordered so the values are strictly increasing (or strictly decreasing when
// descending is set). Duplicate values keep only their first occurrence.
func StrictSortIndexes(values []float64, descending bool) []int {
	idx := ValidLevels(values)
	slices.SortStableFunc(idx, func(a, b int) int {
		if descending {
			return cmp.Compare(values[b], values[a])
		}
		return cmp.Compare(values[a], values[b])
	})
	return slices.CompactFunc(idx, func(a, b int) bool {
		return values[a] == values[b]
	})
}

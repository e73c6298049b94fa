package utils

import "golang.org/x/exp/constraints"

// GrowCapacity doubles a backing array's capacity, starting from a floor of 8.
func GrowCapacity[I constraints.Integer](capacity I) I {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// Package mutators computes derived statistics from fetched rows. Nothing in
// this package touches the database.
package mutators

import (
	"cmp"
	"slices"
)

// Number is a value a median can be taken of.
type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Median returns the middle value of the sample, averaging the two middle
// values of an even-sized sample. An empty sample yields -1.
func Median[T Number](values []T) float64 {
	if len(values) == 0 {
		return -1
	}

	sorted := slices.Clone(values)
	slices.SortFunc(sorted, cmp.Compare[T])

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}

	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// Average returns the arithmetic mean, or 0 for an empty sample.
func Average[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}

	return sum / float64(len(values))
}

// ============================================================================
// print-batcher MinMax - divide and conquer extremes
// ============================================================================
//
// Package: internal/minmax
// File: minmax.go
// Purpose: Find the minimum and maximum of a sequence in one recursive pass
//
// Recursion:
//   [lo, lo]      -> (x, x)                 no comparison
//   [lo, lo+1]    -> ordered pair           1 comparison
//   [lo, hi]      -> split at (lo+hi)/2     2 comparisons to combine
//
// Cost:
//   3n/2 - 2 comparisons when n is a power of two, never more than 2n - 3.
//   Stack depth is O(log n).
//
// ============================================================================

package minmax

import (
	"errors"

	"golang.org/x/exp/constraints"
)

// ErrInvalidInput is returned for an empty sequence.
var ErrInvalidInput = errors.New("minmax: sequence cannot be empty")

// FindMinMax returns the smallest and largest element of values.
func FindMinMax[T constraints.Ordered](values []T) (T, T, error) {
	lo, hi, _, err := FindMinMaxCount(values)
	return lo, hi, err
}

// FindMinMaxCount behaves like FindMinMax and also reports how many element
// comparisons were made.
func FindMinMaxCount[T constraints.Ordered](values []T) (T, T, int, error) {
	if len(values) == 0 {
		var zero T
		return zero, zero, 0, ErrInvalidInput
	}

	var comparisons int
	lo, hi := findRange(values, 0, len(values)-1, &comparisons)
	return lo, hi, comparisons, nil
}

// findRange works on the inclusive index range [left, right].
func findRange[T constraints.Ordered](values []T, left, right int, comparisons *int) (T, T) {
	if left == right {
		return values[left], values[left]
	}

	if right == left+1 {
		*comparisons++
		if values[left] < values[right] {
			return values[left], values[right]
		}
		return values[right], values[left]
	}

	mid := (left + right) / 2
	leftMin, leftMax := findRange(values, left, mid, comparisons)
	rightMin, rightMax := findRange(values, mid+1, right, comparisons)

	*comparisons += 2
	lo, hi := leftMin, leftMax
	if rightMin < lo {
		lo = rightMin
	}
	if rightMax > hi {
		hi = rightMax
	}
	return lo, hi
}

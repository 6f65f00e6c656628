package tensor

import (
	"fmt"
	"slices"
)

// Shape lists the extent of each tensor dimension, outermost first.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements multiplies the dimensions together. A scalar (rank 0)
// has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("shape %v: dim %d at index %d, want > 0", s, dim, i)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and extents.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides calculates row-major strides for the shape: the stride of
// a dimension is the number of elements covered by one step along it.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// BroadcastShapes aligns two shapes under NumPy broadcasting.
//
// Shapes are compared element-wise from right to left; dimensions are
// compatible when they are equal or one of them is 1, and missing leading
// dimensions are treated as 1.
//
// Returns the broadcasted shape, a flag indicating whether broadcasting is
// needed, and an error if the shapes are incompatible.
//
// Examples:
//
//	(3, 1) with (3, 5) gives (3, 5), broadcast
//	(8) with (2, 8)    gives (2, 8), broadcast
//	(4, 5) with (4, 5) gives (4, 5), no broadcast
//	(3, 4) with (3, 5) fails on the last dimension
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	result := make(Shape, rank)
	needsBroadcast := false

	// i counts dimensions from the right, starting at 1.
	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}

		switch {
		case da == db:
			result[rank-i] = da
		case da == 1:
			result[rank-i] = db
			needsBroadcast = true
		case db == 1:
			result[rank-i] = da
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("broadcast %v with %v: dim %d is %d vs %d",
				a, b, rank-i, da, db)
		}
	}

	return result, needsBroadcast, nil
}

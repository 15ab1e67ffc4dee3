package textindex

import (
	"math"
	"slices"
)

// Vector is a sparse vector stored as parallel slices sorted by dimension.
// Sums always run in ascending dimension order, so equal inputs give
// bit-identical results.
type Vector struct {
	dims    []int
	weights []float64
}

// newVector builds a vector from dimension weights, dropping zeros.
func newVector(m map[int]float64) Vector {
	dims := make([]int, 0, len(m))
	for dim, w := range m {
		if w != 0 {
			dims = append(dims, dim)
		}
	}
	slices.Sort(dims)
	weights := make([]float64, len(dims))
	for i, dim := range dims {
		weights[i] = m[dim]
	}
	return Vector{dims: dims, weights: weights}
}

// Dot returns the dot product by merging the two sorted dimension lists.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.dims) && j < len(o.dims) {
		switch {
		case v.dims[i] < o.dims[j]:
			i++
		case v.dims[i] > o.dims[j]:
			j++
		default:
			sum += v.weights[i] * o.weights[j]
			i++
			j++
		}
	}
	return sum
}

// Norm returns the L2 norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v.weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// IsZero reports whether the vector has no non-zero weight.
func (v Vector) IsZero() bool { return len(v.dims) == 0 }

// Len returns the number of non-zero dimensions.
func (v Vector) Len() int { return len(v.dims) }

// Weight returns the weight stored at dim, or 0.
func (v Vector) Weight(dim int) float64 {
	if i, ok := slices.BinarySearch(v.dims, dim); ok {
		return v.weights[i]
	}
	return 0
}

// normalize scales v to unit length in place. Zero vectors are left unchanged.
func (v Vector) normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	for i := range v.weights {
		v.weights[i] /= n
	}
	return v
}

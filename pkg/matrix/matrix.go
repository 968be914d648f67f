// Package matrix provides the dense row-major matrix primitives shared by
// the layout optimizers.
//
// A matrix is a plain [][]float64 with rows = points and columns = embedding
// dimensions. The layout optimizers mutate coordinate matrices in place, so
// helpers here favor explicit allocation and cloning over clever aliasing.
package matrix

import "fmt"

// New allocates a zeroed rows×cols matrix with one backing row per slice.
func New(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Clone returns a deep copy of m.
func Clone(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// Dims returns the row and column counts of m. A nil or empty matrix has
// zero rows and zero columns.
func Dims(m [][]float64) (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// CheckRect verifies that every row of m has exactly cols columns.
func CheckRect(m [][]float64, cols int) error {
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return nil
}

// SqDist returns the squared Euclidean distance between x and y.
// The slices must have equal length.
func SqDist(x, y []float64) float64 {
	var d float64
	for i := range x {
		diff := x[i] - y[i]
		d += diff * diff
	}
	return d
}

// PairwiseSqDist computes the full n×n matrix of squared Euclidean
// distances between the rows of z.
func PairwiseSqDist(z [][]float64) [][]float64 {
	n := len(z)
	out := New(n, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := SqDist(z[i], z[j])
			out[i][j] = d
			out[j][i] = d
		}
	}
	return out
}

// Clip clamps v to the interval [-bound, bound].
func Clip(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

package spline

// This file implements the Cox–de Boor recursion for B-spline basis
// functions and their first derivatives on an extended knot grid.
//
// The recursion is written as an iterative, width-reducing loop over orders
// 0..k rather than literal recursion: each level reuses the previous level's
// buffer in place, so memory stays bounded at one slice per evaluation.

// BasisFunctions evaluates the order-k B-spline basis functions at x over
// the given knot grid.
//
// grid must be non-decreasing with at least order+2 knots; the result has
// len(grid)-1-order entries. Order-0 bases are interval indicators on
// [grid[i], grid[i+1]); higher orders blend the two adjacent lower-order
// bases weighted by the normalized distance of x to the knots spanning
// order+1 intervals. A zero-width knot interval (repeated knots) contributes
// 0 instead of dividing by zero.
func BasisFunctions(x float64, grid []float64, order int) []float64 {
	b := basisUpTo(x, grid, order)
	return b[:len(grid)-1-order]
}

// BasisDerivatives evaluates the first derivatives of the order-k basis
// functions at x, using the standard derivative identity
//
//	B'_{i,k}(x) = k * ( B_{i,k-1}(x)/(t_{i+k}-t_i) - B_{i+1,k-1}(x)/(t_{i+k+1}-t_{i+1}) )
//
// with zero-width intervals contributing 0. For order 0 the derivative is 0
// everywhere. The result has len(grid)-1-order entries, co-indexed with
// BasisFunctions.
func BasisDerivatives(x float64, grid []float64, order int) []float64 {
	n := len(grid) - 1 - order
	d := make([]float64, n)
	if order == 0 {
		return d
	}
	lower := basisUpTo(x, grid, order-1)
	k := float64(order)
	for i := 0; i < n; i++ {
		var v float64
		if w := grid[i+order] - grid[i]; w != 0 {
			v += lower[i] / w
		}
		if w := grid[i+order+1] - grid[i+1]; w != 0 {
			v -= lower[i+1] / w
		}
		d[i] = k * v
	}
	return d
}

// basisUpTo runs the recursion through the given order and returns the
// backing buffer; only the first len(grid)-1-order entries are meaningful.
func basisUpTo(x float64, grid []float64, order int) []float64 {
	b := make([]float64, len(grid)-1)
	for i := range b {
		if x >= grid[i] && x < grid[i+1] {
			b[i] = 1
		}
	}
	for j := 1; j <= order; j++ {
		// In-place: b[i] reads the previous level's b[i] and b[i+1],
		// neither of which has been overwritten yet at this level.
		for i := 0; i < len(grid)-1-j; i++ {
			var v float64
			if w := grid[i+j] - grid[i]; w != 0 {
				v += (x - grid[i]) / w * b[i]
			}
			if w := grid[i+j+1] - grid[i+1]; w != 0 {
				v += (grid[i+j+1] - x) / w * b[i+1]
			}
			b[i] = v
		}
	}
	return b
}

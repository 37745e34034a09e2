package spline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkan/clipkan/internal/spline"
)

// extendedGrid builds a uniform knot grid over [lo, hi] with gridSize
// intervals, extended by order knots on each side.
func extendedGrid(lo, hi float64, gridSize, order int) []float64 {
	step := (hi - lo) / float64(gridSize)
	knots := make([]float64, gridSize+2*order+1)
	for i := range knots {
		knots[i] = lo + float64(i-order)*step
	}
	return knots
}

// TestBasisFunctions_PartitionOfUnity checks that the order-k basis values
// sum to 1 at any point strictly inside the non-padded grid range.
func TestBasisFunctions_PartitionOfUnity(t *testing.T) {
	for order := 0; order <= 3; order++ {
		grid := extendedGrid(-1, 1, 7, order)
		for x := -0.999; x < 1; x += 0.0617 {
			b := spline.BasisFunctions(x, grid, order)
			require.Len(t, b, 7+order)
			assert.InDeltaf(t, 1, sum(b), 1e-12, "order %d at x=%v", order, x)
		}
	}
}

func TestBasisFunctions_OrderZeroIndicator(t *testing.T) {
	grid := []float64{0, 1, 2, 3}
	b := spline.BasisFunctions(1.5, grid, 0)
	assert.Equal(t, []float64{0, 1, 0}, b)

	// Half-open intervals: a knot belongs to the interval on its right.
	b = spline.BasisFunctions(1.0, grid, 0)
	assert.Equal(t, []float64{0, 1, 0}, b)
}

func TestBasisFunctions_OutsideSupportIsZero(t *testing.T) {
	grid := extendedGrid(-1, 1, 4, 2)
	b := spline.BasisFunctions(5, grid, 2)
	for i, v := range b {
		assert.Zerof(t, v, "basis %d", i)
	}
}

// TestBasisFunctions_RepeatedKnots verifies that zero-width intervals yield
// zero contributions rather than NaN.
func TestBasisFunctions_RepeatedKnots(t *testing.T) {
	grid := []float64{0, 0, 0, 1, 2, 2, 2}
	for x := -0.5; x < 2.5; x += 0.25 {
		for order := 0; order <= 2; order++ {
			for _, v := range spline.BasisFunctions(x, grid, order) {
				assert.False(t, math.IsNaN(v), "NaN at x=%v order=%d", x, order)
				assert.False(t, math.IsInf(v, 0), "Inf at x=%v order=%d", x, order)
			}
		}
	}
}

func TestBasisFunctions_QuadraticValue(t *testing.T) {
	// Uniform knots 0..4, order 2. The cardinal quadratic B-spline B_{0,2}
	// has the closed form -x^2 + 3x - 3/2 on [1,2), so B_{0,2}(1.5)=0.75,
	// and B_{1,2}(1.5) sits on its first piece, (x-1)^2/2 = 0.125.
	grid := []float64{0, 1, 2, 3, 4}
	b := spline.BasisFunctions(1.5, grid, 2)
	require.Len(t, b, 2)
	assert.InDelta(t, 0.75, b[0], 1e-12)
	assert.InDelta(t, 0.125, b[1], 1e-12)
}

// TestBasisDerivatives_FiniteDifference compares the analytic derivative
// against a central difference away from knot boundaries.
func TestBasisDerivatives_FiniteDifference(t *testing.T) {
	const h = 1e-6
	for order := 1; order <= 3; order++ {
		grid := extendedGrid(-1, 1, 5, order)
		for _, x := range []float64{-0.71, -0.13, 0.09, 0.57, 0.93} {
			d := spline.BasisDerivatives(x, grid, order)
			lo := spline.BasisFunctions(x-h, grid, order)
			hi := spline.BasisFunctions(x+h, grid, order)
			for i := range d {
				fd := (hi[i] - lo[i]) / (2 * h)
				assert.InDeltaf(t, fd, d[i], 1e-5, "order %d basis %d at x=%v", order, i, x)
			}
		}
	}
}

func TestBasisDerivatives_OrderZero(t *testing.T) {
	grid := []float64{0, 1, 2, 3}
	assert.Equal(t, []float64{0, 0, 0}, spline.BasisDerivatives(0.5, grid, 0))
}

// TestBasisDerivatives_SumIsZero: since the bases sum to 1 inside the grid,
// their derivatives must sum to 0 there.
func TestBasisDerivatives_SumIsZero(t *testing.T) {
	grid := extendedGrid(-2, 2, 6, 3)
	for _, x := range []float64{-1.9, -0.4, 0.01, 1.3, 1.99} {
		assert.InDelta(t, 0, sum(spline.BasisDerivatives(x, grid, 3)), 1e-12)
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, v := range xs {
		s += v
	}
	return s
}

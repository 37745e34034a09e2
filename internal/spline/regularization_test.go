package spline_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkan/clipkan/internal/spline"
)

func TestLayer_RegularizationZeroCoefficients(t *testing.T) {
	l, err := spline.NewLayer(spline.Config{InFeatures: 2, OutFeatures: 2, GridSize: 3, SplineOrder: 1})
	require.NoError(t, err)

	assert.Zero(t, l.Regularization(1, 1))
}

func TestLayer_RegularizationKnownValues(t *testing.T) {
	// GridSize 2, order 0: two coefficients per pair, two pairs.
	l, err := spline.NewLayer(spline.Config{InFeatures: 1, OutFeatures: 2, GridSize: 2, SplineOrder: 0})
	require.NoError(t, err)
	coef := l.Coefficients().Data()
	require.Len(t, coef, 4)

	// All magnitude on one pair: total 1, entropy 0.
	copy(coef, []float64{1, 1, 0, 0})
	assert.InDelta(t, 3*1, l.Regularization(3, 7), 1e-12)

	// Evenly split: means [1, 1], total 2, p = [1/2, 1/2], entropy ln 2.
	copy(coef, []float64{1, -1, 1, 1})
	assert.InDelta(t, 3*2+7*math.Ln2, l.Regularization(3, 7), 1e-12)
}

// TestLayer_RegularizationGradFiniteDifference checks the analytic gradient
// of the regularization score against central differences.
func TestLayer_RegularizationGradFiniteDifference(t *testing.T) {
	const aw, ew = 0.7, 1.3
	rng := rand.New(rand.NewSource(29))

	l, err := spline.NewLayer(spline.Config{InFeatures: 2, OutFeatures: 2, GridSize: 3, SplineOrder: 2})
	require.NoError(t, err)
	coef := l.Coefficients().Data()
	for i := range coef {
		// Keep every coefficient well away from zero: |c| is not
		// differentiable there.
		c := 0.5 + rng.Float64()
		if rng.Intn(2) == 0 {
			c = -c
		}
		coef[i] = c
	}

	l.Coefficients().ZeroGrad()
	l.RegularizationGrad(aw, ew)
	grad := append([]float64(nil), l.Coefficients().Grad()...)

	const h = 1e-7
	for _, j := range []int{0, 1, 5, 9, 13, len(coef) - 1} {
		orig := coef[j]
		coef[j] = orig + h
		up := l.Regularization(aw, ew)
		coef[j] = orig - h
		down := l.Regularization(aw, ew)
		coef[j] = orig
		assert.InDeltaf(t, (up-down)/(2*h), grad[j], 1e-6, "coef %d", j)
	}
}

// TestLayer_RegularizationGradAccumulates: the gradient adds to whatever is
// already in the buffer, matching Backward's accumulation contract.
func TestLayer_RegularizationGradAccumulates(t *testing.T) {
	l, err := spline.NewLayer(spline.Config{InFeatures: 1, OutFeatures: 1, GridSize: 2, SplineOrder: 0})
	require.NoError(t, err)
	copy(l.Coefficients().Data(), []float64{1, 2})

	l.Coefficients().ZeroGrad()
	l.RegularizationGrad(1, 0)
	once := append([]float64(nil), l.Coefficients().Grad()...)
	l.RegularizationGrad(1, 0)
	for i, g := range l.Coefficients().Grad() {
		assert.InDelta(t, 2*once[i], g, 1e-12)
	}
}

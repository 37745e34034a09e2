package spline_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/clipkan/clipkan/internal/spline"
)

// TestLayer_UpdateGridPreservesOutputs: re-gridding refits the coefficients
// against the old spline's values on the batch, so evaluating the layer on
// that same batch before and after must agree.
func TestLayer_UpdateGridPreservesOutputs(t *testing.T) {
	cfg := spline.Config{InFeatures: 2, OutFeatures: 3, GridSize: 5, SplineOrder: 3}
	rng := rand.New(rand.NewSource(19))

	l, err := spline.NewLayer(cfg)
	require.NoError(t, err)
	require.NoError(t, l.InitRandom(rng, 4))

	// Keep the batch at most the basis size so the refit can interpolate
	// the old values exactly.
	const batch = 6
	x := mat.NewDense(batch, 2, nil)
	for b := 0; b < batch; b++ {
		for f := 0; f < 2; f++ {
			x.Set(b, f, -0.8+1.6*rng.Float64())
		}
	}

	before, err := l.Forward(x)
	require.NoError(t, err)
	require.NoError(t, l.UpdateGrid(x, 0.01))
	after, err := l.Forward(x)
	require.NoError(t, err)

	for b := 0; b < batch; b++ {
		for o := 0; o < 3; o++ {
			assert.InDeltaf(t, before.At(b, o), after.At(b, o), 1e-6, "output [%d,%d]", b, o)
		}
	}
}

// TestLayer_UpdateGridKnotStructure checks the blended grid covers the
// padded data range and keeps the extended knot layout.
func TestLayer_UpdateGridKnotStructure(t *testing.T) {
	cfg := spline.Config{InFeatures: 1, OutFeatures: 1, GridSize: 4, SplineOrder: 2, GridEps: 0.5}
	l, err := spline.NewLayer(cfg)
	require.NoError(t, err)

	const margin = 0.1
	x := mat.NewDense(9, 1, []float64{-0.4, -0.3, -0.1, 0, 0.05, 0.2, 0.3, 0.35, 0.4})
	require.NoError(t, l.UpdateGrid(x, margin))

	g := l.Grid(0)
	require.Len(t, g, 4+2*2+1)
	for i := 1; i < len(g); i++ {
		assert.LessOrEqual(t, g[i-1], g[i], "knots must stay non-decreasing")
	}
	// First and last interior knots land on the margin-padded data range:
	// both the quantile and the uniform grid end there, so the blend does
	// too.
	assert.InDelta(t, -0.4-margin, g[2], 1e-12)
	assert.InDelta(t, 0.4+margin, g[len(g)-3], 1e-12)
}

// TestLayer_UpdateGridUniformBlend: with GridEps=1 the new grid is fully
// uniform over the padded range regardless of how the batch is distributed.
func TestLayer_UpdateGridUniformBlend(t *testing.T) {
	cfg := spline.Config{InFeatures: 1, OutFeatures: 1, GridSize: 4, SplineOrder: 1, GridEps: 1}
	l, err := spline.NewLayer(cfg)
	require.NoError(t, err)

	// Heavily skewed batch.
	x := mat.NewDense(8, 1, []float64{0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 1})
	require.NoError(t, l.UpdateGrid(x, 0))

	g := l.Grid(0)
	step := (g[len(g)-2] - g[1]) / 4
	for i := 2; i < len(g)-1; i++ {
		assert.InDelta(t, step, g[i]-g[i-1], 1e-12)
	}
}

// TestLayer_UpdateGridAdaptivePlacement: with GridEps=0 the knots follow the
// order statistics, so a skewed batch drags knots into the dense region.
func TestLayer_UpdateGridAdaptivePlacement(t *testing.T) {
	cfg := spline.Config{InFeatures: 1, OutFeatures: 1, GridSize: 4, SplineOrder: 1, GridEps: 1e-9}
	l, err := spline.NewLayer(cfg)
	require.NoError(t, err)

	x := mat.NewDense(8, 1, []float64{0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 1})
	require.NoError(t, l.UpdateGrid(x, 0))

	g := l.Grid(0)
	// Interior knots (excluding the padded first/last) hug the dense
	// cluster near zero.
	assert.Less(t, g[2], 0.1)
	assert.Less(t, g[3], 0.1)
}

// TestLayer_UpdateGridLargeBatch re-grids from a batch big enough to run the
// per-(sample, feature) evaluation concurrently. With GridEps=1, no margin
// and a batch spanning exactly the old range, the new uniform grid
// reproduces the old one, so the refit must recover the same function.
func TestLayer_UpdateGridLargeBatch(t *testing.T) {
	cfg := spline.Config{InFeatures: 2, OutFeatures: 3, GridSize: 4, SplineOrder: 2, GridEps: 1}
	rng := rand.New(rand.NewSource(23))

	l, err := spline.NewLayer(cfg)
	require.NoError(t, err)
	require.NoError(t, l.InitRandom(rng, 4))
	gridBefore := l.Grid(0)

	const batch = 40
	x := mat.NewDense(batch, 2, nil)
	for b := 0; b < batch; b++ {
		v := -1 + 2*float64(b)/float64(batch-1)
		x.Set(b, 0, v)
		x.Set(b, 1, v)
	}

	before, err := l.Forward(x)
	require.NoError(t, err)
	require.NoError(t, l.UpdateGrid(x, 0))
	after, err := l.Forward(x)
	require.NoError(t, err)

	gridAfter := l.Grid(0)
	for i := range gridBefore {
		assert.InDeltaf(t, gridBefore[i], gridAfter[i], 1e-12, "knot %d", i)
	}
	for b := 0; b < batch; b++ {
		for o := 0; o < 3; o++ {
			assert.InDeltaf(t, before.At(b, o), after.At(b, o), 1e-8, "output [%d,%d]", b, o)
		}
	}
}

func TestLayer_UpdateGridErrors(t *testing.T) {
	l, err := spline.NewLayer(spline.Config{InFeatures: 2, OutFeatures: 1, GridSize: 4, SplineOrder: 2})
	require.NoError(t, err)
	gridBefore := l.Grid(0)

	err = l.UpdateGrid(mat.NewDense(3, 5, nil), 0.01)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "features")

	// Failed update must leave the layer untouched.
	assert.Equal(t, gridBefore, l.Grid(0))
}

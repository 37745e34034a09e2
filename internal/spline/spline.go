// Package spline implements the B-spline basis engine and the spline layer
// built on it.
//
// A Layer maps InFeatures inputs to OutFeatures outputs through learned
// univariate splines: for every (output, input) pair it holds a coefficient
// vector over a shared per-feature knot grid, and the forward pass sums the
// per-feature spline values into each output. The knot grid and the
// coefficient tensor are the layer's only mutable state; input batches are
// borrowed for the duration of a call and never retained.
//
// Layers are not safe for concurrent use. A single logical thread must drive
// Forward/Backward/UpdateGrid on any given layer; that is a caller
// precondition, not something the layer guards against. Internally the layer
// parallelizes its batched loops, which stays invisible to callers.
package spline

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/clipkan/clipkan/internal/parallel"
	"github.com/clipkan/clipkan/internal/param"
)

// Config holds the construction parameters of a spline layer.
type Config struct {
	InFeatures  int // Number of input features, must be > 0.
	OutFeatures int // Number of output features, must be > 0.
	GridSize    int // Number of grid intervals per feature, must be > 0.
	SplineOrder int // Polynomial order of the basis, must be >= 0.

	// GridRange is the initial knot span [lo, hi) per feature, before the
	// symmetric extension by SplineOrder knots on each side.
	// Default: [-1, 1].
	GridRange [2]float64

	// GridEps blends the uniform grid into the adaptive one during
	// UpdateGrid: new = GridEps*uniform + (1-GridEps)*adaptive.
	// Must be in [0, 1]. The zero value takes the default of 0.02; pass a
	// tiny positive epsilon for an (effectively) fully adaptive grid.
	GridEps float64
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.GridRange == [2]float64{} {
		c.GridRange = [2]float64{-1, 1}
	}
	if c.GridEps == 0 {
		c.GridEps = 0.02
	}
	return c
}

// Validate reports the first construction parameter out of bounds.
func (c Config) Validate() error {
	if c.InFeatures <= 0 {
		return errors.Errorf("spline: in features must be > 0, got %d", c.InFeatures)
	}
	if c.OutFeatures <= 0 {
		return errors.Errorf("spline: out features must be > 0, got %d", c.OutFeatures)
	}
	if c.GridSize <= 0 {
		return errors.Errorf("spline: grid size must be > 0, got %d", c.GridSize)
	}
	if c.SplineOrder < 0 {
		return errors.Errorf("spline: spline order must be >= 0, got %d", c.SplineOrder)
	}
	if c.GridRange[0] >= c.GridRange[1] {
		return errors.Errorf("spline: grid range must satisfy lo < hi, got [%v, %v]",
			c.GridRange[0], c.GridRange[1])
	}
	if c.GridEps < 0 || c.GridEps > 1 {
		return errors.Errorf("spline: grid eps must be in [0, 1], got %v", c.GridEps)
	}
	return nil
}

// BasisSize returns the number of basis functions per (output, input) pair,
// GridSize + SplineOrder.
func (c Config) BasisSize() int { return c.GridSize + c.SplineOrder }

// knotCount returns the extended grid length, GridSize + 2*SplineOrder + 1.
func (c Config) knotCount() int { return c.GridSize + 2*c.SplineOrder + 1 }

// Layer is one spline layer: a per-feature knot grid plus the fitted
// coefficient tensor of shape (OutFeatures, InFeatures, BasisSize).
type Layer struct {
	cfg  Config
	grid [][]float64 // per input feature, knotCount non-decreasing knots
	coef *param.Param
	par  parallel.Config
}

// NewLayer creates a layer with a uniform knot grid over Config.GridRange
// and zero coefficients. Use InitRandom or Fit to give the splines an
// initial shape.
func NewLayer(cfg Config) (*Layer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	step := (cfg.GridRange[1] - cfg.GridRange[0]) / float64(cfg.GridSize)
	knots := make([]float64, cfg.knotCount())
	for i := range knots {
		knots[i] = cfg.GridRange[0] + float64(i-cfg.SplineOrder)*step
	}
	grid := make([][]float64, cfg.InFeatures)
	for f := range grid {
		grid[f] = append([]float64(nil), knots...)
	}

	coef, err := param.New("spline_coef", cfg.OutFeatures, cfg.InFeatures, cfg.BasisSize())
	if err != nil {
		return nil, err
	}
	return &Layer{
		cfg:  cfg,
		grid: grid,
		coef: coef,
		par:  parallel.DefaultConfig(),
	}, nil
}

// Config returns the layer configuration.
func (l *Layer) Config() Config { return l.cfg }

// Coefficients returns the coefficient parameter. The shape is
// (OutFeatures, InFeatures, BasisSize); it always matches the current knot
// grid's basis dimension.
func (l *Layer) Coefficients() *param.Param { return l.coef }

// Params returns the layer's trainable parameters.
func (l *Layer) Params() []*param.Param { return []*param.Param{l.coef} }

// Grid returns a copy of the extended knot grid for one input feature.
func (l *Layer) Grid(feature int) []float64 {
	return append([]float64(nil), l.grid[feature]...)
}

// coefRow returns the coefficient slice for one (output, input) pair,
// aliasing the parameter storage.
func (l *Layer) coefRow(out, in int) []float64 {
	nb := l.cfg.BasisSize()
	start := (out*l.cfg.InFeatures + in) * nb
	return l.coef.Data()[start : start+nb]
}

// gradRow returns the coefficient gradient slice for one (output, input)
// pair, aliasing the parameter storage.
func (l *Layer) gradRow(out, in int) []float64 {
	nb := l.cfg.BasisSize()
	start := (out*l.cfg.InFeatures + in) * nb
	return l.coef.Grad()[start : start+nb]
}

// InitRandom fits the coefficients to small uniform noise sampled on the
// interior grid points, giving each spline a gentle random shape whose
// amplitude scales with scale/GridSize.
func (l *Layer) InitRandom(rng *rand.Rand, scale float64) error {
	cfg := l.cfg
	batch := cfg.GridSize + 1
	x := mat.NewDense(batch, cfg.InFeatures, nil)
	for q := 0; q < batch; q++ {
		for f := 0; f < cfg.InFeatures; f++ {
			x.Set(q, f, l.grid[f][cfg.SplineOrder+q])
		}
	}
	y := make([]float64, batch*cfg.InFeatures*cfg.OutFeatures)
	for i := range y {
		y[i] = (rng.Float64() - 0.5) * scale / float64(cfg.GridSize)
	}
	return l.Fit(x, y)
}

// Forward evaluates the layer on a batch.
//
// x has shape (batch, InFeatures); the result has shape (batch, OutFeatures)
// with y[b,o] = sum over inputs i and basis functions j of
// B_ij(x[b,i]) * coef[o,i,j].
func (l *Layer) Forward(x *mat.Dense) (*mat.Dense, error) {
	batch, features := x.Dims()
	if features != l.cfg.InFeatures {
		return nil, errors.Errorf("spline: forward input has %d features, layer expects %d",
			features, l.cfg.InFeatures)
	}

	y := mat.NewDense(batch, l.cfg.OutFeatures, nil)
	parallel.For(batch, func(b int) {
		row := y.RawRowView(b)
		for i := 0; i < l.cfg.InFeatures; i++ {
			bases := BasisFunctions(x.At(b, i), l.grid[i], l.cfg.SplineOrder)
			for o := 0; o < l.cfg.OutFeatures; o++ {
				row[o] += floats.Dot(bases, l.coefRow(o, i))
			}
		}
	}, l.par)
	return y, nil
}

// Backward accumulates coefficient gradients for the batch and returns the
// gradient with respect to the inputs.
//
// x is the same batch passed to Forward; dOut has shape
// (batch, OutFeatures) and carries the loss gradient at the layer output.
// Coefficient gradients accumulate into Coefficients().Grad(); call ZeroGrad
// on the parameter between steps. The returned matrix has x's shape.
func (l *Layer) Backward(x, dOut *mat.Dense) (*mat.Dense, error) {
	batch, features := x.Dims()
	if features != l.cfg.InFeatures {
		return nil, errors.Errorf("spline: backward input has %d features, layer expects %d",
			features, l.cfg.InFeatures)
	}
	dBatch, dOutF := dOut.Dims()
	if dBatch != batch || dOutF != l.cfg.OutFeatures {
		return nil, errors.Errorf("spline: backward output gradient is %dx%d, want %dx%d",
			dBatch, dOutF, batch, l.cfg.OutFeatures)
	}

	dx := mat.NewDense(batch, features, nil)
	// Parallel over input features: every goroutine touches only its own
	// gradient rows and its own dx column.
	parallel.For(features, func(i int) {
		for b := 0; b < batch; b++ {
			xv := x.At(b, i)
			bases := BasisFunctions(xv, l.grid[i], l.cfg.SplineOrder)
			derivs := BasisDerivatives(xv, l.grid[i], l.cfg.SplineOrder)
			var dxv float64
			for o := 0; o < l.cfg.OutFeatures; o++ {
				g := dOut.At(b, o)
				if g == 0 {
					continue
				}
				floats.AddScaled(l.gradRow(o, i), g, bases)
				dxv += g * floats.Dot(l.coefRow(o, i), derivs)
			}
			dx.Set(b, i, dxv)
		}
	}, l.par)
	return dx, nil
}

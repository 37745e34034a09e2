package spline

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/clipkan/clipkan/internal/parallel"
)

// Fit solves, for each input feature independently, the linear least-squares
// problem
//
//	basis(x[:,i]) @ C_i ≈ y[:,i,:]
//
// with the batch as equation count, the basis functions as unknowns and the
// output features as right-hand-side columns, and stores the solutions as
// the layer's coefficient tensor.
//
// x has shape (batch, InFeatures); y is the flat target tensor with layout
// (batch, InFeatures, OutFeatures). The solve goes through an orthogonal
// factorization rather than normal equations, so near-collinear bases
// (duplicate samples, repeated knots) degrade gracefully instead of blowing
// up in conditioning.
func (l *Layer) Fit(x *mat.Dense, y []float64) error {
	batch, features := x.Dims()
	if features != l.cfg.InFeatures {
		return errors.Errorf("spline: fit input has %d features, layer expects %d",
			features, l.cfg.InFeatures)
	}
	if want := batch * l.cfg.InFeatures * l.cfg.OutFeatures; len(y) != want {
		return errors.Errorf("spline: fit targets have %d values, want %d (batch %d x in %d x out %d)",
			len(y), want, batch, l.cfg.InFeatures, l.cfg.OutFeatures)
	}

	coef := make([]float64, l.coef.Size())
	if err := l.fitInto(coef, x, func(b, i, o int) float64 {
		return y[(b*l.cfg.InFeatures+i)*l.cfg.OutFeatures+o]
	}, l.grid); err != nil {
		return err
	}
	copy(l.coef.Data(), coef)
	return nil
}

// fitInto solves the per-feature least-squares problems against targets
// produced by target(b, i, o), evaluating bases on the given grid, and
// writes the coefficient tensor into dst without touching layer state.
// Callers rely on that for atomic grid swaps.
func (l *Layer) fitInto(dst []float64, x *mat.Dense, target func(b, i, o int) float64, grid [][]float64) error {
	batch, _ := x.Dims()
	nb := l.cfg.BasisSize()
	out := l.cfg.OutFeatures

	errs := make([]error, l.cfg.InFeatures)
	parallel.For(l.cfg.InFeatures, func(i int) {
		a := mat.NewDense(batch, nb, nil)
		rhs := mat.NewDense(batch, out, nil)
		for b := 0; b < batch; b++ {
			a.SetRow(b, BasisFunctions(x.At(b, i), grid[i], l.cfg.SplineOrder))
			for o := 0; o < out; o++ {
				rhs.Set(b, o, target(b, i, o))
			}
		}

		var c mat.Dense
		if err := c.Solve(a, rhs); err != nil {
			// A Condition error still carries a usable least-squares
			// solution; anything else is a real failure.
			if _, ok := err.(mat.Condition); !ok {
				errs[i] = errors.Wrapf(err, "spline: least-squares fit failed for feature %d", i)
				return
			}
		}
		for o := 0; o < out; o++ {
			for j := 0; j < nb; j++ {
				dst[(o*l.cfg.InFeatures+i)*nb+j] = c.At(j, o)
			}
		}
	}, l.par)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

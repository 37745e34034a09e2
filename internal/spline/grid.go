package spline

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"github.com/clipkan/clipkan/internal/parallel"
)

// UpdateGrid re-places the knot grid of every feature from the empirical
// distribution of a fresh input batch, then refits the coefficients so the
// layer keeps computing the same function on that batch.
//
// Per feature, the new interior knots are a blend of
//
//   - an adaptive grid: evenly spaced empirical quantiles of the batch,
//     padded by margin at each end, and
//   - a uniform grid spanning the same padded range,
//
// mixed as GridEps*uniform + (1-GridEps)*adaptive, and finally extended by
// SplineOrder knots on each side using the uniform spacing, which supplies
// the boundary context the basis recursion needs.
//
// The refit targets are the old spline's per-(output,input) values on the
// batch, so re-gridding preserves the current function rather than
// resetting it. Grid and coefficients are updated together after all solves
// succeed: on error the layer is left exactly as it was.
func (l *Layer) UpdateGrid(x *mat.Dense, margin float64) error {
	batch, features := x.Dims()
	if features != l.cfg.InFeatures {
		return errors.Errorf("spline: grid update input has %d features, layer expects %d",
			features, l.cfg.InFeatures)
	}
	if batch == 0 {
		return errors.New("spline: grid update needs a non-empty batch")
	}

	// Old per-pair spline values on the batch, captured before anything
	// changes: targets[b][i][o].
	targets := l.pairOutputs(x)

	newGrid := make([][]float64, features)
	for i := 0; i < features; i++ {
		col := make([]float64, batch)
		mat.Col(col, i, x)
		sort.Float64s(col)
		newGrid[i] = l.placeKnots(col, margin)
	}

	newCoef := make([]float64, l.coef.Size())
	err := l.fitInto(newCoef, x, func(b, i, o int) float64 {
		return targets[(b*l.cfg.InFeatures+i)*l.cfg.OutFeatures+o]
	}, newGrid)
	if err != nil {
		return err
	}

	// Point of no return: swap grid and coefficients together.
	l.grid = newGrid
	copy(l.coef.Data(), newCoef)

	if klog.V(2).Enabled() {
		klog.Infof("spline: re-gridded %d features from batch of %d (margin %g)",
			features, batch, margin)
	}
	return nil
}

// placeKnots computes one feature's new extended knot vector from its
// sorted batch column.
func (l *Layer) placeKnots(sorted []float64, margin float64) []float64 {
	g := l.cfg.GridSize
	k := l.cfg.SplineOrder

	adaptive := make([]float64, g+1)
	for q := 0; q <= g; q++ {
		adaptive[q] = stat.Quantile(float64(q)/float64(g), stat.Empirical, sorted, nil)
	}
	adaptive[0] -= margin
	adaptive[g] += margin

	lo := adaptive[0]
	hi := adaptive[g]
	step := (hi - lo) / float64(g)

	knots := make([]float64, l.cfg.knotCount())
	for q := 0; q <= g; q++ {
		uniform := lo + float64(q)*step
		knots[k+q] = l.cfg.GridEps*uniform + (1-l.cfg.GridEps)*adaptive[q]
	}
	// Symmetric extension with the uniform spacing.
	for e := 1; e <= k; e++ {
		knots[k-e] = knots[k] - float64(e)*step
		knots[k+g+e] = knots[k+g] + float64(e)*step
	}
	return knots
}

// pairOutputs evaluates the current spline per (output, input) pair on the
// batch, flat layout (batch, InFeatures, OutFeatures).
//
// Parallel over the batch x feature grid: every (b, i) cell writes only its
// own output stretch and reads coefficients read-only.
func (l *Layer) pairOutputs(x *mat.Dense) []float64 {
	batch, _ := x.Dims()
	out := make([]float64, batch*l.cfg.InFeatures*l.cfg.OutFeatures)
	parallel.ForBatch(batch, l.cfg.InFeatures, func(b, i int) {
		bases := BasisFunctions(x.At(b, i), l.grid[i], l.cfg.SplineOrder)
		for o := 0; o < l.cfg.OutFeatures; o++ {
			var v float64
			for j, bj := range bases {
				v += bj * l.coefRow(o, i)[j]
			}
			out[(b*l.cfg.InFeatures+i)*l.cfg.OutFeatures+o] = v
		}
	}, l.par)
	return out
}

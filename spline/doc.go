// Copyright 2025 ClipKAN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package spline provides B-spline basis layers and networks built from
// them.
//
// # Overview
//
// This package contains:
//   - Layer: a learnable layer whose every input-output edge is a B-spline
//   - Network: a stack of layers with analytic forward and backward passes
//   - Config: layer geometry (features, grid size, spline order, range)
//
// Each layer output is a sum of univariate spline functions of the inputs.
// The spline coefficients are the trainable parameters; the knot grids can
// be re-fit to the observed input distribution during training without
// changing the functions the layer computes.
//
// # Basic Usage
//
//	import "github.com/clipkan/clipkan/spline"
//
//	func main() {
//	    hidden, _ := spline.NewLayer(spline.Config{
//	        InFeatures:  2,
//	        OutFeatures: 5,
//	        GridSize:    5,
//	        SplineOrder: 3,
//	    })
//	    output, _ := spline.NewLayer(spline.Config{
//	        InFeatures:  5,
//	        OutFeatures: 1,
//	        GridSize:    5,
//	        SplineOrder: 3,
//	    })
//
//	    model, _ := spline.NewNetwork(hidden, output)
//	    rng := rand.New(rand.NewSource(1))
//	    _ = model.InitRandom(rng, 0.1)
//
//	    y, _ := model.Forward(x) // x is a (batch, 2) matrix
//	    _ = y
//	}
//
// # Training
//
// The backward pass is layer-local and analytic: ForwardTrace records the
// per-layer inputs, BackwardTrace consumes them to accumulate coefficient
// gradients and propagate input gradients.
//
//	acts, _ := model.ForwardTrace(x)
//	loss, dOut := criterion(acts.Output, targets)
//	_, _ = model.BackwardTrace(acts, dOut)
//	optimizer.Step()
//
// # Grid Updates
//
// UpdateGrids re-places each layer's knots from a sample of inputs, blending
// quantile-based and uniform spacing, and re-fits the coefficients so the
// layer keeps computing the same functions on the new grid:
//
//	_ = model.UpdateGrids(batch, 0.01)
package spline

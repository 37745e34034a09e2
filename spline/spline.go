// Copyright 2025 ClipKAN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package spline

import (
	"github.com/clipkan/clipkan/internal/param"
	"github.com/clipkan/clipkan/internal/spline"
)

// Param represents a trainable parameter: a named, shaped block of values
// with a matching gradient buffer.
type Param = param.Param

// NewParam creates a zero-valued parameter with the given shape.
func NewParam(name string, shape ...int) (*Param, error) {
	return param.New(name, shape...)
}

// Config describes the geometry of a spline layer.
type Config = spline.Config

// Layer is a learnable layer whose every input-output edge is a univariate
// B-spline function.
type Layer = spline.Layer

// NewLayer creates a layer with a uniform knot grid over Config.GridRange
// and zero coefficients.
//
// Example:
//
//	layer, err := spline.NewLayer(spline.Config{
//	    InFeatures:  2,
//	    OutFeatures: 5,
//	    GridSize:    5,
//	    SplineOrder: 3,
//	    GridRange:   [2]float64{-1, 1},
//	})
func NewLayer(cfg Config) (*Layer, error) {
	return spline.NewLayer(cfg)
}

// Network stacks spline layers, checking that adjacent feature counts
// match.
type Network = spline.Network

// Activations holds the per-layer inputs recorded by a traced forward pass,
// ready for the matching backward pass.
type Activations = spline.Activations

// NewNetwork creates a network from the given layers in order.
//
// Example:
//
//	hidden, _ := spline.NewLayer(spline.Config{InFeatures: 2, OutFeatures: 5})
//	output, _ := spline.NewLayer(spline.Config{InFeatures: 5, OutFeatures: 1})
//	model, err := spline.NewNetwork(hidden, output)
func NewNetwork(layers ...*Layer) (*Network, error) {
	return spline.NewNetwork(layers...)
}

// BasisFunctions evaluates all B-spline basis functions of the given order
// on the knot grid at x, via the Cox-de Boor recursion.
func BasisFunctions(x float64, grid []float64, order int) []float64 {
	return spline.BasisFunctions(x, grid, order)
}

// BasisDerivatives evaluates the first derivatives of the basis functions
// of the given order at x.
func BasisDerivatives(x float64, grid []float64, order int) []float64 {
	return spline.BasisDerivatives(x, grid, order)
}

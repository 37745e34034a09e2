// Copyright 2025 ClipKAN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the gradient-based optimizers used to train
// spline networks.
//
// # Overview
//
// This package contains:
//   - ClipSGD: gradient descent with an adaptive, norm-clipped step size
//   - SGD: stochastic gradient descent with momentum
//   - AdamW: Adam with decoupled weight decay
//   - Optimizer interface shared by all of them
//
// # Basic Usage
//
//	import (
//	    "github.com/clipkan/clipkan/optim"
//	    "github.com/clipkan/clipkan/spline"
//	)
//
//	func main() {
//	    layer, _ := spline.NewLayer(spline.Config{InFeatures: 2, OutFeatures: 1})
//	    model, _ := spline.NewNetwork(layer)
//
//	    optimizer, _ := optim.NewClipSGD(optim.ClipGroup{
//	        Params: model.Params(),
//	        Config: optim.ClipConfig{
//	            LR:    0.1,
//	            Gamma: 1.0,
//	            Delta: 0.01,
//	        },
//	    })
//
//	    // Training loop
//	    for epoch := range 10 {
//	        optimizer.ZeroGrad()
//	        // ... forward pass, loss, backward pass fill the gradients ...
//	        optimizer.Step()
//	    }
//	}
//
// # ClipSGD
//
// ClipSGD scales each parameter group's step by the clipped inverse of the
// group's gradient norm:
//
//	h = lr * clip(gamma/|g|, delta, 1)
//
// Small gradients take the full learning rate; large gradients are damped in
// proportion to their norm, never below lr*delta. A group whose gradient
// norm is exactly zero takes no step at all.
//
//	optimizer, err := optim.NewClipSGD(
//	    optim.ClipGroup{
//	        Name:   "hidden",
//	        Params: hidden.Params(),
//	        Config: optim.ClipConfig{LR: 0.1, Gamma: 0.5, Delta: 0.01},
//	    },
//	    optim.ClipGroup{
//	        Name:   "output",
//	        Params: output.Params(),
//	        Config: optim.ClipConfig{LR: 0.05, Gamma: 0.5, Delta: 0.01},
//	    },
//	)
//
// # Baselines
//
// SGD (stochastic gradient descent with momentum):
//
//	optimizer, err := optim.NewSGD(
//	    model.Params(),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
//
// AdamW (Adam with decoupled weight decay):
//
//	optimizer, err := optim.NewAdamW(
//	    model.Params(),
//	    optim.AdamWConfig{
//	        LR:          0.001,
//	        WeightDecay: 0.01,
//	    },
//	)
package optim

// Copyright 2025 ClipKAN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/clipkan/clipkan/internal/optim"
	"github.com/clipkan/clipkan/internal/param"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// ClipSGD (adaptive norm-clipped gradient descent)

// ClipSGD represents gradient descent with an adaptive, norm-clipped step
// size per parameter group.
type ClipSGD = optim.ClipSGD

// ClipConfig contains configuration for the ClipSGD optimizer.
type ClipConfig = optim.ClipConfig

// ClipGroup binds a set of parameters to one ClipConfig. The clipped step
// size is computed from the joint gradient norm of the group.
type ClipGroup = optim.ClipGroup

// NewClipSGD creates a new ClipSGD optimizer over one or more parameter
// groups.
//
// Example:
//
//	optimizer, err := optim.NewClipSGD(optim.ClipGroup{
//	    Params: model.Params(),
//	    Config: optim.ClipConfig{
//	        LR:    0.1,
//	        Gamma: 1.0,
//	        Delta: 0.01,
//	    },
//	})
func NewClipSGD(groups ...ClipGroup) (*ClipSGD, error) {
	return optim.NewClipSGD(groups...)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer, err := optim.NewSGD(
//	    model.Params(),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(params []*param.Param, config SGDConfig) (*SGD, error) {
	return optim.NewSGD(params, config)
}

// AdamW (Adam with decoupled weight decay)

// AdamW represents the AdamW optimizer.
type AdamW = optim.AdamW

// AdamWConfig contains configuration for the AdamW optimizer.
type AdamWConfig = optim.AdamWConfig

// NewAdamW creates a new AdamW optimizer with bias correction.
//
// Example:
//
//	optimizer, err := optim.NewAdamW(
//	    model.Params(),
//	    optim.AdamWConfig{
//	        LR:          0.001,
//	        Betas:       [2]float64{0.9, 0.999},
//	        WeightDecay: 0.01,
//	    },
//	)
func NewAdamW(params []*param.Param, config AdamWConfig) (*AdamW, error) {
	return optim.NewAdamW(params, config)
}

package optim

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/clipkan/clipkan/internal/param"
)

// ClipConfig holds the per-group hyperparameters for ClipSGD.
//
// There are no implicit defaults: every field is validated at construction
// and out-of-range values fail instead of being clamped.
type ClipConfig struct {
	LR          float64 // Learning rate, must be > 0.
	Gamma       float64 // Norm threshold of the clipping rule, must be > 0.
	Delta       float64 // Minimum step-size factor, must be >= 0.
	WeightDecay float64 // Coupled L2 decay coefficient, must be >= 0.
}

// Validate reports the first hyperparameter bound the config violates.
func (c ClipConfig) Validate() error {
	if c.LR <= 0 {
		return errors.Errorf("clipsgd: learning rate must be > 0, got %v", c.LR)
	}
	if c.Gamma <= 0 {
		return errors.Errorf("clipsgd: gamma must be > 0, got %v", c.Gamma)
	}
	if c.Delta < 0 {
		return errors.Errorf("clipsgd: delta must be >= 0, got %v", c.Delta)
	}
	if c.WeightDecay < 0 {
		return errors.Errorf("clipsgd: weight decay must be >= 0, got %v", c.WeightDecay)
	}
	return nil
}

// ClipGroup is a named collection of parameters sharing one ClipConfig.
//
// The step size is computed once per group from the norm of the concatenated
// group gradient, so clipping behavior depends on how callers group
// parameters (one group per network vs. one per layer). That granularity is
// a deliberate caller decision; ClipSGD imposes no default grouping.
type ClipGroup struct {
	Name   string
	Params []*param.Param
	Config ClipConfig
}

// ClipSGD implements gradient descent with a bounded, norm-adaptive step
// size.
//
// Update rule, per group with gradient norm g:
//
//	h     = lr * clip(gamma/g, delta, 1)
//	param = param - h * (gradient + weight_decay * param)
//
// The clip interpolates between a fixed minimum step factor delta (large
// gradients, aggressive clipping) and a maximum factor of 1 (small
// gradients, no clipping). The effective step length is bounded by lr while
// keeping a strictly positive minimum progress rate of lr*delta, which is
// the property the convergence analysis of this rule depends on.
//
// The weight-decay term does not influence the norm used for clipping: the
// norm is taken over the raw gradients, then decay is folded into each
// per-parameter update.
type ClipSGD struct {
	groups []ClipGroup
}

// NewClipSGD creates a ClipSGD over the given parameter groups.
// Construction fails if any group's config violates a hyperparameter bound;
// this is the optimizer's only validated failure surface.
func NewClipSGD(groups ...ClipGroup) (*ClipSGD, error) {
	for _, g := range groups {
		if err := g.Config.Validate(); err != nil {
			return nil, errors.Wrapf(err, "group %q", g.Name)
		}
	}
	return &ClipSGD{groups: append([]ClipGroup(nil), groups...)}, nil
}

// Step applies one update to every parameter of every group, in place.
//
// A group whose gradient norm is exactly zero is left untouched this step
// (step size forced to 0, avoiding a division by zero).
//
// When weight decay is configured the gradient buffers themselves are
// overwritten with the decayed gradients; callers must not reuse the
// pre-decay gradients after Step returns.
func (o *ClipSGD) Step() {
	for gi := range o.groups {
		g := &o.groups[gi]
		h := g.Config.LR * clipFactor(g.Config, gradNorm(g.Params))
		if h == 0 {
			continue
		}
		for _, p := range g.Params {
			grad := p.Grad()
			if g.Config.WeightDecay > 0 {
				floats.AddScaled(grad, g.Config.WeightDecay, p.Data())
			}
			floats.AddScaled(p.Data(), -h, grad)
		}
	}
}

// ZeroGrad clears gradients for all parameters of all groups.
func (o *ClipSGD) ZeroGrad() {
	for _, g := range o.groups {
		for _, p := range g.Params {
			p.ZeroGrad()
		}
	}
}

// gradNorm returns the Euclidean norm of the concatenation of all gradient
// vectors in params.
func gradNorm(params []*param.Param) float64 {
	var ss float64
	for _, p := range params {
		grad := p.Grad()
		ss += floats.Dot(grad, grad)
	}
	return math.Sqrt(ss)
}

// clipFactor returns clip(gamma/norm, delta, 1), or 0 for a zero norm.
func clipFactor(c ClipConfig, norm float64) float64 {
	if norm == 0 {
		return 0
	}
	return clamp(c.Gamma/norm, c.Delta, 1)
}

package spline

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/clipkan/clipkan/internal/param"
)

// Network is a stack of spline layers, each layer's outputs feeding the next
// layer's inputs. It is plain composition of the single layer type: the
// network adds no weights of its own.
type Network struct {
	layers []*Layer
}

// NewNetwork builds a network from the given layers, checking that adjacent
// feature dimensions line up.
func NewNetwork(layers ...*Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, errors.New("spline: network needs at least one layer")
	}
	for i := 1; i < len(layers); i++ {
		prev, next := layers[i-1].cfg.OutFeatures, layers[i].cfg.InFeatures
		if prev != next {
			return nil, errors.Errorf("spline: layer %d outputs %d features but layer %d expects %d",
				i-1, prev, i, next)
		}
	}
	return &Network{layers: layers}, nil
}

// Layers returns the stacked layers, outermost first.
func (n *Network) Layers() []*Layer { return n.layers }

// Params returns all trainable parameters, layer by layer.
func (n *Network) Params() []*param.Param {
	var ps []*param.Param
	for _, l := range n.layers {
		ps = append(ps, l.Params()...)
	}
	return ps
}

// InitRandom gives every layer's splines a random initial shape.
func (n *Network) InitRandom(rng *rand.Rand, scale float64) error {
	for i, l := range n.layers {
		if err := l.InitRandom(rng, scale); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Forward evaluates the network on a batch of shape (batch, InFeatures of
// the first layer).
func (n *Network) Forward(x *mat.Dense) (*mat.Dense, error) {
	var err error
	for i, l := range n.layers {
		x, err = l.Forward(x)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return x, nil
}

// Activations caches the per-layer inputs of one forward pass so the
// backward pass does not have to recompute them.
type Activations struct {
	inputs []*mat.Dense
	Output *mat.Dense
}

// ForwardTrace evaluates the network like Forward while recording each
// layer's input for a subsequent BackwardTrace.
func (n *Network) ForwardTrace(x *mat.Dense) (*Activations, error) {
	a := &Activations{inputs: make([]*mat.Dense, len(n.layers))}
	cur := x
	var err error
	for i, l := range n.layers {
		a.inputs[i] = cur
		cur, err = l.Forward(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	a.Output = cur
	return a, nil
}

// BackwardTrace chains the layer backward passes over a recorded forward
// trace, accumulating coefficient gradients everywhere and returning the
// gradient with respect to the original input.
func (n *Network) BackwardTrace(a *Activations, dOut *mat.Dense) (*mat.Dense, error) {
	var err error
	for i := len(n.layers) - 1; i >= 0; i-- {
		dOut, err = n.layers[i].Backward(a.inputs[i], dOut)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return dOut, nil
}

// Backward runs a full forward pass and then BackwardTrace. Prefer
// ForwardTrace/BackwardTrace when the forward outputs are needed too.
func (n *Network) Backward(x, dOut *mat.Dense) (*mat.Dense, error) {
	a, err := n.ForwardTrace(x)
	if err != nil {
		return nil, err
	}
	return n.BackwardTrace(a, dOut)
}

// UpdateGrids re-grids every layer from the batch, feeding each layer the
// activations the preceding layers produce for x.
func (n *Network) UpdateGrids(x *mat.Dense, margin float64) error {
	cur := x
	for i, l := range n.layers {
		if err := l.UpdateGrid(cur, margin); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		var err error
		cur, err = l.Forward(cur)
		if err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Regularization sums the layer regularization scores.
func (n *Network) Regularization(activationWeight, entropyWeight float64) float64 {
	var total float64
	for _, l := range n.layers {
		total += l.Regularization(activationWeight, entropyWeight)
	}
	return total
}

// RegularizationGrad accumulates every layer's regularization gradient.
func (n *Network) RegularizationGrad(activationWeight, entropyWeight float64) {
	for _, l := range n.layers {
		l.RegularizationGrad(activationWeight, entropyWeight)
	}
}

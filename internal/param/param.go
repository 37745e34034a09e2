// Package param provides the trainable parameter type shared by layers and
// optimizers.
//
// A Param is a named flat float64 vector with an optional logical shape and a
// gradient buffer of the same length. Layers own their Params and populate
// gradients during the backward pass; optimizers read the gradients and update
// the data in place. Neither side retains references to tensors handed in by
// the caller beyond the duration of a call.
package param

import (
	"github.com/pkg/errors"
)

// Param is a trainable parameter: a flat data vector, a gradient vector of
// the same length, and a logical shape used only for bookkeeping.
//
// The gradient buffer is allocated eagerly and zeroed, so an "absent"
// gradient is simply an all-zero one. Callers that run an optimizer step
// before populating gradients get a well-defined no-op for that parameter.
type Param struct {
	name  string
	shape []int
	data  []float64
	grad  []float64
}

// New creates a zero-initialized parameter with the given logical shape.
// The flat length is the product of the shape dimensions.
func New(name string, shape ...int) (*Param, error) {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, errors.Errorf("param %q: shape dimensions must be > 0, got %v", name, shape)
		}
		n *= d
	}
	return &Param{
		name:  name,
		shape: append([]int(nil), shape...),
		data:  make([]float64, n),
		grad:  make([]float64, n),
	}, nil
}

// FromSlice creates a parameter that adopts the given data slice.
// The slice length must match the product of the shape dimensions.
func FromSlice(name string, data []float64, shape ...int) (*Param, error) {
	p, err := New(name, shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(p.data) {
		return nil, errors.Errorf("param %q: data length %d does not match shape %v (%d elements)",
			name, len(data), shape, len(p.data))
	}
	p.data = data
	return p, nil
}

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Shape returns the logical shape. The returned slice must not be mutated.
func (p *Param) Shape() []int { return p.shape }

// Size returns the flat element count.
func (p *Param) Size() int { return len(p.data) }

// Data returns the flat parameter values. The slice aliases the parameter's
// storage: writes through it mutate the parameter.
func (p *Param) Data() []float64 { return p.data }

// Grad returns the flat gradient buffer, aliasing the parameter's storage.
//
// Backward passes accumulate into this buffer; call ZeroGrad before each
// backward pass to avoid carrying gradients across iterations.
func (p *Param) Grad() []float64 { return p.grad }

// ZeroGrad resets the gradient buffer to zero in place.
func (p *Param) ZeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
}

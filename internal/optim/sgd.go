package optim

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/clipkan/clipkan/internal/param"
)

// SGD implements Stochastic Gradient Descent with optional momentum, the
// non-adaptive baseline of the benchmark suite.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param    = param - lr * velocity
//
// Weight decay, when configured, is coupled: it is added to the gradient
// before the momentum update, matching torch.optim.SGD.
type SGD struct {
	params     []*param.Param
	cfg        SGDConfig
	velocities map[*param.Param][]float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR          float64 // Learning rate (default: 0.01).
	Momentum    float64 // Momentum factor (default: 0, range [0, 1)).
	WeightDecay float64 // Coupled L2 decay coefficient (default: 0).
}

// NewSGD creates an SGD optimizer over params. Zero-valued config fields
// take the documented defaults; out-of-range values fail validation.
func NewSGD(params []*param.Param, cfg SGDConfig) (*SGD, error) {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	if cfg.LR < 0 {
		return nil, errors.Errorf("sgd: learning rate must be > 0, got %v", cfg.LR)
	}
	if cfg.Momentum < 0 || cfg.Momentum >= 1 {
		return nil, errors.Errorf("sgd: momentum must be in [0, 1), got %v", cfg.Momentum)
	}
	if cfg.WeightDecay < 0 {
		return nil, errors.Errorf("sgd: weight decay must be >= 0, got %v", cfg.WeightDecay)
	}
	return &SGD{
		params:     params,
		cfg:        cfg,
		velocities: make(map[*param.Param][]float64),
	}, nil
}

// Step performs a single optimization step, updating all parameters in
// place. With weight decay enabled the gradient buffers are overwritten with
// the decayed gradients.
func (s *SGD) Step() {
	for _, p := range s.params {
		grad := p.Grad()
		if s.cfg.WeightDecay > 0 {
			floats.AddScaled(grad, s.cfg.WeightDecay, p.Data())
		}

		update := grad
		if s.cfg.Momentum > 0 {
			v, ok := s.velocities[p]
			if !ok {
				v = make([]float64, p.Size())
				s.velocities[p] = v
			}
			floats.Scale(s.cfg.Momentum, v)
			floats.Add(v, grad)
			update = v
		}
		floats.AddScaled(p.Data(), -s.cfg.LR, update)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 { return s.cfg.LR }

// SetLR updates the learning rate, for external schedules.
func (s *SGD) SetLR(lr float64) { s.cfg.LR = lr }

package optim

import (
	"math"

	"github.com/pkg/errors"

	"github.com/clipkan/clipkan/internal/param"
)

// AdamW implements Adam with decoupled weight decay, the adaptive baseline
// of the benchmark suite.
//
// Update rule:
//
//	m_t   = beta1 * m_{t-1} + (1-beta1) * gradient      // First moment
//	v_t   = beta2 * v_{t-1} + (1-beta2) * gradient^2    // Second moment
//	m_hat = m_t / (1 - beta1^t)                         // Bias correction
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * (m_hat / (sqrt(v_hat) + eps) + weight_decay * param)
//
// Unlike SGD and ClipSGD, the decay term never touches the gradient or the
// moment estimates (Loshchilov & Hutter, "Decoupled Weight Decay
// Regularization", ICLR 2019).
type AdamW struct {
	params []*param.Param
	cfg    AdamWConfig
	t      int
	m      map[*param.Param][]float64
	v      map[*param.Param][]float64
}

// AdamWConfig holds configuration for the AdamW optimizer.
type AdamWConfig struct {
	LR          float64    // Learning rate (default: 0.001).
	Betas       [2]float64 // Moment decay coefficients (default: [0.9, 0.999]).
	Eps         float64    // Numerical stability term (default: 1e-8).
	WeightDecay float64    // Decoupled decay coefficient (default: 0).
}

// NewAdamW creates an AdamW optimizer over params. Zero-valued config fields
// take the documented defaults; out-of-range values fail validation.
func NewAdamW(params []*param.Param, cfg AdamWConfig) (*AdamW, error) {
	if cfg.LR == 0 {
		cfg.LR = 0.001
	}
	if cfg.Betas[0] == 0 {
		cfg.Betas[0] = 0.9
	}
	if cfg.Betas[1] == 0 {
		cfg.Betas[1] = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}

	if cfg.LR < 0 {
		return nil, errors.Errorf("adamw: learning rate must be > 0, got %v", cfg.LR)
	}
	if cfg.Betas[0] < 0 || cfg.Betas[0] >= 1 {
		return nil, errors.Errorf("adamw: beta1 must be in [0, 1), got %v", cfg.Betas[0])
	}
	if cfg.Betas[1] < 0 || cfg.Betas[1] >= 1 {
		return nil, errors.Errorf("adamw: beta2 must be in [0, 1), got %v", cfg.Betas[1])
	}
	if cfg.Eps < 0 {
		return nil, errors.Errorf("adamw: eps must be > 0, got %v", cfg.Eps)
	}
	if cfg.WeightDecay < 0 {
		return nil, errors.Errorf("adamw: weight decay must be >= 0, got %v", cfg.WeightDecay)
	}
	return &AdamW{
		params: params,
		cfg:    cfg,
		m:      make(map[*param.Param][]float64),
		v:      make(map[*param.Param][]float64),
	}, nil
}

// Step performs a single optimization step, updating all parameters in place.
func (a *AdamW) Step() {
	a.t++
	bc1 := 1 - math.Pow(a.cfg.Betas[0], float64(a.t))
	bc2 := 1 - math.Pow(a.cfg.Betas[1], float64(a.t))

	for _, p := range a.params {
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, p.Size())
			a.m[p] = m
			a.v[p] = make([]float64, p.Size())
		}
		v := a.v[p]

		data, grad := p.Data(), p.Grad()
		for i, g := range grad {
			m[i] = a.cfg.Betas[0]*m[i] + (1-a.cfg.Betas[0])*g
			v[i] = a.cfg.Betas[1]*v[i] + (1-a.cfg.Betas[1])*g*g
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			data[i] -= a.cfg.LR * (mHat/(math.Sqrt(vHat)+a.cfg.Eps) + a.cfg.WeightDecay*data[i])
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *AdamW) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *AdamW) GetLR() float64 { return a.cfg.LR }

var (
	_ Optimizer = (*ClipSGD)(nil)
	_ Optimizer = (*SGD)(nil)
	_ Optimizer = (*AdamW)(nil)
)

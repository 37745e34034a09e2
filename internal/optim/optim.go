// Package optim implements the optimization algorithms benchmarked in this
// repository.
//
// This package provides:
//   - ClipSGD: gradient descent with a norm-clipped, group-level step size
//   - SGD: Stochastic Gradient Descent with momentum (baseline)
//   - AdamW: Adam with decoupled weight decay (baseline)
//
// Design inspired by PyTorch's torch.optim but adapted for Go with explicit
// configuration structs and constructor-time validation.
//
// Example usage:
//
//	group := optim.ClipGroup{
//	    Name:   "model",
//	    Params: model.Params(),
//	    Config: optim.ClipConfig{LR: 1, Gamma: 0.5, Delta: 0.5},
//	}
//	optimizer, err := optim.NewClipSGD(group)
//	if err != nil {
//	    return err
//	}
//
//	// Training loop
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    loss := model.Backward(batch) // populates parameter gradients
//	    optimizer.Step()
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update parameters in place based on gradients populated by an
// external backward pass. They borrow the parameter and gradient buffers for
// the duration of a call and retain no other references to caller data.
//
// Optimizers are not safe for concurrent use: a single logical thread must
// drive Step/ZeroGrad for any given optimizer, which is a caller
// precondition, not something the implementations guard against.
type Optimizer interface {
	// Step applies one gradient update to all parameters, in place.
	//
	// Gradients must already be populated; running Step on parameters whose
	// gradients were never written is a well-defined no-op (gradient buffers
	// are zero-initialized), but reflects a caller bug, not a condition Step
	// detects.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Call before each backward pass to prevent gradient accumulation from
	// previous iterations.
	ZeroGrad()
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}

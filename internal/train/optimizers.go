package train

import (
	"github.com/pkg/errors"

	"github.com/clipkan/clipkan/internal/experiment"
	"github.com/clipkan/clipkan/internal/optim"
	"github.com/clipkan/clipkan/internal/param"
)

// NewOptimizer instantiates the optimizer an experiment run asks for, bound
// to the given parameters. ClipSGD gets a single group holding all
// parameters; callers wanting finer grouping construct the optimizer
// directly.
func NewOptimizer(run experiment.Run, params []*param.Param) (optim.Optimizer, error) {
	switch run.Algorithm {
	case "clipsgd":
		return optim.NewClipSGD(optim.ClipGroup{
			Name:   run.Name,
			Params: params,
			Config: optim.ClipConfig{
				LR:          run.LR,
				Gamma:       run.Gamma,
				Delta:       run.Delta,
				WeightDecay: run.WeightDecay,
			},
		})
	case "sgd":
		return optim.NewSGD(params, optim.SGDConfig{
			LR:          run.LR,
			Momentum:    run.Momentum,
			WeightDecay: run.WeightDecay,
		})
	case "adamw":
		return optim.NewAdamW(params, optim.AdamWConfig{
			LR:          run.LR,
			WeightDecay: run.WeightDecay,
		})
	default:
		return nil, errors.Errorf("train: unknown algorithm %q", run.Algorithm)
	}
}

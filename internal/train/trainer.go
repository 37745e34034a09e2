// Package train implements the training loop that drives a spline network
// with one of the benchmark optimizers over a dataset.
//
// The loop owns every tensor it passes into the model and the optimizer for
// the duration of a step: gradients are produced by the network's backward
// pass, consumed by the optimizer's Step, and zeroed before the next batch.
package train

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/clipkan/clipkan/internal/dataset"
	"github.com/clipkan/clipkan/internal/experiment"
	"github.com/clipkan/clipkan/internal/optim"
	"github.com/clipkan/clipkan/internal/spline"
)

// Config holds the training loop settings.
type Config struct {
	Epochs    int // Number of passes over the training set, must be > 0.
	BatchSize int // Examples per optimization step, must be > 0.

	// GridUpdateEvery re-grids the network from the current batch every
	// that many optimization steps. 0 disables re-gridding.
	GridUpdateEvery int
	// GridMargin is the padding passed to the grid update
	// (default: 0.01).
	GridMargin float64

	// RegActivation and RegEntropy weight the spline regularization term
	// added to the loss. Both 0 disables the term.
	RegActivation float64
	RegEntropy    float64

	// EvalBatchSize bounds the batches used for test-set evaluation
	// (default: 1024).
	EvalBatchSize int

	Seed     int64 // Shuffling seed (default: 1).
	Progress bool  // Render a per-epoch progress bar on stdout.
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.GridMargin == 0 {
		c.GridMargin = 0.01
	}
	if c.EvalBatchSize == 0 {
		c.EvalBatchSize = 1024
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	return c
}

// Validate reports the first setting out of bounds.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return errors.Errorf("train: epochs must be > 0, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("train: batch size must be > 0, got %d", c.BatchSize)
	}
	if c.GridUpdateEvery < 0 {
		return errors.Errorf("train: grid update interval must be >= 0, got %d", c.GridUpdateEvery)
	}
	if c.RegActivation < 0 || c.RegEntropy < 0 {
		return errors.Errorf("train: regularization weights must be >= 0, got %v and %v",
			c.RegActivation, c.RegEntropy)
	}
	return nil
}

// Trainer runs epochs of mini-batch training for one model/optimizer pair.
type Trainer struct {
	model *spline.Network
	opt   optim.Optimizer
	cfg   Config
}

// New creates a trainer. The optimizer must already be bound to the model's
// parameters; the trainer only sequences the calls.
func New(model *spline.Network, opt optim.Optimizer, cfg Config) (*Trainer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Trainer{model: model, opt: opt, cfg: cfg}, nil
}

// Fit trains for the configured number of epochs, appending one EpochStats
// per epoch to rec. testSet may be nil to skip evaluation.
func (t *Trainer) Fit(trainSet, testSet *dataset.Dataset, rec *experiment.Record) error {
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	steps := 0

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		perm := trainSet.Shuffled(rng)
		numBatches := (len(perm) + t.cfg.BatchSize - 1) / t.cfg.BatchSize

		var bar *progressbar.ProgressBar
		if t.cfg.Progress {
			bar = progressbar.NewOptions(numBatches,
				progressbar.OptionSetDescription(describeEpoch(epoch, t.cfg.Epochs)),
				progressbar.OptionShowCount(),
			)
		}

		var lossSum, accSum float64
		gridUpdates := 0
		for off := 0; off < len(perm); off += t.cfg.BatchSize {
			end := min(off+t.cfg.BatchSize, len(perm))
			x, labels := trainSet.Batch(perm[off:end])

			if t.cfg.GridUpdateEvery > 0 && steps%t.cfg.GridUpdateEvery == 0 {
				if err := t.model.UpdateGrids(x, t.cfg.GridMargin); err != nil {
					return errors.Wrapf(err, "epoch %d: grid update", epoch)
				}
				gridUpdates++
			}

			t.opt.ZeroGrad()
			acts, err := t.model.ForwardTrace(x)
			if err != nil {
				return errors.Wrapf(err, "epoch %d: forward", epoch)
			}
			loss, dLogits, err := SoftmaxCrossEntropy(acts.Output, labels)
			if err != nil {
				return errors.Wrapf(err, "epoch %d", epoch)
			}
			if _, err := t.model.BackwardTrace(acts, dLogits); err != nil {
				return errors.Wrapf(err, "epoch %d: backward", epoch)
			}
			if t.cfg.RegActivation > 0 || t.cfg.RegEntropy > 0 {
				loss += t.model.Regularization(t.cfg.RegActivation, t.cfg.RegEntropy)
				t.model.RegularizationGrad(t.cfg.RegActivation, t.cfg.RegEntropy)
			}
			t.opt.Step()
			steps++

			acc, err := Accuracy(acts.Output, labels)
			if err != nil {
				return errors.Wrapf(err, "epoch %d", epoch)
			}
			weight := float64(end-off) / float64(len(perm))
			lossSum += loss * weight
			accSum += acc * weight

			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}

		stats := experiment.EpochStats{
			Epoch:        epoch,
			TrainLoss:    lossSum,
			TrainAcc:     accSum,
			GridUpdates:  gridUpdates,
			DurationSecs: time.Since(start).Seconds(),
		}
		if testSet != nil {
			testLoss, testAcc, err := t.Evaluate(testSet)
			if err != nil {
				return errors.Wrapf(err, "epoch %d: evaluation", epoch)
			}
			stats.TestLoss = testLoss
			stats.TestAcc = testAcc
		}
		rec.Append(stats)

		klog.V(1).Infof("train: epoch %d/%d loss=%.4f acc=%.4f test_acc=%.4f (%.1fs)",
			epoch, t.cfg.Epochs, stats.TrainLoss, stats.TrainAcc, stats.TestAcc, stats.DurationSecs)
	}
	return nil
}

// Evaluate computes mean loss and accuracy over a dataset without touching
// gradients or grids.
func (t *Trainer) Evaluate(ds *dataset.Dataset) (float64, float64, error) {
	idx := make([]int, ds.Len())
	for i := range idx {
		idx[i] = i
	}

	var lossSum, accSum float64
	for off := 0; off < len(idx); off += t.cfg.EvalBatchSize {
		end := min(off+t.cfg.EvalBatchSize, len(idx))
		x, labels := ds.Batch(idx[off:end])

		logits, err := t.model.Forward(x)
		if err != nil {
			return 0, 0, err
		}
		loss, _, err := SoftmaxCrossEntropy(logits, labels)
		if err != nil {
			return 0, 0, err
		}
		acc, err := Accuracy(logits, labels)
		if err != nil {
			return 0, 0, err
		}
		weight := float64(end-off) / float64(len(idx))
		lossSum += loss * weight
		accSum += acc * weight
	}
	return lossSum, accSum, nil
}

func describeEpoch(epoch, total int) string {
	return fmt.Sprintf("epoch %d/%d", epoch, total)
}

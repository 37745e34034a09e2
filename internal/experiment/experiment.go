// Package experiment holds the bookkeeping types for optimizer benchmark
// runs: per-run hyperparameters, per-epoch metric series and YAML-defined
// run suites.
//
// The package contains no algorithmic logic; it only aggregates what the
// training loop reports.
package experiment

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// EpochStats is one epoch's worth of metrics.
type EpochStats struct {
	Epoch        int     `json:"epoch"`
	TrainLoss    float64 `json:"train_loss"`
	TrainAcc     float64 `json:"train_acc"`
	TestLoss     float64 `json:"test_loss,omitempty"`
	TestAcc      float64 `json:"test_acc,omitempty"`
	GridUpdates  int     `json:"grid_updates,omitempty"`
	DurationSecs float64 `json:"duration_secs,omitempty"`
}

// Record aggregates one run: which algorithm with which hyperparameters,
// and the metric series it produced.
type Record struct {
	Algorithm   string             `json:"algorithm"`
	Hyperparams map[string]float64 `json:"hyperparams,omitempty"`
	Epochs      []EpochStats       `json:"epochs"`
}

// NewRecord creates an empty record for the given algorithm.
func NewRecord(algorithm string, hyperparams map[string]float64) *Record {
	return &Record{Algorithm: algorithm, Hyperparams: hyperparams}
}

// Append adds one epoch's stats to the series.
func (r *Record) Append(s EpochStats) {
	r.Epochs = append(r.Epochs, s)
}

// BestTestAcc returns the highest test accuracy seen across epochs, or 0
// for an empty record.
func (r *Record) BestTestAcc() float64 {
	var best float64
	for _, e := range r.Epochs {
		if e.TestAcc > best {
			best = e.TestAcc
		}
	}
	return best
}

// FinalTrainLoss returns the last epoch's training loss, or 0 for an empty
// record.
func (r *Record) FinalTrainLoss() float64 {
	if len(r.Epochs) == 0 {
		return 0
	}
	return r.Epochs[len(r.Epochs)-1].TrainLoss
}

// Save writes the record as indented JSON.
func (r *Record) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "experiment: failed to encode record")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "experiment: failed to write %s", path)
}

// LoadRecord reads a record saved with Save.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "experiment: failed to decode %s", path)
	}
	return &r, nil
}

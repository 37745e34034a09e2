package experiment

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Run defines one benchmark run in a suite file.
type Run struct {
	Name      string `yaml:"name"`
	Algorithm string `yaml:"algorithm"` // "clipsgd", "sgd" or "adamw"

	// Optimizer hyperparameters; which ones apply depends on Algorithm.
	LR          float64 `yaml:"lr"`
	Gamma       float64 `yaml:"gamma,omitempty"`
	Delta       float64 `yaml:"delta,omitempty"`
	Momentum    float64 `yaml:"momentum,omitempty"`
	WeightDecay float64 `yaml:"weight_decay,omitempty"`

	Epochs    int   `yaml:"epochs"`
	BatchSize int   `yaml:"batch_size"`
	Seed      int64 `yaml:"seed,omitempty"`
}

// Suite is a YAML-defined collection of runs over one dataset.
type Suite struct {
	DataDir string `yaml:"data_dir"`
	Runs    []Run  `yaml:"runs"`
}

// knownAlgorithms mirrors the optimizers the trainer can instantiate.
var knownAlgorithms = map[string]bool{
	"clipsgd": true,
	"sgd":     true,
	"adamw":   true,
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "experiment: failed to parse %s", path)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "experiment: invalid suite %s", path)
	}
	return &s, nil
}

// Validate checks the structural fields of every run. Optimizer
// hyperparameter bounds are left to the optimizer constructors, which own
// those rules.
func (s *Suite) Validate() error {
	if len(s.Runs) == 0 {
		return errors.New("suite defines no runs")
	}
	seen := make(map[string]bool, len(s.Runs))
	for i, r := range s.Runs {
		if r.Name == "" {
			return errors.Errorf("run %d has no name", i)
		}
		if seen[r.Name] {
			return errors.Errorf("duplicate run name %q", r.Name)
		}
		seen[r.Name] = true
		if !knownAlgorithms[r.Algorithm] {
			return errors.Errorf("run %q: unknown algorithm %q", r.Name, r.Algorithm)
		}
		if r.Epochs <= 0 {
			return errors.Errorf("run %q: epochs must be > 0, got %d", r.Name, r.Epochs)
		}
		if r.BatchSize <= 0 {
			return errors.Errorf("run %q: batch size must be > 0, got %d", r.Name, r.BatchSize)
		}
	}
	return nil
}

// Hyperparams flattens the run's optimizer settings for the result record.
func (r Run) Hyperparams() map[string]float64 {
	h := map[string]float64{"lr": r.LR}
	switch r.Algorithm {
	case "clipsgd":
		h["gamma"] = r.Gamma
		h["delta"] = r.Delta
	case "sgd":
		h["momentum"] = r.Momentum
	}
	if r.WeightDecay != 0 {
		h["weight_decay"] = r.WeightDecay
	}
	return h
}

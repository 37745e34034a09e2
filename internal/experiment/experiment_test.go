package experiment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkan/clipkan/internal/experiment"
)

func TestRecord_RoundTrip(t *testing.T) {
	r := experiment.NewRecord("clipsgd", map[string]float64{"lr": 1, "gamma": 0.5})
	r.Append(experiment.EpochStats{Epoch: 1, TrainLoss: 2.3, TrainAcc: 0.11, TestAcc: 0.12})
	r.Append(experiment.EpochStats{Epoch: 2, TrainLoss: 1.7, TrainAcc: 0.43, TestAcc: 0.40})

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, r.Save(path))

	loaded, err := experiment.LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)

	assert.InDelta(t, 0.40, loaded.BestTestAcc(), 1e-12)
	assert.InDelta(t, 1.7, loaded.FinalTrainLoss(), 1e-12)
}

func TestRecord_EmptyAccessors(t *testing.T) {
	r := experiment.NewRecord("sgd", nil)
	assert.Zero(t, r.BestTestAcc())
	assert.Zero(t, r.FinalTrainLoss())
}

const suiteYAML = `
data_dir: testdata/mnist
runs:
  - name: clip-baseline
    algorithm: clipsgd
    lr: 1.0
    gamma: 0.5
    delta: 0.5
    epochs: 10
    batch_size: 64
  - name: adamw-baseline
    algorithm: adamw
    lr: 0.001
    weight_decay: 0.01
    epochs: 10
    batch_size: 64
`

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite(t *testing.T) {
	s, err := experiment.LoadSuite(writeSuite(t, suiteYAML))
	require.NoError(t, err)

	assert.Equal(t, "testdata/mnist", s.DataDir)
	require.Len(t, s.Runs, 2)
	assert.Equal(t, "clipsgd", s.Runs[0].Algorithm)
	assert.InDelta(t, 0.5, s.Runs[0].Gamma, 1e-12)

	h := s.Runs[0].Hyperparams()
	assert.InDelta(t, 0.5, h["delta"], 1e-12)
	h = s.Runs[1].Hyperparams()
	assert.InDelta(t, 0.01, h["weight_decay"], 1e-12)
	assert.NotContains(t, h, "gamma")
}

func TestLoadSuite_Invalid(t *testing.T) {
	tests := []struct {
		name, yaml, wantErr string
	}{
		{"no runs", "data_dir: x\nruns: []\n", "no runs"},
		{"unknown algorithm", `
runs:
  - name: r1
    algorithm: lbfgs
    epochs: 1
    batch_size: 1
`, "unknown algorithm"},
		{"duplicate names", `
runs:
  - {name: r1, algorithm: sgd, epochs: 1, batch_size: 1}
  - {name: r1, algorithm: sgd, epochs: 1, batch_size: 1}
`, "duplicate"},
		{"bad epochs", `
runs:
  - {name: r1, algorithm: sgd, epochs: 0, batch_size: 1}
`, "epochs"},
		{"bad batch size", `
runs:
  - {name: r1, algorithm: sgd, epochs: 1, batch_size: -2}
`, "batch size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := experiment.LoadSuite(writeSuite(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

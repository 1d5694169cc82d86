package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 0.01, cfg.Reconciliation.Tolerance)
	assert.Equal(t, 100, cfg.Reconciliation.CheckpointEvery)
	assert.Equal(t, 0.05, cfg.Insight.AnomalyRateThreshold)
	assert.Equal(t, 0.10, cfg.Insight.ConfidenceDropAlert)
	assert.Equal(t, 0.10, cfg.Insight.ZeroOutcomeThreshold)
	assert.Equal(t, 0.50, cfg.Insight.ConcentrationThreshold)
	assert.Equal(t, 3, cfg.Resolution.PatternMinMembers)
	assert.Equal(t, 0.2, cfg.Density.LearningRate)
}

func TestParse_OverridesKeepOtherDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
reconciliation:
  tolerance: 0.5
insight:
  anomaly_rate_threshold: 0.2
`))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Reconciliation.Tolerance)
	assert.Equal(t, 100, cfg.Reconciliation.CheckpointEvery)
	assert.Equal(t, 0.2, cfg.Insight.AnomalyRateThreshold)
	assert.Equal(t, 0.10, cfg.Insight.ConfidenceDropAlert)
	assert.Equal(t, 3, cfg.Resolution.PatternMinMembers)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("reconciliation:\n  tolerence: 0.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tolerence")
}

func TestParse_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"negative tolerance", "reconciliation:\n  tolerance: -1\n", "tolerance"},
		{"zero tolerance", "reconciliation:\n  tolerance: 0\n", "tolerance"},
		{"threshold above one", "insight:\n  anomaly_rate_threshold: 1.5\n", "anomaly_rate_threshold"},
		{"zero pattern members", "resolution:\n  pattern_min_members: 0\n", "pattern_min_members"},
		{"zero learning rate", "density:\n  learning_rate: 0\n", "learning_rate"},
		{"negative checkpoint", "reconciliation:\n  checkpoint_every: -5\n", "checkpoint_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Path, tt.path)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synaptic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("density:\n  learning_rate: 0.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Density.LearningRate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "a.b: bad", (&ValidationError{Path: "a.b", Message: "bad"}).Error())
	assert.Equal(t, "bad", (&ValidationError{Message: "bad"}).Error())
}

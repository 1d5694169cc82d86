package harness

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
)

func TestRun_Minimal(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "minimal", result.Scenario)
	assert.Equal(t, "id-1", result.Outcome.BatchID)
	assert.True(t, result.Outcome.Persisted)
	require.Len(t, result.Outcome.Investigations, 1)
	assert.Equal(t, resolve.CauseDataError, result.Outcome.Investigations[0].RootCause.Classification)
	assert.Len(t, result.Views, len(insight.Personas))
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	scenario.Expect.RootCauses["D1"] = "logic_error"

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{"root_causes.D1: expected logic_error, got data_error"}, result.Errors)
}

func TestRun_ViewsComeFromStore(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "five_entity_batch.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	for _, p := range insight.Personas {
		want := insight.RouteToPersona(result.Outcome.Analysis, p)
		assert.Equal(t, len(want.Insights), len(result.Views[p].Insights), "persona %s", p)
	}
	assert.Nil(t, result.Views[insight.PersonaRep].Summary)
	assert.NotNil(t, result.Views[insight.PersonaAdmin].Summary)
}

func TestRun_InvalidConfigOverride(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario + "config: {density: {learning_rate: 0}}\n"))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario minimal")
}

func TestRun_CanceledContext(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New().Run(ctx, scenario)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "five_entity_batch.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, Snapshot(first), Snapshot(second))
	assert.Equal(t, first.Outcome.Analysis, second.Outcome.Analysis)
}

func TestRun_WithLogger(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	var buf bytes.Buffer
	h := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	_, err = h.Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "scenario complete")
	assert.Contains(t, buf.String(), "batch complete")
}

// TestScenarioDirectory runs every scenario under testdata/scenarios. These
// double as reference examples of the scenario format.
func TestScenarioDirectory(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

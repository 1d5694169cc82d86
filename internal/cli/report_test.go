package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDatabase runs the sample batch into a fresh database as B1.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "synaptic.db")
	_, _, err := executeCommand(t, "run", "testdata/batch.yaml", "--batch-id", "B1", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestReport_MissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "none.db")

	_, stderr, err := executeCommand(t, "report", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E002]: database not found")
}

func TestReport_RequiresDB(t *testing.T) {
	_, _, err := executeCommand(t, "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestReport_ListBatches(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "B1  tenant=T1  entities=5")
	assert.Contains(t, stdout, "disputes=3")
}

func TestReport_ListByTenant(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "--tenant", "T1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "B1")

	stdout, _, err = executeCommand(t, "report", "--db", dbPath, "--tenant", "other")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No batches stored.")
}

func TestReport_ListJSON(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "B1", resp.Data[0]["batch_id"])
	assert.Equal(t, "T1", resp.Data[0]["tenant_id"])
}

func TestReport_FullBatch(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "B1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batch B1 (tenant T1)")
	assert.Contains(t, stdout, "Findings:")
	assert.Contains(t, stdout, "X2/0  logic_divergence")
	assert.Contains(t, stdout, "Disputes:")
	assert.Contains(t, stdout, "D4  data_error")
	assert.Contains(t, stdout, "Insights:")
}

func TestReport_FullBatchJSON(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "B1", "--format", "json")
	require.NoError(t, err)

	status, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", status)
	for _, key := range []string{"batch", "reconciliation", "investigations", "patterns", "analysis"} {
		assert.Contains(t, data, key)
	}
}

func TestReport_PersonaView(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "B1", "--persona", "rep")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batch B1, rep view")
	assert.NotContains(t, stdout, "Concordance")

	stdout, _, err = executeCommand(t, "report", "--db", dbPath, "B1", "--persona", "admin")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batch B1, admin view")
	assert.Contains(t, stdout, "Concordance")
}

func TestReport_PersonaViewJSON(t *testing.T) {
	dbPath := seedDatabase(t)

	stdout, _, err := executeCommand(t, "report", "--db", dbPath, "B1", "--persona", "manager", "--format", "json")
	require.NoError(t, err)

	status, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "manager", data["persona"])
	assert.Equal(t, "B1", data["batch_id"])
	assert.NotNil(t, data["summary"])
}

func TestReport_UnknownBatch(t *testing.T) {
	dbPath := seedDatabase(t)

	_, stderr, err := executeCommand(t, "report", "--db", dbPath, "B9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E002]: batch not found: B9")

	_, stderr, err = executeCommand(t, "report", "--db", dbPath, "B9", "--persona", "rep")
	require.Error(t, err)
	assert.Contains(t, stderr, "batch not found: B9")
}

func TestReport_InvalidPersona(t *testing.T) {
	dbPath := seedDatabase(t)

	_, stderr, err := executeCommand(t, "report", "--db", dbPath, "B1", "--persona", "ceo")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "invalid persona")
}

func TestReport_PersonaNeedsBatch(t *testing.T) {
	dbPath := seedDatabase(t)

	_, stderr, err := executeCommand(t, "report", "--db", dbPath, "--persona", "rep")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "--persona requires a batch id")
}

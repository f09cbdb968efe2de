package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

func TestStatsCmd_ShowsConfiguration(t *testing.T) {
	setupTestEnv(t)

	out, err := runCommand(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "engine status")
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "static")
}

func TestStatsCmd_WithDocuments(t *testing.T) {
	tmp := setupTestEnv(t)
	docs := writeDocs(t, tmp)

	out, err := runCommand(t, "stats", "--docs", docs, "--format", "json")

	require.NoError(t, err)
	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 3, info.DocumentCount)
	assert.Equal(t, 3, info.SemanticCount)
	assert.Greater(t, info.TermCount, 0)
	assert.InDelta(t, 0.5, info.SemanticWeight, 1e-9)
}

func TestStatsCmd_CalibrationReport(t *testing.T) {
	setupTestEnv(t)

	for i := 0; i < 3; i++ {
		_, err := runCommand(t, "feedback", "vacation policy", "0.9", "0.6", "--type", "policy_lookup")
		require.NoError(t, err)
	}

	out, err := runCommand(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "calibration")
	assert.Contains(t, out, "policy_lookup: 3 points")
	assert.Contains(t, out, "bin 9:")
}

func TestStatsCmd_JSONWeights(t *testing.T) {
	setupTestEnv(t)

	out, err := runCommand(t, "stats", "--format", "json")

	require.NoError(t, err)
	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.InDelta(t, 1.0, info.SemanticWeight+info.LexicalWeight+info.RerankWeight, 0.01)
}

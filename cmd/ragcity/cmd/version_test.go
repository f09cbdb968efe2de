package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deesatzed/newragcity-sub001/pkg/version"
)

func TestVersionCmd_TextOutput(t *testing.T) {
	setupTestEnv(t)

	out, err := runCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "ragcity")
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	setupTestEnv(t)

	out, err := runCommand(t, "version", "--format", "json")

	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

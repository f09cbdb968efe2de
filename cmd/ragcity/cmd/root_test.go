package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestEnv isolates HOME, XDG_CONFIG_HOME, and the working directory so
// commands see only default configuration and a fresh feedback ledger.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
	return tmp
}

// writeDocs writes a small JSON-lines corpus and returns its path.
func writeDocs(t *testing.T, dir string) string {
	t.Helper()
	docs := `{"id": "pol-1", "content": "Employees accrue 20 vacation days per year. Unused vacation days carry over up to 5 days.", "title": "Vacation Policy"}
{"id": "proc-1", "content": "To submit an expense report, open the finance portal, attach receipts, and submit for approval.", "title": "Expense Procedure"}
{"id": "fact-1", "content": "The office wifi network is named CorpNet and the guest network is CorpGuest.", "title": "Office Network"}
`
	path := filepath.Join(dir, "docs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(docs), 0o644))
	return path
}

// runCommand executes the root command with the given args and returns its
// combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	setupTestEnv(t)

	out, err := runCommand(t)

	require.NoError(t, err)
	for _, sub := range []string{"index", "search", "feedback", "stats", "version"} {
		require.Contains(t, out, sub, fmt.Sprintf("help should list the %s command", sub))
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	setupTestEnv(t)

	_, err := runCommand(t, "frobnicate")

	require.Error(t, err)
}

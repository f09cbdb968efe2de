package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfig_ReloadsOnChange(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".ragcity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 10\n"), 0o644))

	w, err := WatchConfig(context.Background(), dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 33\n"), 0o644))

	select {
	case cfg := <-w.Configs():
		assert.Equal(t, 33, cfg.Search.TopK)
	case <-time.After(3 * time.Second):
		t.Fatal("no config reload observed")
	}
}

func TestWatchConfig_InvalidEditReportsError(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".ragcity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 10\n"), 0o644))

	w, err := WatchConfig(context.Background(), dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	// Weights that no longer sum to 1.0 fail validation.
	require.NoError(t, os.WriteFile(path, []byte("search:\n  semantic_weight: 0.9\n"), 0o644))

	select {
	case reloadErr := <-w.Errors():
		assert.Error(t, reloadErr)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload error observed")
	}
}

func TestWatchConfig_IgnoresUnrelatedFiles(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	w, err := WatchConfig(context.Background(), dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	select {
	case <-w.Configs():
		t.Fatal("unrelated file should not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := WatchConfig(context.Background(), t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

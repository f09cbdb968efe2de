package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

// isolateUserConfig points the user config at an empty temp directory so
// tests never read the developer's real config.
func isolateUserConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.3, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.2, cfg.Search.RerankWeight)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 100, cfg.Search.MaxTopK)
	assert.True(t, cfg.Search.ExpansionEnabled)
	assert.True(t, cfg.Search.RerankingEnabled)

	assert.Equal(t, "memory", cfg.Lexical.Backend)
	assert.Equal(t, 1.2, cfg.Lexical.K1)
	assert.Equal(t, 0.75, cfg.Lexical.B)

	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "hnsw", cfg.Semantic.Backend)
	assert.Equal(t, "http://localhost:9659", cfg.Reranker.Endpoint)

	assert.Equal(t, 30, cfg.Calibration.WindowDays)
	assert.Equal(t, 10, cfg.Calibration.MinSamples)
	assert.Equal(t, 0.1, cfg.Calibration.BinWidth)
	assert.Equal(t, 0.7, cfg.Calibration.Conservatism)

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFilesUsesDefaults(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_ProjectConfigOverrides(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	content := `
search:
  semantic_weight: 0.6
  lexical_weight: 0.25
  rerank_weight: 0.15
  top_k: 20
lexical:
  backend: bleve
embeddings:
  provider: openai
  model: text-embedding-3-small
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcity.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.25, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.15, cfg.Search.RerankWeight)
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, "bleve", cfg.Lexical.Backend)
	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 1.2, cfg.Lexical.K1)
	assert.Equal(t, 30, cfg.Calibration.WindowDays)
}

func TestLoad_UserConfigThenProjectConfig(t *testing.T) {
	userDir := isolateUserConfig(t)

	userCfgDir := filepath.Join(userDir, "ragcity")
	require.NoError(t, os.MkdirAll(userCfgDir, 0o755))
	userYAML := "search:\n  top_k: 25\nlogging:\n  level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(userCfgDir, "config.yaml"), []byte(userYAML), 0o644))

	projectDir := t.TempDir()
	projectYAML := "logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".ragcity.yml"), []byte(projectYAML), 0o644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)

	// Project config wins over user config; user config wins over defaults.
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Search.TopK)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcity.yaml"),
		[]byte("logging:\n  level: warn\n"), 0o644))

	t.Setenv("RAGCITY_LOG_LEVEL", "debug")
	t.Setenv("RAGCITY_SEMANTIC_WEIGHT", "0.4")
	t.Setenv("RAGCITY_LEXICAL_WEIGHT", "0.4")
	t.Setenv("RAGCITY_RERANK_WEIGHT", "0.2")
	t.Setenv("RAGCITY_RERANKING_ENABLED", "false")
	t.Setenv("RAGCITY_EMBEDDINGS_PROVIDER", "openai")
	t.Setenv("RAGCITY_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.4, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.4, cfg.Search.LexicalWeight)
	assert.False(t, cfg.Search.RerankingEnabled)
	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcity.yaml"),
		[]byte("search: [not a mapping"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeConfigInvalid, ragerrors.GetCode(err))
	assert.False(t, ragerrors.IsRetryable(err))
}

func TestLoad_InvalidSettingsCarryConfigCode(t *testing.T) {
	isolateUserConfig(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcity.yaml"),
		[]byte("search:\n  top_k: -5\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeConfigInvalid, ragerrors.GetCode(err))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.Search.SemanticWeight = 0.9 }},
		{"negative weight", func(c *Config) {
			c.Search.SemanticWeight = -0.2
			c.Search.LexicalWeight = 1.0
		}},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"max_top_k below top_k", func(c *Config) { c.Search.MaxTopK = 5 }},
		{"bad timeout", func(c *Config) { c.Search.Timeout = "fast" }},
		{"negative k1", func(c *Config) { c.Lexical.K1 = -1 }},
		{"b above one", func(c *Config) { c.Lexical.B = 1.5 }},
		{"unknown lexical backend", func(c *Config) { c.Lexical.Backend = "postgres" }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "ollama" }},
		{"unknown semantic backend", func(c *Config) { c.Semantic.Backend = "faiss" }},
		{"zero window", func(c *Config) { c.Calibration.WindowDays = 0 }},
		{"bin width above one", func(c *Config) { c.Calibration.BinWidth = 2 }},
		{"conservatism above one", func(c *Config) { c.Calibration.Conservatism = 1.5 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_WeightToleranceAccepted(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SemanticWeight = 0.505
	require.NoError(t, cfg.Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout())
	assert.Equal(t, 30*time.Second, cfg.RerankerTimeout())

	cfg.Search.Timeout = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.SearchTimeout())

	// Unparseable values fall back to the default.
	cfg.Search.Timeout = "soon"
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout())
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolateUserConfig(t)

	cfg := NewConfig()
	cfg.Search.TopK = 42
	cfg.Logging.Format = "json"

	dir := t.TempDir()
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".ragcity.yaml")))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Search.TopK)
	assert.Equal(t, "json", loaded.Logging.Format)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ragcity.yaml"), []byte("version: 1\n"), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_NoMarkerReturnsStart(t *testing.T) {
	dir := t.TempDir()
	found, err := FindProjectRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, found)
}

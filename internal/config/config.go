// Package config loads and validates the ragcity configuration. Settings are
// applied in order of increasing precedence: hardcoded defaults, the user
// config (~/.config/ragcity/config.yaml), the project config (.ragcity.yaml),
// and finally RAGCITY_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

// weightSumTolerance bounds how far the three fusion weights may drift
// from summing to exactly 1.0.
const weightSumTolerance = 0.01

// ProjectConfigName is the project-level config file name. A .yml variant
// is also accepted when loading.
const ProjectConfigName = ".ragcity.yaml"

// Config is the complete ragcity configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Lexical     LexicalConfig     `yaml:"lexical" json:"lexical"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Semantic    SemanticConfig    `yaml:"semantic" json:"semantic"`
	Reranker    RerankerConfig    `yaml:"reranker" json:"reranker"`
	Calibration CalibrationConfig `yaml:"calibration" json:"calibration"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// SearchConfig configures hybrid retrieval and fusion.
type SearchConfig struct {
	// SemanticWeight, LexicalWeight, and RerankWeight control score fusion.
	// They must sum to 1.0 within a small tolerance.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	LexicalWeight  float64 `yaml:"lexical_weight" json:"lexical_weight"`
	RerankWeight   float64 `yaml:"rerank_weight" json:"rerank_weight"`

	// TopK is the default result count; MaxTopK caps per-query requests.
	TopK    int `yaml:"top_k" json:"top_k"`
	MaxTopK int `yaml:"max_top_k" json:"max_top_k"`

	// Timeout bounds a single search end to end, e.g. "5s".
	Timeout string `yaml:"timeout" json:"timeout"`

	// CacheSize is the number of cached search responses.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	ExpansionEnabled bool `yaml:"expansion_enabled" json:"expansion_enabled"`
	RerankingEnabled bool `yaml:"reranking_enabled" json:"reranking_enabled"`
}

// LexicalConfig configures the BM25 index.
type LexicalConfig struct {
	// Backend selects the index implementation: "memory" or "bleve".
	Backend string `yaml:"backend" json:"backend"`

	// K1 controls term-frequency saturation; B controls length normalization.
	K1 float64 `yaml:"k1" json:"k1"`
	B  float64 `yaml:"b" json:"b"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "static" (offline hash embeddings) or
	// "openai" (any OpenAI-compatible endpoint).
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`

	// BaseURL overrides the OpenAI-compatible endpoint. The API key is taken
	// from RAGCITY_OPENAI_API_KEY or OPENAI_API_KEY, never from files.
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"-" json:"-"`
}

// SemanticConfig configures the vector backend.
type SemanticConfig struct {
	// Backend selects the vector store: "hnsw" (in-process graph) or
	// "chromem" (persistent collection).
	Backend string `yaml:"backend" json:"backend"`

	// Path is the chromem persistence directory. Empty keeps the collection
	// in memory.
	Path string `yaml:"path" json:"path"`

	// Collection names the chromem collection.
	Collection string `yaml:"collection" json:"collection"`
}

// RerankerConfig configures the reranking model service.
type RerankerConfig struct {
	// Endpoint is the reranker service base URL. The heuristic reranker is
	// used when the service is unreachable.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Model    string `yaml:"model" json:"model"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// CalibrationConfig configures confidence calibration.
type CalibrationConfig struct {
	// WindowDays is the feedback lookback window.
	WindowDays int `yaml:"window_days" json:"window_days"`

	// MinSamples is the feedback count below which calibration is skipped.
	MinSamples int `yaml:"min_samples" json:"min_samples"`

	// BinWidth is the confidence bin width, e.g. 0.1 for ten bins.
	BinWidth float64 `yaml:"bin_width" json:"bin_width"`

	// Conservatism is the fraction of the full bin correction applied.
	Conservatism float64 `yaml:"conservatism" json:"conservatism"`

	// FeedbackPath is the SQLite feedback ledger. Empty keeps feedback in
	// memory for the life of the process.
	FeedbackPath string `yaml:"feedback_path" json:"feedback_path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			SemanticWeight:   0.5,
			LexicalWeight:    0.3,
			RerankWeight:     0.2,
			TopK:             10,
			MaxTopK:          100,
			Timeout:          "5s",
			CacheSize:        512,
			ExpansionEnabled: true,
			RerankingEnabled: true,
		},
		Lexical: LexicalConfig{
			Backend: "memory",
			K1:      1.2,
			B:       0.75,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "",
			Dimensions: 0, // provider default
		},
		Semantic: SemanticConfig{
			Backend:    "hnsw",
			Collection: "documents",
		},
		Reranker: RerankerConfig{
			Endpoint: "http://localhost:9659",
			Model:    "reranker-small",
			Timeout:  "30s",
		},
		Calibration: CalibrationConfig{
			WindowDays:   30,
			MinSamples:   10,
			BinWidth:     0.1,
			Conservatism: 0.7,
			FeedbackPath: defaultFeedbackPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultFeedbackPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ragcity", "feedback.db")
	}
	return filepath.Join(home, ".ragcity", "feedback.db")
}

// GetUserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory layout.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragcity", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ragcity", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragcity", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("load user config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective configuration for a project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, ragerrors.Wrap(ragerrors.ErrCodeConfigInvalid, fmt.Errorf("invalid configuration: %w", err)).
			WithSuggestion("run 'ragcity init' to write a valid starting config")
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectConfigName, ".ragcity.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	// No project config is fine.
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ragerrors.Wrap(ragerrors.ErrCodeConfigNotFound, fmt.Errorf("read config file %s: %w", path, err))
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ragerrors.Wrap(ragerrors.ErrCodeConfigInvalid, fmt.Errorf("parse config file %s: %w", path, err)).
			WithDetail("file", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies non-zero values from other into c. Boolean toggles are
// merged only when the section carrying them was present, detected through a
// sibling field; yaml.Unmarshal cannot distinguish absent from false.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.RerankWeight != 0 {
		c.Search.RerankWeight = other.Search.RerankWeight
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.MaxTopK != 0 {
		c.Search.MaxTopK = other.Search.MaxTopK
	}
	if other.Search.Timeout != "" {
		c.Search.Timeout = other.Search.Timeout
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}
	if other.Search.TopK != 0 || other.Search.SemanticWeight != 0 {
		c.Search.ExpansionEnabled = other.Search.ExpansionEnabled
		c.Search.RerankingEnabled = other.Search.RerankingEnabled
	}

	if other.Lexical.Backend != "" {
		c.Lexical.Backend = other.Lexical.Backend
	}
	if other.Lexical.K1 != 0 {
		c.Lexical.K1 = other.Lexical.K1
	}
	if other.Lexical.B != 0 {
		c.Lexical.B = other.Lexical.B
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BaseURL != "" {
		c.Embeddings.BaseURL = other.Embeddings.BaseURL
	}

	if other.Semantic.Backend != "" {
		c.Semantic.Backend = other.Semantic.Backend
	}
	if other.Semantic.Path != "" {
		c.Semantic.Path = other.Semantic.Path
	}
	if other.Semantic.Collection != "" {
		c.Semantic.Collection = other.Semantic.Collection
	}

	if other.Reranker.Endpoint != "" {
		c.Reranker.Endpoint = other.Reranker.Endpoint
	}
	if other.Reranker.Model != "" {
		c.Reranker.Model = other.Reranker.Model
	}
	if other.Reranker.Timeout != "" {
		c.Reranker.Timeout = other.Reranker.Timeout
	}

	if other.Calibration.WindowDays != 0 {
		c.Calibration.WindowDays = other.Calibration.WindowDays
	}
	if other.Calibration.MinSamples != 0 {
		c.Calibration.MinSamples = other.Calibration.MinSamples
	}
	if other.Calibration.BinWidth != 0 {
		c.Calibration.BinWidth = other.Calibration.BinWidth
	}
	if other.Calibration.Conservatism != 0 {
		c.Calibration.Conservatism = other.Calibration.Conservatism
	}
	if other.Calibration.FeedbackPath != "" {
		c.Calibration.FeedbackPath = other.Calibration.FeedbackPath
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
}

// applyEnvOverrides applies RAGCITY_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGCITY_SEMANTIC_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("RAGCITY_LEXICAL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 && w <= 1 {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("RAGCITY_RERANK_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 && w <= 1 {
			c.Search.RerankWeight = w
		}
	}
	if v := os.Getenv("RAGCITY_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.TopK = k
		}
	}

	if v := os.Getenv("RAGCITY_LEXICAL_BACKEND"); v != "" {
		c.Lexical.Backend = v
	}
	if v := os.Getenv("RAGCITY_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("RAGCITY_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("RAGCITY_EMBEDDINGS_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("RAGCITY_OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}

	if v := os.Getenv("RAGCITY_SEMANTIC_BACKEND"); v != "" {
		c.Semantic.Backend = v
	}
	if v := os.Getenv("RAGCITY_RERANKER_ENDPOINT"); v != "" {
		c.Reranker.Endpoint = v
	}
	if v := os.Getenv("RAGCITY_RERANKING_ENABLED"); v != "" {
		c.Search.RerankingEnabled = parseBool(v)
	}
	if v := os.Getenv("RAGCITY_EXPANSION_ENABLED"); v != "" {
		c.Search.ExpansionEnabled = parseBool(v)
	}

	if v := os.Getenv("RAGCITY_FEEDBACK_PATH"); v != "" {
		c.Calibration.FeedbackPath = v
	}
	if v := os.Getenv("RAGCITY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RAGCITY_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// SearchTimeout returns the parsed search timeout.
func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// RerankerTimeout returns the parsed reranker request timeout.
func (c *Config) RerankerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Reranker.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate checks the configuration and returns the first violation found.
func (c *Config) Validate() error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"search.semantic_weight", c.Search.SemanticWeight},
		{"search.lexical_weight", c.Search.LexicalWeight},
		{"search.rerank_weight", c.Search.RerankWeight},
	} {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", w.name, w.value)
		}
	}

	sum := c.Search.SemanticWeight + c.Search.LexicalWeight + c.Search.RerankWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("fusion weights must sum to 1.0, got %.2f", sum)
	}

	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.MaxTopK < c.Search.TopK {
		return fmt.Errorf("search.max_top_k must be at least top_k, got %d", c.Search.MaxTopK)
	}
	if _, err := time.ParseDuration(c.Search.Timeout); err != nil {
		return fmt.Errorf("search.timeout is not a duration: %w", err)
	}

	if c.Lexical.K1 < 0 {
		return fmt.Errorf("lexical.k1 must be non-negative, got %f", c.Lexical.K1)
	}
	if c.Lexical.B < 0 || c.Lexical.B > 1 {
		return fmt.Errorf("lexical.b must be between 0 and 1, got %f", c.Lexical.B)
	}
	if !oneOf(c.Lexical.Backend, "memory", "bleve") {
		return fmt.Errorf("lexical.backend must be 'memory' or 'bleve', got %s", c.Lexical.Backend)
	}

	if !oneOf(c.Embeddings.Provider, "static", "openai") {
		return fmt.Errorf("embeddings.provider must be 'static' or 'openai', got %s", c.Embeddings.Provider)
	}
	if !oneOf(c.Semantic.Backend, "hnsw", "chromem") {
		return fmt.Errorf("semantic.backend must be 'hnsw' or 'chromem', got %s", c.Semantic.Backend)
	}

	if c.Calibration.WindowDays <= 0 {
		return fmt.Errorf("calibration.window_days must be positive, got %d", c.Calibration.WindowDays)
	}
	if c.Calibration.MinSamples <= 0 {
		return fmt.Errorf("calibration.min_samples must be positive, got %d", c.Calibration.MinSamples)
	}
	if c.Calibration.BinWidth <= 0 || c.Calibration.BinWidth > 1 {
		return fmt.Errorf("calibration.bin_width must be in (0, 1], got %f", c.Calibration.BinWidth)
	}
	if c.Calibration.Conservatism <= 0 || c.Calibration.Conservatism > 1 {
		return fmt.Errorf("calibration.conservatism must be in (0, 1], got %f", c.Calibration.Conservatism)
	}

	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, "text", "json") {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %s", c.Logging.Format)
	}

	return nil
}

func oneOf(v string, options ...string) bool {
	v = strings.ToLower(v)
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .ragcity.yaml/.yml file. It returns startDir when nothing is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) ||
			fileExists(filepath.Join(dir, ".ragcity.yaml")) ||
			fileExists(filepath.Join(dir, ".ragcity.yml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Package cmd provides the CLI commands for ragcity.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/calibrate"
	"github.com/deesatzed/newragcity-sub001/internal/config"
	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
	"github.com/deesatzed/newragcity-sub001/internal/logging"
	"github.com/deesatzed/newragcity-sub001/internal/search"
	"github.com/deesatzed/newragcity-sub001/internal/semantic"
	"github.com/deesatzed/newragcity-sub001/internal/store"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
	"github.com/deesatzed/newragcity-sub001/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ragcity CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragcity",
		Short: "Hybrid search with calibrated confidence",
		Long: `ragcity combines BM25 keyword search and semantic retrieval
with weighted score fusion, optional cross-encoder reranking,
and feedback-driven confidence calibration.

Point it at a JSON or JSON-lines document file and search:

  ragcity search --docs docs.jsonl "vacation policy"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("ragcity version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.ragcity/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging configures slog from the loaded config, or at debug level
// with file output when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false

	if cfg, err := loadConfig(); err == nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Format = cfg.Logging.Format
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// Logging failures never block the command itself.
		return nil
	}
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command. Interrupts cancel the command context so
// long-running modes like 'search --watch' shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		slog.Error("command_failed", slog.Any("detail", ragerrors.FormatForLog(err)))
	}
	return err
}

// renderError displays err in the caller's chosen output format.
func renderError(renderer *ui.Renderer, format string, err error) {
	if strings.EqualFold(format, "json") {
		renderer.ErrorJSON(err)
		return
	}
	renderer.Error(err)
}

// projectRoot resolves the directory holding the project config, falling
// back to the working directory when no marker is found.
func projectRoot() (string, error) {
	root, err := config.FindProjectRoot(".")
	if err == nil {
		return root, nil
	}
	return os.Getwd()
}

// loadConfig resolves the project root and loads the layered configuration.
func loadConfig() (*config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// buildEngine constructs the full hybrid engine from configuration:
// lexical index, embedder, semantic backend, expander, classifier, and
// the reranking strategy. The caller owns the engine and must Close it.
func buildEngine(ctx context.Context, cfg *config.Config) (*search.Engine, error) {
	lexical, err := store.NewLexicalIndex(cfg.Lexical.Backend, store.BM25Params{
		K1: cfg.Lexical.K1,
		B:  cfg.Lexical.B,
	})
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}

	embedder, err := semantic.NewEmbedder(cfg.Embeddings.Provider, semantic.OpenAIConfig{
		APIKey:     cfg.Embeddings.APIKey,
		BaseURL:    cfg.Embeddings.BaseURL,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	backend, err := semantic.NewBackend(cfg.Semantic.Backend, cfg.Semantic.Path, cfg.Semantic.Collection, embedder, nil)
	if err != nil {
		return nil, fmt.Errorf("create semantic backend: %w", err)
	}

	opts := []search.EngineOption{
		search.WithQueryExpander(search.NewQueryExpander()),
		search.WithClassifier(search.NewCachedClassifier(search.NewPatternClassifier(), 0)),
	}
	if cfg.Search.RerankingEnabled {
		opts = append(opts, search.WithReranker(search.NewReranker(ctx, search.HTTPRerankerConfig{
			Endpoint: cfg.Reranker.Endpoint,
			Model:    cfg.Reranker.Model,
			Timeout:  cfg.RerankerTimeout(),
		})))
	}

	return search.NewEngine(lexical, backend, search.EngineConfig{
		DefaultTopK:   cfg.Search.TopK,
		MaxTopK:       cfg.Search.MaxTopK,
		SearchTimeout: cfg.SearchTimeout(),
		CacheSize:     cfg.Search.CacheSize,
		Weights: search.Weights{
			Semantic: cfg.Search.SemanticWeight,
			Lexical:  cfg.Search.LexicalWeight,
			Rerank:   cfg.Search.RerankWeight,
		},
	}, opts...)
}

// openCalibrator opens the feedback store named in the config and wraps it
// in a calibrator. An empty feedback path keeps feedback in memory for the
// lifetime of the process.
func openCalibrator(cfg *config.Config) (*calibrate.Calibrator, calibrate.FeedbackStore, error) {
	var fs calibrate.FeedbackStore
	if cfg.Calibration.FeedbackPath == "" {
		fs = calibrate.NewMemoryFeedbackStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Calibration.FeedbackPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create feedback directory: %w", err)
		}
		sq, err := calibrate.OpenSQLiteFeedbackStore(cfg.Calibration.FeedbackPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open feedback store: %w", err)
		}
		fs = sq
	}

	cal, err := calibrate.New(fs, calibrate.Config{
		WindowDays:   cfg.Calibration.WindowDays,
		MinSamples:   cfg.Calibration.MinSamples,
		BinWidth:     cfg.Calibration.BinWidth,
		Conservatism: cfg.Calibration.Conservatism,
	})
	if err != nil {
		fs.Close()
		return nil, nil, err
	}
	return cal, fs, nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/store"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <docs-file>",
		Short: "Validate and index a document file",
		Long: `Load a document file, build the lexical index, and embed every
document into the semantic backend.

With the chromem backend configured, embeddings persist to disk and
later searches reuse them. The default in-process backend embeds on
each run; index then serves as a validation and dry-run pass.

Examples:
  ragcity index docs.jsonl
  ragcity index handbook.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0])
		},
	}
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string) error {
	renderer := ui.NewRenderer(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		renderer.Error(err)
		return err
	}

	docs, err := store.LoadDocuments(path)
	if err != nil {
		renderer.Error(err)
		return err
	}

	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		renderer.Error(err)
		return err
	}
	defer engine.Close()

	start := time.Now()
	if err := engine.Index(ctx, docs); err != nil {
		renderer.Error(err)
		return err
	}
	elapsed := time.Since(start)

	stats := engine.Stats()
	slog.Info("index_complete",
		slog.Int("documents", stats.Lexical.DocumentCount),
		slog.Int("terms", stats.Lexical.TermCount),
		slog.Duration("took", elapsed))

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (%d terms, %d vectors) in %s\n",
		stats.Lexical.DocumentCount, stats.Lexical.TermCount, stats.SemanticCount,
		elapsed.Round(time.Millisecond))
	return nil
}

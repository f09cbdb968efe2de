package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/calibrate"
	"github.com/deesatzed/newragcity-sub001/internal/config"
	"github.com/deesatzed/newragcity-sub001/internal/search"
	"github.com/deesatzed/newragcity-sub001/internal/store"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

// queryTypes enumerates the calibration feedback dimensions.
var queryTypes = []search.QueryType{
	search.QueryTypePolicyLookup,
	search.QueryTypeProcedural,
	search.QueryTypeFactual,
	search.QueryTypeGeneral,
}

// statsPayload is the --format json shape: engine status plus per-type
// calibration reports.
type statsPayload struct {
	ui.StatusInfo
	Calibration []*calibrate.Report `json:"calibration,omitempty"`
}

func newStatsCmd() *cobra.Command {
	var docs string
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show engine configuration, calibration, and index statistics",
		Long: `Show the effective configuration, calibration quality per query
type, and, when a document file is given, index statistics for it.

Examples:
  ragcity stats
  ragcity stats --docs docs.jsonl
  ragcity stats --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, docs, format)
		},
	}

	cmd.Flags().StringVarP(&docs, "docs", "d", "", "Document file to index for statistics")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, docs, format string) error {
	renderer := ui.NewRenderer(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		renderError(renderer, format, err)
		return err
	}

	payload := statsPayload{
		StatusInfo: ui.StatusInfo{
			EmbedderModel:  embedderLabel(cfg),
			LexicalBackend: cfg.Lexical.Backend,
			RerankerKind:   rerankerLabel(cfg),
			SemanticWeight: cfg.Search.SemanticWeight,
			LexicalWeight:  cfg.Search.LexicalWeight,
			RerankWeight:   cfg.Search.RerankWeight,
		},
	}

	if docs != "" {
		if err := fillIndexStats(ctx, cfg, docs, &payload.StatusInfo); err != nil {
			renderError(renderer, format, err)
			return err
		}
	}

	if reports, err := calibrationReports(ctx, cfg); err == nil {
		payload.Calibration = reports
		for _, rep := range reports {
			payload.FeedbackCount += rep.Count
		}
	}

	if strings.EqualFold(format, "json") {
		return renderer.JSON(payload)
	}
	renderer.Status(payload.StatusInfo)
	renderer.CalibrationReport(payload.Calibration)
	return nil
}

func fillIndexStats(ctx context.Context, cfg *config.Config, docs string, info *ui.StatusInfo) error {
	loaded, err := store.LoadDocuments(docs)
	if err != nil {
		return err
	}

	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Index(ctx, loaded); err != nil {
		return err
	}
	stats := engine.Stats()
	info.DocumentCount = stats.Lexical.DocumentCount
	info.TermCount = stats.Lexical.TermCount
	info.SemanticCount = stats.SemanticCount
	return nil
}

// calibrationReports builds one report per query type from the feedback
// ledger, skipping types with no history.
func calibrationReports(ctx context.Context, cfg *config.Config) ([]*calibrate.Report, error) {
	cal, fs, err := openCalibrator(cfg)
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	var reports []*calibrate.Report
	for _, qt := range queryTypes {
		rep, err := cal.Report(ctx, qt)
		if err != nil {
			return nil, err
		}
		if rep.Count > 0 {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

func embedderLabel(cfg *config.Config) string {
	if cfg.Embeddings.Provider == "openai" {
		return fmt.Sprintf("openai (%s)", cfg.Embeddings.Model)
	}
	return cfg.Embeddings.Provider
}

func rerankerLabel(cfg *config.Config) string {
	if !cfg.Search.RerankingEnabled {
		return "disabled"
	}
	if cfg.Reranker.Endpoint != "" {
		return fmt.Sprintf("model (%s), heuristic fallback", cfg.Reranker.Endpoint)
	}
	return "heuristic"
}

package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/calibrate"
	"github.com/deesatzed/newragcity-sub001/internal/config"
	"github.com/deesatzed/newragcity-sub001/internal/search"
	"github.com/deesatzed/newragcity-sub001/internal/store"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	docs     string
	limit    int
	format   string // "text", "json"
	explain  bool
	noExpand bool
	noRerank bool
	watch    bool
}

// jsonResult is the per-result shape for --format json.
type jsonResult struct {
	DocID       string                 `json:"doc_id"`
	Content     string                 `json:"content"`
	HybridScore float64                `json:"hybrid_score"`
	Semantic    float64                `json:"semantic_score"`
	Lexical     float64                `json:"lexical_score"`
	Rerank      float64                `json:"rerank_score,omitempty"`
	Reranked    bool                   `json:"reranked"`
	Confidence  *calibrate.Calibration `json:"confidence,omitempty"`
}

type jsonResponse struct {
	Query     string              `json:"query"`
	QueryType search.QueryType    `json:"query_type"`
	Results   []jsonResult        `json:"results"`
	Explain   *search.ExplainData `json:"explain,omitempty"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid query over a document file",
		Long: `Search a document file using hybrid retrieval.

Semantic and BM25 retrieval run in parallel; scores are fused with
weighted normalization, documents found by both sources get an
intersection bonus, and each result carries a calibrated confidence.

Examples:
  ragcity search --docs docs.jsonl "vacation carryover"
  ragcity search --docs docs.jsonl "how do I submit expenses" -n 5
  ragcity search --docs docs.jsonl "remote work policy" --explain
  ragcity search --docs docs.jsonl "pto accrual" --format json
  ragcity search --docs docs.jsonl "vacation carryover" --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.docs, "docs", "d", "", "Document file (JSON array or JSON lines)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Show retrieval counts, weights, and fusion decisions")
	cmd.Flags().BoolVar(&opts.noExpand, "no-expand", false, "Disable query expansion")
	cmd.Flags().BoolVar(&opts.noRerank, "no-rerank", false, "Disable reranking")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run the query when the project config changes")
	_ = cmd.MarkFlagRequired("docs")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	renderer := ui.NewRenderer(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}
	if opts.noRerank {
		// Also skips reranker construction in buildEngine.
		cfg.Search.RerankingEnabled = false
	}

	docs, err := store.LoadDocuments(opts.docs)
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}

	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}
	defer engine.Close()

	if err := engine.Index(ctx, docs); err != nil {
		renderError(renderer, opts.format, err)
		return err
	}

	cal, fs, err := openCalibrator(cfg)
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}
	defer fs.Close()

	if err := renderQuery(ctx, renderer, engine, cal, cfg, query, opts); err != nil {
		renderError(renderer, opts.format, err)
		return err
	}

	if opts.watch {
		return watchAndRerun(ctx, renderer, engine, cal, query, opts)
	}
	return nil
}

// renderQuery executes one search and renders the results with calibrated
// confidences.
func renderQuery(ctx context.Context, renderer *ui.Renderer, engine *search.Engine, cal *calibrate.Calibrator, cfg *config.Config, query string, opts searchOptions) error {
	resp, err := engine.Search(ctx, query, search.SearchOptions{
		TopK:                 opts.limit,
		EnableReranking:      cfg.Search.RerankingEnabled && !opts.noRerank,
		EnableQueryExpansion: cfg.Search.ExpansionEnabled && !opts.noExpand,
		Explain:              opts.explain,
	})
	if err != nil {
		return err
	}

	cals := make([]*calibrate.Calibration, len(resp.Results))
	for i, res := range resp.Results {
		c, err := cal.Calibrate(ctx, res, query, resp.QueryType)
		if err != nil {
			slog.Warn("confidence_calibration_skipped",
				slog.String("doc_id", res.DocID),
				slog.String("error", err.Error()))
			continue
		}
		cals[i] = c
	}

	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(resp.Results)),
		slog.String("query_type", string(resp.QueryType)))

	if strings.EqualFold(opts.format, "json") {
		return renderer.JSON(buildJSONResponse(query, resp, cals, opts.explain))
	}
	renderer.Results(query, resp, cals)
	return nil
}

// watchAndRerun re-runs the query whenever the project config is edited,
// applying updated fusion weights and BM25 parameters to the live engine.
// It blocks until ctx is cancelled.
func watchAndRerun(ctx context.Context, renderer *ui.Renderer, engine *search.Engine, cal *calibrate.Calibrator, query string, opts searchOptions) error {
	root, err := projectRoot()
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}

	watcher, err := config.WatchConfig(ctx, root, config.DefaultWatchDebounce)
	if err != nil {
		renderError(renderer, opts.format, err)
		return err
	}
	defer watcher.Close()

	slog.Info("config_watch_started", slog.String("dir", root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			slog.Warn("config_reload_rejected", slog.String("error", err.Error()))
		case cfg, ok := <-watcher.Configs():
			if !ok {
				return nil
			}
			if err := applyConfig(engine, cfg); err != nil {
				slog.Warn("config_reload_rejected", slog.String("error", err.Error()))
				continue
			}
			if err := renderQuery(ctx, renderer, engine, cal, cfg, query, opts); err != nil {
				renderError(renderer, opts.format, err)
			}
		}
	}
}

// applyConfig pushes the tunable settings from a reloaded config into a
// running engine.
func applyConfig(engine *search.Engine, cfg *config.Config) error {
	if err := engine.UpdateWeights(cfg.Search.SemanticWeight, cfg.Search.LexicalWeight, cfg.Search.RerankWeight); err != nil {
		return err
	}
	return engine.TuneParameters(cfg.Lexical.K1, cfg.Lexical.B)
}

func buildJSONResponse(query string, resp *search.Response, cals []*calibrate.Calibration, explain bool) jsonResponse {
	out := jsonResponse{
		Query:     query,
		QueryType: resp.QueryType,
		Results:   make([]jsonResult, 0, len(resp.Results)),
	}
	if explain {
		out.Explain = resp.Explain
	}
	for i, res := range resp.Results {
		jr := jsonResult{
			DocID:       res.DocID,
			Content:     res.Content,
			HybridScore: res.HybridScore,
			Semantic:    res.SemanticScore,
			Lexical:     res.LexicalScore,
			Reranked:    res.Reranked,
		}
		if res.Reranked {
			jr.Rerank = res.RerankScore
		}
		if i < len(cals) {
			jr.Confidence = cals[i]
		}
		out.Results = append(out.Results, jr)
	}
	return out
}

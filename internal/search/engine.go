package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/deesatzed/newragcity-sub001/internal/semantic"
	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// Engine combines semantic and lexical retrieval into one ranked list.
// Both sources run concurrently; either may fail without failing the query.
type Engine struct {
	lexical    store.LexicalIndex
	backend    semantic.Backend
	config     EngineConfig
	fusion     *Fusion
	expander   *QueryExpander // optional, additive query expansion
	reranker   Reranker       // optional cross-encoder refinement
	classifier Classifier     // optional query type classification
	cache      *lru.Cache[string, *Response]

	mu      sync.RWMutex
	weights Weights
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithQueryExpander sets the query expander used when a search enables
// expansion. The expanded query feeds both retrieval sources.
func WithQueryExpander(exp *QueryExpander) EngineOption {
	return func(e *Engine) {
		e.expander = exp
	}
}

// WithReranker sets the reranker applied when a search enables reranking.
func WithReranker(r Reranker) EngineOption {
	return func(e *Engine) {
		e.reranker = r
	}
}

// WithClassifier sets the query type classifier. Without one, every query
// is tagged QueryTypeGeneral.
func WithClassifier(c Classifier) EngineOption {
	return func(e *Engine) {
		e.classifier = c
	}
}

// NewEngine creates a hybrid search engine. Returns an error if a required
// dependency is nil or the configured weights are invalid.
func NewEngine(
	lexical store.LexicalIndex,
	backend semantic.Backend,
	config EngineConfig,
	opts ...EngineOption,
) (*Engine, error) {
	if lexical == nil {
		return nil, fmt.Errorf("%w: lexical index is required", ErrNilDependency)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: semantic backend is required", ErrNilDependency)
	}

	if config.DefaultTopK <= 0 {
		config.DefaultTopK = DefaultEngineConfig().DefaultTopK
	}
	if config.MaxTopK <= 0 {
		config.MaxTopK = DefaultEngineConfig().MaxTopK
	}
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = DefaultEngineConfig().SearchTimeout
	}
	if (config.Weights == Weights{}) {
		config.Weights = DefaultWeights()
	}
	if err := config.Weights.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		lexical: lexical,
		backend: backend,
		config:  config,
		fusion:  NewFusion(),
		weights: config.Weights,
	}
	if config.CacheSize > 0 {
		e.cache, _ = lru.New[string, *Response](config.CacheSize)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Index rebuilds both sources from the given documents. The lexical index
// and the semantic backend are fully replaced, so documents absent from docs
// stop being retrievable. Cached responses are invalidated.
func (e *Engine) Index(ctx context.Context, docs []*store.Document) error {
	start := time.Now()

	if err := e.lexical.BuildIndex(ctx, docs); err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}
	if err := e.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear semantic backend: %w", err)
	}
	if err := e.backend.Index(ctx, docs); err != nil {
		return fmt.Errorf("index semantic backend: %w", err)
	}

	e.purgeCache()

	slog.Info("engine_indexed",
		slog.Int("documents", len(docs)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Search executes a hybrid query. Retrieval degradation follows a strict
// policy: if one source fails the other's results are used alone; if both
// fail the response is empty, never an error. Reranker failures keep the
// pre-rerank ranking.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return &Response{Results: []*FusedResult{}, QueryType: QueryTypeGeneral}, nil
	}

	opts = e.applyDefaults(opts)
	weights := e.currentWeights()
	if opts.Weights != nil {
		if err := opts.Weights.Validate(); err != nil {
			return nil, err
		}
		weights = *opts.Weights
	}

	queryType := QueryTypeGeneral
	if e.classifier != nil {
		queryType = e.classifier.Classify(ctx, query)
	}

	key := e.cacheKey(query, opts, weights)
	if e.cache != nil && !opts.Explain {
		if cached, ok := e.cache.Get(key); ok {
			slog.Debug("search_cache_hit", slog.String("query", query))
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.SearchTimeout)
	defer cancel()

	searchQuery := query
	if opts.EnableQueryExpansion && e.expander != nil {
		searchQuery = e.expander.Expand(query)
		if searchQuery != query {
			slog.Debug("query_expanded",
				slog.String("original", query),
				slog.String("expanded", searchQuery))
		}
	}

	semResults, lexResults, semErr, lexErr := e.retrieve(ctx, searchQuery, opts.TopK*2)

	if semErr != nil && lexErr != nil {
		slog.Error("all_sources_failed",
			slog.String("query", query),
			slog.String("semantic_error", semErr.Error()),
			slog.String("lexical_error", lexErr.Error()))
		return &Response{Results: []*FusedResult{}, QueryType: queryType}, nil
	}
	if semErr != nil {
		slog.Warn("semantic_search_degraded", slog.String("error", semErr.Error()))
	}
	if lexErr != nil {
		slog.Warn("lexical_search_degraded", slog.String("error", lexErr.Error()))
	}

	fused := e.fusion.Fuse(semResults, lexResults, e.lexical.Document, weights)

	reranked := false
	if opts.EnableReranking && e.reranker != nil && len(fused) > 0 {
		reranked = e.rerank(ctx, query, fused, weights)
	}

	if len(fused) > opts.TopK {
		fused = fused[:opts.TopK]
	}

	resp := &Response{Results: fused, QueryType: queryType}
	if opts.Explain {
		resp.Explain = &ExplainData{
			Query:            query,
			ExpandedQuery:    searchQuery,
			SemanticCount:    len(semResults),
			LexicalCount:     len(lexResults),
			SemanticDegraded: semErr != nil,
			LexicalDegraded:  lexErr != nil,
			Weights:          weights,
			Reranked:         reranked,
			Duration:         time.Since(start),
		}
	}

	if e.cache != nil && !opts.Explain {
		e.cache.Add(key, resp)
	}

	slog.Debug("search_complete",
		slog.String("query", query),
		slog.String("query_type", string(queryType)),
		slog.Int("results", len(fused)),
		slog.Bool("reranked", reranked),
		slog.Duration("duration", time.Since(start)))

	return resp, nil
}

// retrieve runs the semantic and lexical searches concurrently. Each source
// captures its own error so the caller can degrade per source.
func (e *Engine) retrieve(ctx context.Context, query string, limit int) (
	semResults []*semantic.Result,
	lexResults []*store.LexicalResult,
	semErr, lexErr error,
) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		semResults, err = e.backend.Search(gctx, query, limit)
		if err != nil {
			semErr = err
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lexResults, err = e.lexical.Search(gctx, query, limit)
		if err != nil {
			lexErr = err
		}
		return nil
	})

	// Group members never return errors; Wait only fails on context
	// cancellation.
	if err := g.Wait(); err != nil {
		return nil, nil, err, err
	}
	return semResults, lexResults, semErr, lexErr
}

// rerank scores every fused candidate against the query and folds the
// scores into the hybrid ranking. Reports whether reranking was applied.
func (e *Engine) rerank(ctx context.Context, query string, fused []*FusedResult, weights Weights) bool {
	if !e.reranker.Available(ctx) {
		slog.Debug("reranker_unavailable")
		return false
	}

	documents := make([]string, len(fused))
	for i, f := range fused {
		documents[i] = f.Content
	}

	scores, err := e.reranker.Rerank(ctx, query, documents)
	if err != nil {
		slog.Warn("rerank_failed_keeping_fusion_order", slog.String("error", err.Error()))
		return false
	}
	if len(scores) != len(fused) {
		slog.Warn("rerank_score_count_mismatch",
			slog.Int("scores", len(scores)),
			slog.Int("candidates", len(fused)))
		return false
	}

	for i, f := range fused {
		f.RerankScore = scores[i]
		f.Reranked = true
	}
	e.fusion.Rescore(fused, weights)
	return true
}

// UpdateWeights replaces the engine's fusion weights. The weights must sum
// to 1.0; invalid weights reject the update and keep the current ones.
func (e *Engine) UpdateWeights(semanticW, lexicalW, rerankW float64) error {
	w := Weights{Semantic: semanticW, Lexical: lexicalW, Rerank: rerankW}
	if err := w.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.weights = w
	e.mu.Unlock()

	e.purgeCache()
	slog.Info("weights_updated",
		slog.Float64("semantic", semanticW),
		slog.Float64("lexical", lexicalW),
		slog.Float64("rerank", rerankW))
	return nil
}

// TuneParameters adjusts the lexical index's BM25 parameters. Documents
// should be re-indexed for the new length normalization to fully apply.
func (e *Engine) TuneParameters(k1, b float64) error {
	if err := e.lexical.TuneParameters(k1, b); err != nil {
		return err
	}
	e.purgeCache()
	return nil
}

// Stats returns statistics for both retrieval sources.
func (e *Engine) Stats() *EngineStats {
	return &EngineStats{
		Lexical:       e.lexical.Stats(),
		SemanticCount: e.backend.Count(),
	}
}

// Close releases both retrieval sources and the reranker.
func (e *Engine) Close() error {
	var errs []error
	if err := e.lexical.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close lexical index: %w", err))
	}
	if err := e.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close semantic backend: %w", err))
	}
	if e.reranker != nil {
		if err := e.reranker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reranker: %w", err))
		}
	}
	return errors.Join(errs...)
}

// applyDefaults fills in and clamps search options.
func (e *Engine) applyDefaults(opts SearchOptions) SearchOptions {
	if opts.TopK <= 0 {
		opts.TopK = e.config.DefaultTopK
	}
	if opts.TopK > e.config.MaxTopK {
		opts.TopK = e.config.MaxTopK
	}
	return opts
}

func (e *Engine) currentWeights() Weights {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weights
}

func (e *Engine) cacheKey(query string, opts SearchOptions, w Weights) string {
	return fmt.Sprintf("%s|%d|%t|%t|%.3f|%.3f|%.3f",
		strings.ToLower(query), opts.TopK, opts.EnableReranking, opts.EnableQueryExpansion,
		w.Semantic, w.Lexical, w.Rerank)
}

func (e *Engine) purgeCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

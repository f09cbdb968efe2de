// Package search implements hybrid retrieval: semantic and lexical results
// are fused with weighted min-max normalization, boosted when both sources
// agree, and optionally refined by a cross-encoder reranker.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// IntersectionBonus is the multiplier applied to documents retrieved by both
// the semantic and lexical source.
const IntersectionBonus = 1.2

// weightSumTolerance is the allowed deviation of the weight sum from 1.0.
const weightSumTolerance = 0.01

// ErrInvalidWeights is returned when fusion weights do not sum to 1.0.
var ErrInvalidWeights = errors.New("invalid fusion weights")

// ErrNilDependency is returned when a required engine dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Weights configures the relative importance of the three fusion sources.
// The rerank weight only contributes when reranking runs; without it the
// hybrid score is the semantic and lexical terms alone.
type Weights struct {
	Semantic float64
	Lexical  float64
	Rerank   float64
}

// DefaultWeights returns the default fusion weights.
func DefaultWeights() Weights {
	return Weights{
		Semantic: 0.5,
		Lexical:  0.3,
		Rerank:   0.2,
	}
}

// Validate checks that each weight is non-negative and the sum is 1.0
// within tolerance.
func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Lexical < 0 || w.Rerank < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidWeights)
	}
	sum := w.Semantic + w.Lexical + w.Rerank
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// FusedResult is a single hybrid search result. Semantic, lexical, and
// rerank scores are all normalized to [0, 1]; HybridScore can exceed 1.0
// when the intersection bonus applies.
type FusedResult struct {
	DocID    string
	Content  string
	Metadata map[string]any

	// SemanticScore is the min-max normalized semantic similarity.
	SemanticScore float64

	// LexicalScore is the min-max normalized BM25 score.
	LexicalScore float64

	// RerankScore is the reranker's relevance score. Only meaningful when
	// Reranked is true.
	RerankScore float64
	Reranked    bool

	// HybridScore is the weighted combination used for ranking.
	HybridScore float64

	// FoundInSemantic and FoundInLexical record which sources returned the
	// document. Both true means the intersection bonus was applied.
	FoundInSemantic bool
	FoundInLexical  bool

	// MatchedTerms contains the query terms the lexical index matched.
	MatchedTerms []string
}

// SearchOptions configures a single hybrid query.
type SearchOptions struct {
	// TopK is the maximum number of results to return (default: 10, max: 100).
	TopK int

	// EnableReranking applies the cross-encoder reranker to fused candidates.
	EnableReranking bool

	// EnableQueryExpansion expands the query with domain term groups and
	// synonyms before retrieval.
	EnableQueryExpansion bool

	// Weights overrides the engine's configured fusion weights for this query.
	Weights *Weights

	// Explain attaches fusion decision details to the response.
	Explain bool
}

// Response is the result of one hybrid query.
type Response struct {
	Results []*FusedResult

	// QueryType is the classified category of the query, used downstream
	// for confidence calibration.
	QueryType QueryType

	// Explain is populated when SearchOptions.Explain is set.
	Explain *ExplainData
}

// ExplainData records how a query was executed, for debugging.
type ExplainData struct {
	Query              string
	ExpandedQuery      string
	SemanticCount      int
	LexicalCount       int
	SemanticDegraded   bool
	LexicalDegraded    bool
	Weights            Weights
	Reranked           bool
	CacheHit           bool
	Duration           time.Duration
}

// EngineStats provides statistics about the search engine.
type EngineStats struct {
	// Lexical contains inverted-index statistics.
	Lexical *store.IndexStats

	// SemanticCount is the number of documents in the semantic backend.
	SemanticCount int
}

// EngineConfig configures the hybrid search engine.
type EngineConfig struct {
	// DefaultTopK is the default number of results (default: 10).
	DefaultTopK int

	// MaxTopK is the maximum allowed results (default: 100).
	MaxTopK int

	// Weights are the default fusion weights.
	Weights Weights

	// SearchTimeout is the maximum duration of one query (default: 5s).
	SearchTimeout time.Duration

	// CacheSize is the number of query responses kept in the LRU cache
	// (default: 512, 0 disables caching).
	CacheSize int
}

// DefaultEngineConfig returns sensible default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultTopK:   10,
		MaxTopK:       100,
		Weights:       DefaultWeights(),
		SearchTimeout: 5 * time.Second,
		CacheSize:     512,
	}
}

// QueryType is the classified category of a search query. It tags
// calibration feedback so historical corrections stay per-category.
type QueryType string

const (
	// QueryTypePolicyLookup covers questions about rules and entitlements.
	QueryTypePolicyLookup QueryType = "policy_lookup"

	// QueryTypeProcedural covers how-to and process questions.
	QueryTypeProcedural QueryType = "procedural"

	// QueryTypeFactual covers direct factual lookups (who, when, how many).
	QueryTypeFactual QueryType = "factual"

	// QueryTypeGeneral is the fallback category.
	QueryTypeGeneral QueryType = "general"
)

// Classifier assigns a query type to a search query.
type Classifier interface {
	// Classify analyzes a query and returns its category. Implementations
	// never fail; unrecognized queries map to QueryTypeGeneral.
	Classify(ctx context.Context, query string) QueryType
}

package search

import (
	"context"
	"strings"
)

// Reranker scores (query, document) pairs for fine-grained relevance.
// Cross-encoder models do this best but need an external service; the
// heuristic strategy is always available and deterministic.
type Reranker interface {
	// Rerank returns one relevance score in [0, 1] per document, in the
	// same order as the input.
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)

	// Available reports whether the reranker can serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Heuristic signal weights. Hand-tuned; kept configurable via
// HeuristicConfig rather than treated as optimal.
const (
	exactMatchWeight     = 3.0
	titleTermWeight      = 2.5
	domainKeywordWeight  = 2.0
	proximityWeight      = 1.5
	partialMatchWeight   = 1.0
	titleWindow          = 100
	proximityHorizon     = 20.0
	longDocWords         = 500
	shortDocWords        = 50
	longDocPenalty       = 0.9
	shortDocPenalty      = 0.8
)

// HeuristicConfig configures the heuristic reranker.
type HeuristicConfig struct {
	// DomainKeywords are terms whose overlap between query and document is
	// rewarded. Defaults to the package's domain vocabulary.
	DomainKeywords map[string]bool
}

// HeuristicReranker scores pairs from lexical surface signals: exact query
// matches, early-document term hits, domain keyword overlap, term proximity,
// and partial matches, dampened for very long or very short documents.
// Raw scores are min-max normalized across the batch.
type HeuristicReranker struct {
	keywords map[string]bool
}

// NewHeuristicReranker creates the heuristic strategy.
func NewHeuristicReranker(cfg HeuristicConfig) *HeuristicReranker {
	keywords := cfg.DomainKeywords
	if keywords == nil {
		keywords = DomainKeywords
	}
	return &HeuristicReranker{keywords: keywords}
}

var _ Reranker = (*HeuristicReranker)(nil)

// Rerank scores each document against the query. Never fails.
func (h *HeuristicReranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return []float64{}, nil
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryTerms := splitQueryTerms(queryLower)

	raw := make([]float64, len(documents))
	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw[i] = h.scorePair(queryLower, queryTerms, doc)
	}

	return normalizeBatch(raw), nil
}

// Available always returns true; the heuristic has no external dependency.
func (h *HeuristicReranker) Available(_ context.Context) bool {
	return true
}

// Close is a no-op.
func (h *HeuristicReranker) Close() error {
	return nil
}

// scorePair computes the raw weighted-signal score for one pair.
func (h *HeuristicReranker) scorePair(queryLower string, queryTerms []string, document string) float64 {
	docLower := strings.ToLower(document)
	docWords := strings.Fields(docLower)

	var score float64

	// Exact match of the whole query anywhere in the document.
	if queryLower != "" && strings.Contains(docLower, queryLower) {
		score += exactMatchWeight
	}

	// Terms appearing early in the document act as a title proxy.
	head := docLower
	if len(head) > titleWindow {
		head = head[:titleWindow]
	}
	for _, term := range queryTerms {
		if strings.Contains(head, term) {
			score += titleTermWeight
		}
	}

	// Domain keyword overlap between query and document.
	docTerms := make(map[string]bool, len(docWords))
	for _, w := range docWords {
		docTerms[strings.Trim(w, ".,;:!?\"'()")] = true
	}
	for _, term := range queryTerms {
		if h.keywords[term] && docTerms[term] {
			score += domainKeywordWeight
		}
	}

	// Proximity of distinct query terms within the document.
	score += proximityWeight * proximityScore(queryTerms, docWords)

	// Partial matches: individual terms found anywhere in the document.
	for _, term := range queryTerms {
		if len(term) >= 3 && strings.Contains(docLower, term) {
			score += partialMatchWeight
		}
	}

	// Length penalty keeps very long and very short documents from being
	// rewarded for incidental matches.
	switch {
	case len(docWords) > longDocWords:
		score *= longDocPenalty
	case len(docWords) < shortDocWords:
		score *= shortDocPenalty
	}

	return score
}

// proximityScore returns max(0, 1 - minDistance/20) where minDistance is the
// smallest word-position gap between occurrences of two distinct query terms.
// Returns 0 when fewer than two distinct terms appear in the document.
func proximityScore(queryTerms []string, docWords []string) float64 {
	positions := make(map[string][]int)
	want := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		want[t] = true
	}

	for pos, w := range docWords {
		w = strings.Trim(w, ".,;:!?\"'()")
		if want[w] {
			positions[w] = append(positions[w], pos)
		}
	}
	if len(positions) < 2 {
		return 0
	}

	terms := make([]string, 0, len(positions))
	for t := range positions {
		terms = append(terms, t)
	}

	minDist := -1
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			for _, a := range positions[terms[i]] {
				for _, b := range positions[terms[j]] {
					d := a - b
					if d < 0 {
						d = -d
					}
					if minDist < 0 || d < minDist {
						minDist = d
					}
				}
			}
		}
	}

	prox := 1.0 - float64(minDist)/proximityHorizon
	if prox < 0 {
		return 0
	}
	return prox
}

// normalizeBatch min-max normalizes scores to [0, 1]. When every score is
// equal there is no ordering signal, so all scores become 0.5.
func normalizeBatch(raw []float64) []float64 {
	lo, hi := raw[0], raw[0]
	for _, s := range raw[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	normalized := make([]float64, len(raw))
	if hi == lo {
		for i := range normalized {
			normalized[i] = 0.5
		}
		return normalized
	}

	for i, s := range raw {
		normalized[i] = (s - lo) / (hi - lo)
	}
	return normalized
}

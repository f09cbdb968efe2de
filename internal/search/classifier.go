package search

import (
	"context"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultClassifierCacheSize bounds the classification cache. Queries repeat
// heavily in practice, so a small LRU absorbs most of the regex work.
const DefaultClassifierCacheSize = 4096

// Compiled patterns for query classification, at package init.
var (
	// Entitlement and rules questions: "can I", "am I allowed", "is it
	// permitted", or explicit policy vocabulary.
	policyPattern = regexp.MustCompile(`(?i)\b(polic(y|ies)|guideline|rule|entitle|allowed|permitted|eligib|can i|may i)\b`)

	// Process questions: "how do I", "steps to", "process for", "submit".
	proceduralPattern = regexp.MustCompile(`(?i)\b(how (do|to|can)|steps?|process|procedure|submit|apply|request|file a)\b`)

	// Direct factual lookups: "when", "who", "how many", "how much".
	factualPattern = regexp.MustCompile(`(?i)^(what|when|who|where|which|how (many|much|long|often))\b`)
)

// PatternClassifier assigns query types with regex matching. Deterministic
// and dependency-free; always succeeds.
type PatternClassifier struct{}

// NewPatternClassifier creates a pattern-based classifier.
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{}
}

var _ Classifier = (*PatternClassifier)(nil)

// Classify determines the query type. Policy vocabulary wins over the other
// categories since entitlement questions often start with factual openers
// ("how many vacation days do I get").
func (p *PatternClassifier) Classify(_ context.Context, query string) QueryType {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryTypeGeneral
	}

	switch {
	case policyPattern.MatchString(query):
		return QueryTypePolicyLookup
	case proceduralPattern.MatchString(query):
		return QueryTypeProcedural
	case factualPattern.MatchString(query):
		return QueryTypeFactual
	default:
		return QueryTypeGeneral
	}
}

// CachedClassifier wraps a classifier with an LRU cache keyed by the
// normalized query.
type CachedClassifier struct {
	inner Classifier
	cache *lru.Cache[string, QueryType]
}

// NewCachedClassifier creates a caching wrapper. A size <= 0 uses the
// default cache size.
func NewCachedClassifier(inner Classifier, size int) *CachedClassifier {
	if size <= 0 {
		size = DefaultClassifierCacheSize
	}
	cache, _ := lru.New[string, QueryType](size)
	return &CachedClassifier{inner: inner, cache: cache}
}

var _ Classifier = (*CachedClassifier)(nil)

// Classify returns the cached type when present, otherwise delegates.
func (c *CachedClassifier) Classify(ctx context.Context, query string) QueryType {
	key := strings.ToLower(strings.TrimSpace(query))
	if qt, ok := c.cache.Get(key); ok {
		return qt
	}

	qt := c.inner.Classify(ctx, query)
	c.cache.Add(key, qt)
	return qt
}

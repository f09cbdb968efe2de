package calibrate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// Defaults substituted when a signal cannot be derived.
const (
	defaultAuthority  = 0.70
	defaultStructural = 0.70
	defaultModel      = 0.70
	defaultHistorical = 0.75
)

// Uncertainty penalty increments.
const (
	penaltyLowSemantic     = 0.3
	penaltyContentLength   = 0.2
	penaltyShortQuery      = 0.1
	penaltyMissingMetadata = 0.15
)

// Content length bounds in words; outside them relevance is discounted and
// the uncertainty penalty grows.
const (
	minContentWords = 20
	maxContentWords = 2000
)

// identifyingMetadataKeys mark a result as traceable to a concrete source.
var identifyingMetadataKeys = []string{"source", "title", "id", "section"}

// ExtractFactors derives the seven confidence factors from a fused result,
// its query, and the feedback history for the query's type. Each factor is
// computed independently.
func ExtractFactors(result *search.FusedResult, query string, history []DataPoint) ConfidenceFactors {
	queryTokens := factorTokens(query)
	contentWords := strings.Fields(result.Content)

	f := ConfidenceFactors{
		SemanticConfidence:   clamp01(result.SemanticScore),
		SourceAuthority:      metadataFactor(result.Metadata, "authority", defaultAuthority),
		ContentRelevance:     contentRelevance(queryTokens, result.Content, len(contentWords)),
		StructuralConfidence: metadataFactor(result.Metadata, "structural_confidence", defaultStructural),
		ModelConfidence:      defaultModel,
		HistoricalAccuracy:   historicalAccuracy(queryTokens, history),
	}
	if result.Reranked {
		f.ModelConfidence = clamp01(result.RerankScore)
	}

	penalty := 0.0
	if result.SemanticScore < 0.7 {
		penalty += penaltyLowSemantic
	}
	if len(contentWords) < minContentWords || len(contentWords) > maxContentWords {
		penalty += penaltyContentLength
	}
	if len(queryTokens) < 3 {
		penalty += penaltyShortQuery
	}
	if !hasIdentifyingMetadata(result.Metadata) {
		penalty += penaltyMissingMetadata
	}
	if penalty > 1.0 {
		penalty = 1.0
	}
	f.UncertaintyPenalty = penalty

	return f
}

// contentRelevance measures what share of the query's tokens appear in the
// content, discounted when the content is very short or very long.
func contentRelevance(queryTokens []string, content string, contentWords int) float64 {
	if len(queryTokens) == 0 {
		return 0.5
	}

	contentLower := strings.ToLower(content)
	shared := 0
	for _, t := range queryTokens {
		if strings.Contains(contentLower, t) {
			shared++
		}
	}

	relevance := float64(shared) / float64(len(queryTokens))
	switch {
	case contentWords < minContentWords:
		relevance *= 0.8
	case contentWords > maxContentWords:
		relevance *= 0.9
	}
	return clamp01(relevance)
}

// historicalAccuracy averages the recorded accuracy of past feedback whose
// query shares at least one token with the current query.
func historicalAccuracy(queryTokens []string, history []DataPoint) float64 {
	if len(queryTokens) == 0 || len(history) == 0 {
		return defaultHistorical
	}

	want := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		want[t] = true
	}

	sum := 0.0
	count := 0
	for _, p := range history {
		for _, t := range factorTokens(p.Query) {
			if want[t] {
				sum += p.ActualAccuracy
				count++
				break
			}
		}
	}
	if count == 0 {
		return defaultHistorical
	}
	return clamp01(sum / float64(count))
}

// metadataFactor reads a numeric metadata value in [0, 1], falling back to
// the default when absent or unparseable.
func metadataFactor(meta map[string]any, key string, fallback float64) float64 {
	raw, ok := meta[key]
	if !ok {
		return fallback
	}

	switch v := raw.(type) {
	case float64:
		return clamp01(v)
	case float32:
		return clamp01(float64(v))
	case int:
		return clamp01(float64(v))
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return clamp01(parsed)
		}
	}
	return fallback
}

func hasIdentifyingMetadata(meta map[string]any) bool {
	for _, key := range identifyingMetadataKeys {
		if _, ok := meta[key]; ok {
			return true
		}
	}
	return false
}

// factorTokens lowercases and splits on non-alphanumeric runes, dropping
// single-character fragments.
func factorTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

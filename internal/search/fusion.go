package search

import (
	"sort"

	"github.com/deesatzed/newragcity-sub001/internal/semantic"
	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// Fusion merges semantic and lexical result lists into a single ranking.
//
// Each source's scores are normalized independently (dividing by the source
// maximum, so the best hit of each source maps to 1.0), then combined as
//
//	hybrid = w_semantic*norm_semantic + w_lexical*norm_lexical
//
// Documents retrieved by both sources are multiplied by IntersectionBonus.
// The rerank weight enters later, in Fusion.Rescore, once reranker scores
// exist.
type Fusion struct{}

// NewFusion creates a fusion instance.
func NewFusion() *Fusion {
	return &Fusion{}
}

// Fuse merges the two result lists by document ID. A document missing from
// one source gets 0.0 for that source's score.
//
// Results are sorted by: HybridScore (desc) → both sources (true first) →
// LexicalScore (desc) → DocID (asc).
func (f *Fusion) Fuse(
	sem []*semantic.Result,
	lex []*store.LexicalResult,
	lexDocs func(id string) (*store.Document, bool),
	weights Weights,
) []*FusedResult {
	if len(sem) == 0 && len(lex) == 0 {
		return []*FusedResult{}
	}

	merged := make(map[string]*FusedResult, len(sem)+len(lex))

	maxSem := 0.0
	for _, r := range sem {
		result := f.getOrCreate(merged, r.DocID)
		result.Content = r.Content
		result.Metadata = r.Metadata
		result.SemanticScore = r.Score
		result.FoundInSemantic = true
		if r.Score > maxSem {
			maxSem = r.Score
		}
	}

	maxLex := 0.0
	for _, r := range lex {
		result := f.getOrCreate(merged, r.DocID)
		result.LexicalScore = r.Score
		result.MatchedTerms = r.MatchedTerms
		result.FoundInLexical = true
		if result.Content == "" && lexDocs != nil {
			if doc, ok := lexDocs(r.DocID); ok {
				result.Content = doc.Content
				result.Metadata = doc.Metadata
			}
		}
		if r.Score > maxLex {
			maxLex = r.Score
		}
	}

	// Normalize per source. A zero maximum leaves scores at 0 rather than
	// dividing by it.
	for _, r := range merged {
		if maxSem > 0 {
			r.SemanticScore = r.SemanticScore / maxSem
		} else {
			r.SemanticScore = 0
		}
		if maxLex > 0 {
			r.LexicalScore = r.LexicalScore / maxLex
		} else {
			r.LexicalScore = 0
		}

		r.HybridScore = weights.Semantic*r.SemanticScore + weights.Lexical*r.LexicalScore
		if r.FoundInSemantic && r.FoundInLexical {
			r.HybridScore *= IntersectionBonus
		}
	}

	return f.toSortedSlice(merged)
}

// Rescore recomputes hybrid scores after reranking, folding the rerank
// weight into the combination and reapplying the intersection bonus.
// Results are re-sorted.
func (f *Fusion) Rescore(results []*FusedResult, weights Weights) []*FusedResult {
	for _, r := range results {
		r.HybridScore = weights.Semantic*r.SemanticScore +
			weights.Lexical*r.LexicalScore +
			weights.Rerank*r.RerankScore
		if r.FoundInSemantic && r.FoundInLexical {
			r.HybridScore *= IntersectionBonus
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})
	return results
}

// getOrCreate returns the existing entry or creates a new one.
func (f *Fusion) getOrCreate(m map[string]*FusedResult, id string) *FusedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &FusedResult{DocID: id}
	m[id] = r
	return r
}

// toSortedSlice converts the merged map to a deterministically sorted slice.
func (f *Fusion) toSortedSlice(m map[string]*FusedResult) []*FusedResult {
	results := make([]*FusedResult, 0, len(m))
	for _, r := range m {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})
	return results
}

// compare implements deterministic ordering. Returns true if a ranks
// before b.
func (f *Fusion) compare(a, b *FusedResult) bool {
	if a.HybridScore != b.HybridScore {
		return a.HybridScore > b.HybridScore
	}

	aBoth := a.FoundInSemantic && a.FoundInLexical
	bBoth := b.FoundInSemantic && b.FoundInLexical
	if aBoth != bBoth {
		return aBoth
	}

	if a.LexicalScore != b.LexicalScore {
		return a.LexicalScore > b.LexicalScore
	}

	return a.DocID < b.DocID
}

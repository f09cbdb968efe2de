package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
)

// BleveLexicalIndex is an alternative LexicalIndex backend built on Bleve v2.
// It trades the explicit BM25 parameterization of MemoryLexicalIndex for
// Bleve's mature analysis chain. Bleve owns its scoring internals, so
// TuneParameters is not supported.
type BleveLexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	docs   map[string]*Document
	closed bool
}

// bleveDocument is the document structure handed to Bleve.
type bleveDocument struct {
	Content string `json:"content"`
}

// Verify interface implementation at compile time.
var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// NewBleveLexicalIndex creates an empty in-memory Bleve index.
func NewBleveLexicalIndex() (*BleveLexicalIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveLexicalIndex{
		index: idx,
		docs:  make(map[string]*Document),
	}, nil
}

// BuildIndex replaces the index contents. A fresh Bleve index is built and
// swapped in under the write lock so searches never see partial state.
func (b *BleveLexicalIndex) BuildIndex(ctx context.Context, docs []*Document) error {
	fresh, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create bleve index: %w", err)
	}

	byID := make(map[string]*Document, len(docs))
	batch := fresh.NewBatch()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if doc == nil || doc.ID == "" {
			continue
		}
		byID[doc.ID] = doc
		if err := batch.Index(doc.ID, bleveDocument{Content: doc.Content}); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrIndexClosed
	}

	old := b.index
	b.index = fresh
	b.docs = byID
	if old != nil {
		_ = old.Close()
	}

	return nil
}

// Search returns documents matching the query, scored by Bleve's BM25-family
// scorer.
func (b *BleveLexicalIndex) Search(ctx context.Context, query string, topK int) ([]*LexicalResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrIndexClosed
	}
	if strings.TrimSpace(query) == "" || len(b.docs) == 0 || topK <= 0 {
		return []*LexicalResult{}, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = topK
	req.IncludeLocations = true

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	results := make([]*LexicalResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, &LexicalResult{
			DocID:        hit.ID,
			Score:        hit.Score,
			MatchedTerms: matchedTermsFromHit(hit),
		})
	}

	return results, nil
}

// Document returns the indexed document for id.
func (b *BleveLexicalIndex) Document(id string) (*Document, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, ok := b.docs[id]
	return doc, ok
}

// TuneParameters is not supported by the Bleve backend.
func (b *BleveLexicalIndex) TuneParameters(k1, bParam float64) error {
	return fmt.Errorf("bleve backend: %w", ErrTuningUnsupported)
}

// Stats returns index statistics. Bleve does not expose term counts or
// average document length directly.
func (b *BleveLexicalIndex) Stats() *IndexStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return &IndexStats{}
	}
	count, _ := b.index.DocCount()
	return &IndexStats{DocumentCount: int(count)}
}

// Close closes the underlying Bleve index.
func (b *BleveLexicalIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// matchedTermsFromHit extracts distinct matched terms from a hit's locations.
func matchedTermsFromHit(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field != "content" {
			continue
		}
		for term := range locations {
			terms[term] = struct{}{}
		}
	}

	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	return result
}

package store

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// indexSnapshot is an immutable, fully built inverted index. BuildIndex
// constructs a fresh snapshot and publishes it atomically, so readers never
// observe partial state.
type indexSnapshot struct {
	// postings maps term -> doc ID -> term frequency.
	postings map[string]map[string]int
	// docFrequency maps term -> number of distinct documents containing it.
	docFrequency map[string]int
	// docLengths maps doc ID -> token count.
	docLengths map[string]int
	avgDocLength float64
	corpusSize   int
	docs         map[string]*Document
	params       BM25Params
}

// MemoryLexicalIndex is an in-memory BM25 inverted index.
//
// The published snapshot is read-only and safely shared by any number of
// concurrent Search calls; BuildIndex swaps in a replacement snapshot.
type MemoryLexicalIndex struct {
	mu        sync.Mutex // serializes builds and parameter updates
	snapshot  atomic.Pointer[indexSnapshot]
	params    BM25Params
	tokenizer *Tokenizer
	closed    atomic.Bool
}

// Verify interface implementation at compile time.
var _ LexicalIndex = (*MemoryLexicalIndex)(nil)

// NewMemoryLexicalIndex creates an empty index with the given parameters.
func NewMemoryLexicalIndex(params BM25Params) (*MemoryLexicalIndex, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MemoryLexicalIndex{
		params:    params,
		tokenizer: NewTokenizer(),
	}, nil
}

// BuildIndex resets all index state and indexes the collection. It is
// idempotent: rebuilding with the same input yields identical postings.
// An empty collection is valid; the resulting index answers every query
// with empty results.
func (m *MemoryLexicalIndex) BuildIndex(ctx context.Context, docs []*Document) error {
	if m.closed.Load() {
		return ErrIndexClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &indexSnapshot{
		postings:     make(map[string]map[string]int),
		docFrequency: make(map[string]int),
		docLengths:   make(map[string]int, len(docs)),
		docs:         make(map[string]*Document, len(docs)),
		params:       m.params,
	}

	var totalTokens int
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if doc == nil || doc.ID == "" {
			continue
		}

		tokens := m.tokenizer.Tokenize(doc.Content)
		snap.docLengths[doc.ID] = len(tokens)
		snap.docs[doc.ID] = doc
		totalTokens += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, term := range tokens {
			posting, ok := snap.postings[term]
			if !ok {
				posting = make(map[string]int)
				snap.postings[term] = posting
			}
			posting[doc.ID]++
			if _, dup := seen[term]; !dup {
				seen[term] = struct{}{}
				snap.docFrequency[term]++
			}
		}
	}

	snap.corpusSize = len(snap.docLengths)
	if snap.corpusSize > 0 {
		snap.avgDocLength = float64(totalTokens) / float64(snap.corpusSize)
	}

	m.snapshot.Store(snap)

	slog.Debug("lexical_index_built",
		slog.Int("documents", snap.corpusSize),
		slog.Int("terms", len(snap.postings)),
		slog.Float64("avg_doc_length", snap.avgDocLength))

	return nil
}

// Search scores documents with BM25 and returns the topK best matches.
// Returns an empty slice if the index has not been built, the corpus is
// empty, or the tokenized query is empty.
func (m *MemoryLexicalIndex) Search(ctx context.Context, query string, topK int) ([]*LexicalResult, error) {
	if m.closed.Load() {
		return nil, ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := m.snapshot.Load()
	if snap == nil || snap.corpusSize == 0 || snap.avgDocLength == 0 || topK <= 0 {
		return []*LexicalResult{}, nil
	}

	terms := m.tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return []*LexicalResult{}, nil
	}

	k1 := snap.params.K1
	b := snap.params.B
	n := float64(snap.corpusSize)

	scores := make(map[string]float64)
	matched := make(map[string][]string)
	seenTerm := make(map[string]struct{}, len(terms))

	for _, term := range terms {
		// Repeated query terms contribute once.
		if _, dup := seenTerm[term]; dup {
			continue
		}
		seenTerm[term] = struct{}{}

		posting, ok := snap.postings[term]
		if !ok {
			continue
		}

		df := float64(snap.docFrequency[term])
		// Smoothed idf: strictly positive even for terms in most documents,
		// so frequent-term matches still rank by term frequency.
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))

		for docID, tfInt := range posting {
			tf := float64(tfInt)
			docLen := float64(snap.docLengths[docID])
			denom := tf + k1*(1-b+b*(docLen/snap.avgDocLength))
			scores[docID] += idf * (tf * (k1 + 1)) / denom
			matched[docID] = append(matched[docID], term)
		}
	}

	results := make([]*LexicalResult, 0, len(scores))
	for docID, score := range scores {
		results = append(results, &LexicalResult{
			DocID:        docID,
			Score:        score,
			MatchedTerms: matched[docID],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Document returns the indexed document for id.
func (m *MemoryLexicalIndex) Document(id string) (*Document, bool) {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	doc, ok := snap.docs[id]
	return doc, ok
}

// TuneParameters updates k1 and b for subsequent searches. The snapshot
// caches avg document length at build time, so a rebuild is required for the
// new parameters to apply to already-indexed documents.
func (m *MemoryLexicalIndex) TuneParameters(k1, b float64) error {
	params := BM25Params{K1: k1, B: b}
	if err := params.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.params = params

	// Apply to the live snapshot as well; term statistics are unaffected.
	if snap := m.snapshot.Load(); snap != nil {
		updated := *snap
		updated.params = params
		m.snapshot.Store(&updated)
	}

	return nil
}

// Stats returns statistics for the published snapshot.
func (m *MemoryLexicalIndex) Stats() *IndexStats {
	snap := m.snapshot.Load()
	if snap == nil {
		return &IndexStats{}
	}
	return &IndexStats{
		DocumentCount: snap.corpusSize,
		TermCount:     len(snap.postings),
		AvgDocLength:  snap.avgDocLength,
	}
}

// Close marks the index closed. Subsequent operations fail with
// ErrIndexClosed.
func (m *MemoryLexicalIndex) Close() error {
	m.closed.Store(true)
	return nil
}

package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// HNSW graph parameters. M controls graph connectivity, EfSearch the
// search-time candidate pool. Defaults follow the usual HNSW paper values.
const (
	defaultM        = 16
	defaultEfSearch = 100
	defaultMl       = 0.25
)

// HNSWBackend is an in-memory vector backend built on an HNSW graph with
// cosine distance. Vectors are normalized before insertion so the cosine
// distance reported by the graph stays in [0, 2].
type HNSWBackend struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[uint64]
	embedder Embedder
	logger   *slog.Logger

	// String document IDs mapped to graph keys and back.
	idToKey map[string]uint64
	keyToID map[uint64]string
	docs    map[string]*store.Document
	nextKey uint64

	closed bool
}

// NewHNSWBackend creates an HNSW backend using the given embedder.
func NewHNSWBackend(embedder Embedder, logger *slog.Logger) *HNSWBackend {
	if logger == nil {
		logger = slog.Default()
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = defaultM
	graph.EfSearch = defaultEfSearch
	graph.Ml = defaultMl

	return &HNSWBackend{
		graph:    graph,
		embedder: embedder,
		logger:   logger,
		idToKey:  make(map[string]uint64),
		keyToID:  make(map[uint64]string),
		docs:     make(map[string]*store.Document),
	}
}

var _ Backend = (*HNSWBackend)(nil)

// Index embeds the documents in batch and inserts them into the graph.
// Re-indexing an existing document ID replaces its vector and content.
func (b *HNSWBackend) Index(ctx context.Context, docs []*store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	start := time.Now()
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBackendClosed
	}

	for i, doc := range docs {
		vec := normalizeVector(vectors[i])

		key, exists := b.idToKey[doc.ID]
		if !exists {
			b.nextKey++
			key = b.nextKey
			b.idToKey[doc.ID] = key
			b.keyToID[key] = doc.ID
		}

		node := hnsw.MakeNode(key, vec)
		b.graph.Add(node)
		b.docs[doc.ID] = doc
	}

	b.logger.Debug("semantic_index_complete",
		"backend", "hnsw",
		"documents", len(docs),
		"total", len(b.docs),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// Search embeds the query and returns the topK nearest documents.
func (b *HNSWBackend) Search(ctx context.Context, query string, topK int) ([]*Result, error) {
	if topK <= 0 {
		return []*Result{}, nil
	}

	queryVec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec = normalizeVector(queryVec)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	if len(b.docs) == 0 {
		return []*Result{}, nil
	}

	nodes := b.graph.Search(queryVec, topK)

	results := make([]*Result, 0, len(nodes))
	for _, node := range nodes {
		id, ok := b.keyToID[node.Key]
		if !ok {
			continue
		}
		doc, ok := b.docs[id]
		if !ok {
			continue
		}

		distance := b.graph.Distance(queryVec, node.Value)
		results = append(results, &Result{
			DocID:    id,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    cosineDistanceToScore(distance),
		})
	}

	return results, nil
}

// Clear drops the graph and every stored document, leaving the backend
// ready for a fresh Index.
func (b *HNSWBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBackendClosed
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = defaultM
	graph.EfSearch = defaultEfSearch
	graph.Ml = defaultMl

	b.graph = graph
	b.idToKey = make(map[string]uint64)
	b.keyToID = make(map[uint64]string)
	b.docs = make(map[string]*store.Document)
	b.nextKey = 0
	return nil
}

// Count returns the number of indexed documents.
func (b *HNSWBackend) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Close releases the backend. Subsequent calls are no-ops.
func (b *HNSWBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.graph = nil
	b.docs = nil
	return nil
}

// cosineDistanceToScore converts cosine distance (0 identical, 2 opposite)
// to a similarity score in [0, 1].
func cosineDistanceToScore(distance float32) float64 {
	score := 1.0 - float64(distance)/2.0
	if score < 0 {
		return 0
	}
	return score
}

// normalizeVector scales v to unit length. Zero vectors are returned as-is.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

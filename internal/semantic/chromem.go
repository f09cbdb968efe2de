package semantic

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// ChromemBackend is a vector backend built on chromem-go. Unlike the HNSW
// backend it can persist collections to disk, at the cost of exhaustive
// search.
type ChromemBackend struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embedFn    chromem.EmbeddingFunc
	closed     bool
}

// NewChromemBackend creates a chromem backend. An empty path keeps the
// collection in memory; otherwise it is persisted (compressed) under path.
func NewChromemBackend(path, collectionName string, embedder Embedder) (*ChromemBackend, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	embedFn := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	})

	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collectionName, err)
	}

	return &ChromemBackend{db: db, collection: collection, name: collectionName, embedFn: embedFn}, nil
}

var _ Backend = (*ChromemBackend)(nil)

// Index stores the documents in the collection. Documents with an existing
// ID are overwritten.
func (b *ChromemBackend) Index(ctx context.Context, docs []*store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBackendClosed
	}

	documents := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		documents[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: flattenMetadata(doc.Metadata),
		}
	}

	if err := b.collection.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search returns up to topK documents by cosine similarity to the query.
func (b *ChromemBackend) Search(ctx context.Context, query string, topK int) ([]*Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	count := b.collection.Count()
	if count == 0 || topK <= 0 {
		return []*Result{}, nil
	}
	// chromem rejects nResults larger than the collection.
	if topK > count {
		topK = count
	}

	hits, err := b.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &Result{
			DocID:    hit.ID,
			Content:  hit.Content,
			Metadata: expandMetadata(hit.Metadata),
			Score:    float64(hit.Similarity),
		})
	}
	return results, nil
}

// Clear deletes the collection and recreates it empty.
func (b *ChromemBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBackendClosed
	}

	if err := b.db.DeleteCollection(b.name); err != nil {
		return fmt.Errorf("delete collection %q: %w", b.name, err)
	}
	collection, err := b.db.GetOrCreateCollection(b.name, nil, b.embedFn)
	if err != nil {
		return fmt.Errorf("recreate collection %q: %w", b.name, err)
	}
	b.collection = collection
	return nil
}

// Count returns the number of documents in the collection.
func (b *ChromemBackend) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	return b.collection.Count()
}

// Close marks the backend closed.
func (b *ChromemBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// flattenMetadata converts document metadata to chromem's string-valued form.
func flattenMetadata(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	flat := make(map[string]string, len(meta))
	for k, v := range meta {
		flat[k] = fmt.Sprint(v)
	}
	return flat
}

// expandMetadata converts chromem metadata back to the document form.
func expandMetadata(meta map[string]string) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	expanded := make(map[string]any, len(meta))
	for k, v := range meta {
		expanded[k] = v
	}
	return expanded
}

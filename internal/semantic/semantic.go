// Package semantic provides vector retrieval backends for hybrid search.
// Backends index documents as embeddings and answer nearest-neighbor
// queries; embedders turn text into vectors.
package semantic

import (
	"context"
	"errors"

	"github.com/deesatzed/newragcity-sub001/internal/store"
)

// Common semantic errors
var (
	// ErrBackendClosed is returned when operations are attempted on a closed backend
	ErrBackendClosed = errors.New("semantic backend is closed")

	// ErrEmbedderClosed is returned when operations are attempted on a closed embedder
	ErrEmbedderClosed = errors.New("embedder is closed")

	// ErrDimensionMismatch is returned when a vector's dimensionality does not
	// match the backend's configured dimensions
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Result is a single semantic retrieval hit. Score is the backend's native
// similarity in [0, 1]; fusion normalizes scores across the result set, so
// only the relative ordering within one response matters.
type Result struct {
	DocID    string
	Content  string
	Metadata map[string]any
	Score    float64
}

// Backend indexes documents and retrieves the nearest neighbors of a query.
// Index replaces previously indexed documents with the same ID. Backends must
// be safe for concurrent Search calls.
type Backend interface {
	// Index embeds and stores the given documents.
	Index(ctx context.Context, docs []*store.Document) error

	// Search returns up to topK results ranked by similarity to the query.
	Search(ctx context.Context, query string, topK int) ([]*Result, error)

	// Clear removes every indexed document.
	Clear(ctx context.Context) error

	// Count returns the number of indexed documents.
	Count() int

	// Close releases backend resources.
	Close() error
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// ModelName returns a human-readable identifier for the model.
	ModelName() string

	// Close releases embedder resources.
	Close() error
}

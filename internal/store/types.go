// Package store provides the lexical (BM25) index backends for hybrid search.
// Indexes hold their own tokenized copy of the collection; documents are
// immutable once indexed.
package store

import (
	"context"
	"errors"
)

// ErrIndexClosed is returned by operations on a closed index.
var ErrIndexClosed = errors.New("index is closed")

// ErrInvalidParams is returned when BM25 parameters are out of range.
var ErrInvalidParams = errors.New("invalid BM25 parameters")

// ErrTuningUnsupported is returned by backends that cannot change BM25
// parameters after construction.
var ErrTuningUnsupported = errors.New("BM25 parameter tuning not supported by this backend")

// Document is a unit of indexable content.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// LexicalResult is a single BM25 search hit.
type LexicalResult struct {
	DocID string
	Score float64
	// MatchedTerms contains the query terms that matched this document.
	MatchedTerms []string
}

// IndexStats provides statistics about a lexical index.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// BM25Params holds the tunable BM25 scoring parameters.
type BM25Params struct {
	// K1 controls term-frequency saturation.
	K1 float64
	// B controls document-length normalization.
	B float64
}

// DefaultBM25Params returns the standard BM25 parameter defaults.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// Validate checks parameter ranges.
func (p BM25Params) Validate() error {
	if p.K1 < 0 {
		return ErrInvalidParams
	}
	if p.B < 0 || p.B > 1 {
		return ErrInvalidParams
	}
	return nil
}

// LexicalIndex answers keyword queries with BM25 relevance scores.
//
// BuildIndex fully replaces the index contents; concurrent Search calls never
// observe a partially built index. Search on an unbuilt or empty index
// returns an empty result list, not an error, so callers can proceed with
// degraded results.
type LexicalIndex interface {
	// BuildIndex tokenizes and indexes the collection, replacing any
	// previously indexed documents atomically.
	BuildIndex(ctx context.Context, docs []*Document) error

	// Search returns up to topK documents ranked by BM25 score descending.
	Search(ctx context.Context, query string, topK int) ([]*LexicalResult, error)

	// Document returns the indexed document for id, if present.
	Document(id string) (*Document, bool)

	// TuneParameters updates k1 and b. Length-normalization caches are part
	// of the built snapshot, so a rebuild is required for full effect.
	TuneParameters(k1, b float64) error

	// Stats returns index statistics.
	Stats() *IndexStats

	// Close releases resources.
	Close() error
}

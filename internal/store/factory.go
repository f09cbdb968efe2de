package store

import "fmt"

// LexicalBackend selects the lexical index implementation.
type LexicalBackend string

const (
	// LexicalBackendMemory is the pure-Go inverted index with explicit BM25
	// parameters (default).
	LexicalBackendMemory LexicalBackend = "memory"

	// LexicalBackendBleve uses Bleve v2's analysis and scoring.
	LexicalBackendBleve LexicalBackend = "bleve"
)

// NewLexicalIndex creates a LexicalIndex using the named backend.
// An empty backend selects the memory implementation.
func NewLexicalIndex(backend string, params BM25Params) (LexicalIndex, error) {
	switch backend {
	case string(LexicalBackendMemory), "":
		return NewMemoryLexicalIndex(params)
	case string(LexicalBackendBleve):
		return NewBleveLexicalIndex()
	default:
		return nil, fmt.Errorf("unknown lexical backend: %s (valid options: memory, bleve)", backend)
	}
}

package semantic

import (
	"fmt"
	"log/slog"
)

// Semantic backend identifiers.
const (
	BackendHNSW    = "hnsw"
	BackendChromem = "chromem"
)

// Embedder identifiers.
const (
	EmbedderStatic = "static"
	EmbedderOpenAI = "openai"
)

// NewBackend creates a semantic backend by name. An empty name selects the
// HNSW backend. The path and collection are only used by backends that
// persist to disk; an empty collection defaults to "documents".
func NewBackend(name, path, collection string, embedder Embedder, logger *slog.Logger) (Backend, error) {
	if collection == "" {
		collection = "documents"
	}
	switch name {
	case BackendHNSW, "":
		return NewHNSWBackend(embedder, logger), nil
	case BackendChromem:
		return NewChromemBackend(path, collection, embedder)
	default:
		return nil, fmt.Errorf("unknown semantic backend: %q", name)
	}
}

// NewEmbedder creates an embedder by name. An empty name selects the static
// embedder, which needs no network access.
func NewEmbedder(name string, cfg OpenAIConfig) (Embedder, error) {
	switch name {
	case EmbedderStatic, "":
		return NewStaticEmbedder(), nil
	case EmbedderOpenAI:
		return NewOpenAIEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %q", name)
	}
}

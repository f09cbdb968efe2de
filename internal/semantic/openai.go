package semantic

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

// Default model settings for OpenAI-compatible embedding endpoints.
const (
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOpenAIDimensions = 1536
)

// OpenAIConfig configures the OpenAI embedder. BaseURL allows any
// OpenAI-compatible provider (Ollama, LocalAI, vLLM).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// OpenAIEmbedder generates embeddings through an OpenAI-compatible API.
// Transient request failures are retried with exponential backoff.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	retry      ragerrors.RetryConfig
}

// NewOpenAIEmbedder creates an embedder from the given config, applying
// defaults for unset model and dimensions.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultOpenAIDimensions
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: dimensions,
		retry:      ragerrors.DefaultRetryConfig(),
	}
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := ragerrors.RetryWithResult(ctx, e.retry, func() (openai.EmbeddingResponse, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			// Classified retryable so the surrounding retry keeps going.
			return resp, ragerrors.Wrap(ragerrors.ErrCodeEmbeddingEndpoint, err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, ragerrors.Wrap(ragerrors.ErrCodeEmbeddingEndpoint, fmt.Errorf("create embeddings: %w", err)).
			WithDetail("model", e.model)
	}
	if len(resp.Data) != len(texts) {
		return nil, ragerrors.New(ragerrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts)), nil)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// Dimensions returns the embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the configured model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

// Cross-encoder reranker configuration defaults.
const (
	DefaultRerankerEndpoint = "http://localhost:9659"
	DefaultRerankerModel    = "reranker-small"
	DefaultRerankerTimeout  = 30 * time.Second
)

// HTTPRerankerConfig holds configuration for the model-backed reranker.
type HTTPRerankerConfig struct {
	// Endpoint is the scoring server URL (default: http://localhost:9659).
	Endpoint string

	// Model is the cross-encoder model alias (default: reranker-small).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// SkipHealthCheck skips the health check during creation (for testing).
	SkipHealthCheck bool
}

// DefaultHTTPRerankerConfig returns default reranker configuration.
func DefaultHTTPRerankerConfig() HTTPRerankerConfig {
	return HTTPRerankerConfig{
		Endpoint: DefaultRerankerEndpoint,
		Model:    DefaultRerankerModel,
		Timeout:  DefaultRerankerTimeout,
	}
}

// HTTPReranker scores pairs through an external cross-encoder server. The
// server returns one raw logit per pair; a sigmoid maps logits to [0, 1].
type HTTPReranker struct {
	client   *http.Client
	config   HTTPRerankerConfig
	endpoint string
	breaker  *ragerrors.CircuitBreaker
	mu       sync.RWMutex
	closed   bool
}

var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates a model-backed reranker client and verifies the
// server is reachable unless the health check is skipped.
func NewHTTPReranker(ctx context.Context, cfg HTTPRerankerConfig) (*HTTPReranker, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultRerankerEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRerankerModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRerankerTimeout
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	r := &HTTPReranker{
		client:   client,
		config:   cfg,
		endpoint: cfg.Endpoint,
		breaker: ragerrors.NewCircuitBreaker("reranker",
			ragerrors.WithMaxFailures(3),
			ragerrors.WithResetTimeout(time.Minute)),
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := r.healthCheck(checkCtx); err != nil {
			return nil, ragerrors.Wrap(ragerrors.ErrCodeRerankerUnavailable, fmt.Errorf("reranker health check failed: %w", err)).
				WithSuggestion("start the scoring server or disable reranking in the config")
		}
	}

	slog.Debug("http_reranker_created",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("model", cfg.Model),
		slog.Duration("timeout", cfg.Timeout))

	return r, nil
}

// healthCheck verifies the scoring server is up.
func (r *HTTPReranker) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to reranker server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reranker server unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// rerankRequest is the JSON request to the /rerank endpoint.
type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

// rerankResponse is the JSON response from the /rerank endpoint. Logits are
// returned in input order.
type rerankResponse struct {
	Logits           []float64 `json:"logits"`
	Model            string    `json:"model"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
}

// Rerank sends the pairs to the scoring server and maps the returned logits
// through a sigmoid. Output order matches input order. Repeated server
// failures trip a circuit breaker so subsequent searches fail fast.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	start := time.Now()

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, fmt.Errorf("reranker is closed")
	}
	r.mu.RUnlock()

	if len(documents) == 0 {
		return []float64{}, nil
	}

	var logits []float64
	err := r.breaker.Execute(func() error {
		var callErr error
		logits, callErr = r.scoreLogits(ctx, query, documents)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(logits))
	for i, logit := range logits {
		scores[i] = sigmoid(logit)
	}

	slog.Debug("reranker_scored",
		slog.Int("doc_count", len(documents)),
		slog.Duration("total", time.Since(start)))

	return scores, nil
}

// scoreLogits performs one /rerank round trip.
func (r *HTTPReranker) scoreLogits(ctx context.Context, query string, documents []string) ([]float64, error) {
	jsonData, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.config.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, r.endpoint+"/rerank", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, ragerrors.Wrap(ragerrors.ErrCodeRerankerUnavailable, fmt.Errorf("rerank request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, ragerrors.New(ragerrors.ErrCodeRerankerUnavailable,
			fmt.Sprintf("rerank failed (status %d): %s", resp.StatusCode, string(body)), nil)
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(result.Logits) != len(documents) {
		return nil, fmt.Errorf("reranker returned %d scores for %d documents", len(result.Logits), len(documents))
	}

	return result.Logits, nil
}

// Available probes the server's health endpoint. An open circuit counts as
// unavailable without touching the network.
func (r *HTTPReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return false
	}
	r.mu.RUnlock()

	if !r.breaker.Allow() {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.healthCheck(checkCtx) == nil
}

// Close releases the HTTP client's idle connections.
func (r *HTTPReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.client.CloseIdleConnections()
	return nil
}

// sigmoid maps a raw logit to (0, 1).
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// NewReranker selects the reranking strategy by capability: the model-backed
// strategy when the scoring server is reachable, otherwise the heuristic.
// The choice is made once, at startup.
func NewReranker(ctx context.Context, cfg HTTPRerankerConfig) Reranker {
	if cfg.Endpoint != "" {
		if r, err := NewHTTPReranker(ctx, cfg); err == nil {
			slog.Info("reranker_selected", slog.String("strategy", "model"), slog.String("endpoint", cfg.Endpoint))
			return r
		} else {
			slog.Info("reranker_selected",
				slog.String("strategy", "heuristic"),
				slog.String("reason", err.Error()))
		}
	}
	return NewHeuristicReranker(HeuristicConfig{})
}

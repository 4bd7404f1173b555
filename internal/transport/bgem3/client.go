// Package bgem3 is the embedding provider: an HTTP client for a BGE-M3-style
// inference service that returns a dense vector and a sparse weighted-term
// vector for each input text in a single call.
package bgem3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/metrics"
)

// DefaultTimeout bounds one encode round trip, model inference included.
const DefaultTimeout = 30 * time.Second

// Config holds the embedding service settings.
type Config struct {
	// Endpoint is the inference service base URL, e.g. "http://bge-m3:8080".
	Endpoint string `yaml:"endpoint"`
	// Dimensions is the model's declared dense output dimension.
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Client encodes text batches via the inference service. It holds no mutable
// per-call state and is safe for concurrent use; construct once per process
// and inject it into every component that encodes.
type Client struct {
	baseURL    string
	dimensions int
	httpClient *http.Client
	logger     *zap.Logger
}

var _ domain.Embedder = (*Client)(nil)

// NewClient creates an embedding client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("bgem3: endpoint is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("bgem3: dimensions must be positive, got %d", cfg.Dimensions)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Dimensions returns the model's declared dense output dimension.
func (c *Client) Dimensions() int { return c.dimensions }

type encodeRequest struct {
	Texts []string `json:"texts"`
}

type sparsePayload struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

type encodeResponse struct {
	Dense  [][]float32     `json:"dense"`
	Sparse []sparsePayload `json:"sparse"`
}

// Encode implements domain.Embedder: one POST for the whole batch, outputs
// order-aligned with inputs.
func (c *Client) Encode(ctx context.Context, texts []string) (domain.EmbeddingBatch, error) {
	if len(texts) == 0 {
		return domain.EmbeddingBatch{}, fmt.Errorf("encode: %w", domain.ErrEmptyBatch)
	}
	for i, t := range texts {
		if t == "" {
			return domain.EmbeddingBatch{}, fmt.Errorf("encode: text %d is empty: %w", i, domain.ErrInvalidInput)
		}
	}

	start := time.Now()
	var resp encodeResponse
	if err := c.postJSON(ctx, c.baseURL+"/encode", encodeRequest{Texts: texts}, &resp); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return domain.EmbeddingBatch{}, err
	}

	batch := domain.EmbeddingBatch{
		Sparse: make([]domain.SparseVector, len(resp.Sparse)),
		Dense:  resp.Dense,
	}
	for i, s := range resp.Sparse {
		batch.Sparse[i] = domain.SparseVector{Indices: s.Indices, Values: s.Values}
	}

	if batch.Len() != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return domain.EmbeddingBatch{}, fmt.Errorf(
			"encode: service returned %d embeddings for %d texts: %w",
			batch.Len(), len(texts), domain.ErrEmbeddingProviderError)
	}
	if err := batch.Validate(c.dimensions); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return domain.EmbeddingBatch{}, fmt.Errorf("encode: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("success").Inc()
	metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
	metrics.EmbeddingTextsTotal.Add(float64(len(texts)))
	return batch, nil
}

// HealthCheck verifies the inference service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("bgem3 health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bgem3 health check: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bgem3 health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build encode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("embedding service status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrEmbeddingProviderError)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode encode response: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return nil
}

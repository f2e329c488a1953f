// Package gemini provides an embedding service adapter using the Google
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "text-embedding-004"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768 // text-embedding-004 default

	// batchEmbedContents accepts up to 100 requests per call.
	maxBatchSize = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public Generative
	// Language endpoint).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 768).
	Dimensions int
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// contentPart is a single text part of a content payload.
type contentPart struct {
	Text string `json:"text"`
}

// content is the Gemini content payload.
type content struct {
	Parts []contentPart `json:"parts"`
}

// embedContentRequest is one embedding request.
type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

// batchEmbedRequest is the batchEmbedContents request format.
type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

// embeddingValues holds one embedding vector.
type embeddingValues struct {
	Values []float64 `json:"values"`
}

// batchEmbedResponse is the batchEmbedContents response format.
type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
	Error      *apiError         `json:"error,omitempty"`
}

// apiError is the Google API error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single
// batchEmbedContents request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := batchEmbedRequest{
		Requests: make([]embedContentRequest, len(texts)),
	}
	for i, text := range texts {
		reqBody.Requests[i] = embedContentRequest{
			Model:   "models/" + s.model,
			Content: content{Parts: []contentPart{{Text: text}}},
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewEmbeddingError(domain.ErrorKindTransient,
			fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp batchEmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyStatus(resp.StatusCode)
		if embedResp.Error != nil {
			if embedResp.Error.Status == "RESOURCE_EXHAUSTED" {
				kind = domain.ErrorKindQuota
			}
			return nil, domain.NewEmbeddingError(kind,
				fmt.Errorf("gemini error: %s", embedResp.Error.Message))
		}
		return nil, domain.NewEmbeddingError(kind,
			fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body)))
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, domain.NewEmbeddingError(domain.ErrorKindPermanent,
			fmt.Errorf("gemini returned %d embeddings for %d texts", len(embedResp.Embeddings), len(texts)))
	}

	// Convert float64 to float32; the response preserves request order.
	embeddings := make([][]float32, len(texts))
	for i, emb := range embedResp.Embeddings {
		vec := make([]float32, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// MaxBatchSize returns the maximum texts per request.
func (s *EmbeddingService) MaxBatchSize() int {
	return maxBatchSize
}

// Ping validates the service is reachable by fetching the model's metadata.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/models/%s", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// classifyStatus maps an HTTP status to a retry classification.
func classifyStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return domain.ErrorKindTransient
	case status == http.StatusBadRequest:
		return domain.ErrorKindInvalidInput
	default:
		return domain.ErrorKindPermanent
	}
}

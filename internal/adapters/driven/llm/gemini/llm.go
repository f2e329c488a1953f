// Package gemini provides an LLM service adapter using the Google
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public Generative
	// Language endpoint).
	BaseURL string

	// Model is the LLM model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// contentPart is a single text part of a content payload.
type contentPart struct {
	Text string `json:"text"`
}

// content is the Gemini content payload.
type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

// generationConfig holds Gemini sampling options.
type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     float64  `json:"temperature,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// generateRequest is the generateContent request format.
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// generateResponse is the generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
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

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{
		{Role: "user", Content: prompt},
	}
	return s.sendGenerate(ctx, messages, driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}, opts.StopWords)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.sendGenerate(ctx, messages, opts, nil)
}

// sendGenerate is the internal implementation for both Generate and Chat.
func (s *LLMService) sendGenerate(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
	stopWords []string,
) (string, error) {
	reqBody := generateRequest{}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			reqBody.SystemInstruction = &content{
				Parts: []contentPart{{Text: msg.Content}},
			}
		case "assistant":
			// Gemini calls the assistant role "model"
			reqBody.Contents = append(reqBody.Contents, content{
				Role:  "model",
				Parts: []contentPart{{Text: msg.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, content{
				Role:  "user",
				Parts: []contentPart{{Text: msg.Content}},
			})
		}
	}

	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(stopWords) > 0 {
		reqBody.GenerationConfig = &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
			StopSequences:   stopWords,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewGenerationError(domain.ErrorKindTransient,
			fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyStatus(resp.StatusCode)
		if genResp.Error != nil {
			if genResp.Error.Status == "RESOURCE_EXHAUSTED" {
				kind = domain.ErrorKindQuota
			}
			return "", domain.NewGenerationError(kind,
				fmt.Errorf("gemini error: %s", genResp.Error.Message))
		}
		return "", domain.NewGenerationError(kind,
			fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body)))
	}

	if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
		return "", domain.NewGenerationError(domain.ErrorKindContentPolicy,
			fmt.Errorf("gemini: prompt blocked (%s)", genResp.PromptFeedback.BlockReason))
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	candidate := genResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return "", domain.NewGenerationError(domain.ErrorKindContentPolicy,
			fmt.Errorf("gemini: generation blocked (%s)", candidate.FinishReason))
	}

	var result strings.Builder
	for _, part := range candidate.Content.Parts {
		result.WriteString(part.Text)
	}
	return result.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by fetching the model's metadata.
func (s *LLMService) Ping(ctx context.Context) error {
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
func (s *LLMService) Close() error {
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

package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

func TestNewLLMServiceRequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestGenerateReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": "Paris is the capital of France."}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "What is the capital of France?",
		driven.GenerateOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", out)
}

func TestChatMapsSystemAndAssistantRoles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 2)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "ok"}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerateClassifiesSafetyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]string{}},
				"finishReason": "SAFETY",
			}},
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.ErrorKindContentPolicy, genErr.Kind)
}

func TestGenerateClassifiesServerErrorTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.ErrorKindTransient, genErr.Kind)
}

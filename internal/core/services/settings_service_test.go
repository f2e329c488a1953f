package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/retriva/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Chunking, settings.Chunking)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Generation, settings.Generation)
	assert.Equal(t, defaults.Cache, settings.Cache)
	assert.Equal(t, defaults.Index, settings.Index)
	assert.Empty(t, settings.Embedding.Provider)
	assert.Empty(t, settings.LLM.Provider)
}

func TestSettingsService_SaveAndGetRoundTrip(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	want := domain.DefaultAppSettings()
	want.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	}
	want.LLM = domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "sk-ant-test",
	}
	want.Chunking = domain.ChunkingSettings{MaxChunkSize: 800, Overlap: 150, MinChunkSize: 80}
	want.Retrieval = domain.RetrievalSettings{TopK: 5, Rerank: true}
	want.Generation = domain.GenerationSettings{MaxTokens: 512, Temperature: 0.3, ContextCharBudget: 4000}
	want.Cache = domain.CacheSettings{Enabled: false, TTL: 2 * time.Minute}
	want.Index = domain.IndexSettings{Metric: domain.MetricDotProduct, Persist: false, Path: "/tmp/idx"}

	require.NoError(t, service.Save(&want))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_SetEmbedding(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	err := service.SetEmbedding(domain.EmbeddingSettings{
		Provider: domain.AIProviderGemini,
		APIKey:   "test-key",
	})

	require.NoError(t, err)
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.Embedding.Provider)
	// Omitted model falls back to the provider default.
	assert.Equal(t, "text-embedding-004", settings.Embedding.Model)
}

func TestSettingsService_SetEmbedding_OllamaGetsBaseURL(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	err := service.SetEmbedding(domain.EmbeddingSettings{Provider: domain.AIProviderOllama})

	require.NoError(t, err)
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
}

func TestSettingsService_SetEmbedding_Validation(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	cases := []struct {
		name    string
		input   domain.EmbeddingSettings
		wantErr string
	}{
		{
			name:    "unknown provider",
			input:   domain.EmbeddingSettings{Provider: "cohere"},
			wantErr: "invalid embedding provider",
		},
		{
			name:    "anthropic has no embeddings",
			input:   domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr: "does not support embeddings",
		},
		{
			name:    "cloud provider without key",
			input:   domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr: "API key required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.SetEmbedding(tc.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSettingsService_SetLLM(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	err := service.SetLLM(domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "sk-ant-test",
	})

	require.NoError(t, err)
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
}

func TestSettingsService_SetLLM_MissingAPIKey(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	err := service.SetLLM(domain.LLMSettings{Provider: domain.AIProviderOpenAI})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

type rejectingValidator struct{}

func (rejectingValidator) ValidateEmbedding(*domain.EmbeddingSettings) error {
	return errors.New("model not found")
}

func (rejectingValidator) ValidateLLM(*domain.LLMSettings) error {
	return errors.New("model not found")
}

func TestSettingsService_SetEmbedding_ValidatorRejection(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, rejectingValidator{})

	err := service.SetEmbedding(domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "sk-test",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")

	// Nothing was persisted.
	_, ok := store.Get("embedding.provider")
	assert.False(t, ok)
}

func TestSettingsService_SetChunking_Validation(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	cases := []struct {
		name  string
		input domain.ChunkingSettings
	}{
		{"zero max", domain.ChunkingSettings{MaxChunkSize: 0}},
		{"negative overlap", domain.ChunkingSettings{MaxChunkSize: 100, Overlap: -1}},
		{"overlap at max", domain.ChunkingSettings{MaxChunkSize: 100, Overlap: 100}},
		{"min above max", domain.ChunkingSettings{MaxChunkSize: 100, Overlap: 10, MinChunkSize: 200}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, service.SetChunking(tc.input))
		})
	}

	require.NoError(t, service.SetChunking(domain.ChunkingSettings{
		MaxChunkSize: 500, Overlap: 100, MinChunkSize: 50,
	}))
}

func TestSettingsService_SetRetrieval_Validation(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Error(t, service.SetRetrieval(domain.RetrievalSettings{TopK: 0}))
	assert.Error(t, service.SetRetrieval(domain.RetrievalSettings{TopK: -3}))
	require.NoError(t, service.SetRetrieval(domain.RetrievalSettings{TopK: 10, Rerank: true}))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, settings.Retrieval.TopK)
	assert.True(t, settings.Retrieval.Rerank)
}

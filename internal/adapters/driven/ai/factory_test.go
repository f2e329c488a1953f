package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

func TestCreateEmbeddingServiceUnconfigured(t *testing.T) {
	svc, err := CreateEmbeddingService(nil)
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = CreateEmbeddingService(&domain.EmbeddingSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateEmbeddingServiceCloudProviderNeedsKey(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderGemini,
		Model:    "text-embedding-004",
	})
	// Missing API key means not configured, not an error
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateEmbeddingServicePerProvider(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		wantDims int
	}{
		{
			name: "ollama",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
			},
			wantDims: 768,
		},
		{
			name: "openai",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "test-key",
			},
			wantDims: 1536,
		},
		{
			name: "gemini",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				Model:    "text-embedding-004",
				APIKey:   "test-key",
			},
			wantDims: 768,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(&tt.settings)
			require.NoError(t, err)
			require.NotNil(t, svc)
			defer svc.Close()

			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
			assert.Positive(t, svc.MaxBatchSize())
		})
	}
}

func TestCreateEmbeddingServiceAnthropicUnsupported(t *testing.T) {
	_, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "test-key",
	})
	assert.Error(t, err)
}

func TestCreateLLMServicePerProvider(t *testing.T) {
	providers := []domain.LLMSettings{
		{Provider: domain.AIProviderOllama, Model: "llama3.2"},
		{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "test-key"},
		{Provider: domain.AIProviderAnthropic, Model: "claude-3-5-sonnet-latest", APIKey: "test-key"},
		{Provider: domain.AIProviderGemini, Model: "gemini-2.0-flash", APIKey: "test-key"},
	}

	for _, settings := range providers {
		t.Run(settings.Provider.String(), func(t *testing.T) {
			svc, err := CreateLLMService(&settings)
			require.NoError(t, err)
			require.NotNil(t, svc)
			defer svc.Close()

			assert.Equal(t, settings.Model, svc.ModelName())
		})
	}
}

func TestValidateConfigSkipsUnconfigured(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateEmbedding(nil))
	assert.NoError(t, NewConfigValidator().ValidateLLM(&domain.LLMSettings{}))
}

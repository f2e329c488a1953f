package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProviderIsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.True(t, AIProviderGemini.IsValid())
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProviderRequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestEmbeddingSettingsIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{
			name:     "unconfigured",
			settings: EmbeddingSettings{},
			want:     false,
		},
		{
			name:     "local provider without key",
			settings: EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text"},
			want:     true,
		},
		{
			name:     "cloud provider without key",
			settings: EmbeddingSettings{Provider: AIProviderGemini, Model: "text-embedding-004"},
			want:     false,
		},
		{
			name: "cloud provider with key",
			settings: EmbeddingSettings{
				Provider: AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	// Providers start unconfigured; the retrieval core still has
	// working defaults.
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
	assert.Equal(t, 1000, settings.Chunking.MaxChunkSize)
	assert.Equal(t, 200, settings.Chunking.Overlap)
	assert.Equal(t, 3, settings.Retrieval.TopK)
	assert.Equal(t, 256, settings.Generation.MaxTokens)
	assert.Equal(t, MetricCosine, settings.Index.Metric)
	assert.True(t, settings.Cache.Enabled)
	assert.Positive(t, settings.Cache.TTL)
}

func TestDefaultModelsCoverAllProviders(t *testing.T) {
	embedModels := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, embedModels[p], "embedding provider %s has no default model", p)
	}

	llmModels := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llmModels[p], "llm provider %s has no default model", p)
	}
}

func TestEmbeddingDimensionsKnownModels(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])
	assert.Equal(t, 768, dims["text-embedding-004"])
}

func TestSimilarityMetric(t *testing.T) {
	assert.True(t, MetricCosine.IsValid())
	assert.True(t, MetricDotProduct.IsValid())
	assert.False(t, SimilarityMetric("euclidean").IsValid())
}

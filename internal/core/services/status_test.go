package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

func statusSettings() domain.AppSettings {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderGemini,
		Model:    "text-embedding-004",
		APIKey:   "test-key",
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderGemini,
		Model:    "gemini-2.0-flash",
		APIKey:   "test-key",
	}
	return settings
}

func TestStatusService_AllHealthy(t *testing.T) {
	embedder := &stubEmbedder{}
	llm := &stubLLM{}
	index := newTestIndex(t)
	docs := newTestDocStore()

	ingest := NewIngestService(newTestChunker(t), embedder, index, docs)
	_, err := ingest.Ingest(context.Background(), domain.Document{
		ID:      "doc-1",
		Content: "A document so the index has something in it.",
	})
	require.NoError(t, err)

	svc := NewStatusService(embedder, llm, index, docs, statusSettings())
	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.True(t, status.EmbeddingConfigured)
	assert.True(t, status.EmbeddingReachable)
	assert.Equal(t, "text-embedding-004", status.EmbeddingModel)
	assert.True(t, status.LLMConfigured)
	assert.True(t, status.LLMReachable)
	assert.Equal(t, "gemini-2.0-flash", status.LLMModel)
	assert.Equal(t, 1, status.IndexEntries)
	assert.Equal(t, domain.IndexVersion(1), status.IndexVersion)
	assert.Equal(t, testDims, status.IndexDimensions)
	assert.Equal(t, domain.MetricCosine, status.IndexMetric)
	assert.Equal(t, "stub-embed-v1", status.IndexModelTag)
	assert.Equal(t, 1, status.Documents)
}

func TestStatusService_UnreachableProviderIsNotAnError(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("connection refused")}
	llm := &stubLLM{pingErr: errors.New("401 unauthorized")}

	svc := NewStatusService(embedder, llm, newTestIndex(t), newTestDocStore(), statusSettings())
	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.True(t, status.EmbeddingConfigured)
	assert.False(t, status.EmbeddingReachable)
	assert.True(t, status.LLMConfigured)
	assert.False(t, status.LLMReachable)
}

func TestStatusService_NothingConfigured(t *testing.T) {
	svc := NewStatusService(nil, nil, newTestIndex(t), newTestDocStore(), domain.DefaultAppSettings())
	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.False(t, status.EmbeddingConfigured)
	assert.False(t, status.EmbeddingReachable)
	assert.False(t, status.LLMConfigured)
	assert.False(t, status.LLMReachable)
	assert.Zero(t, status.IndexEntries)
	assert.Zero(t, status.Documents)
}

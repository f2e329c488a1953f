package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()
	req := &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uriScheme + "status"},
	}

	t.Run("returns status as JSON", func(t *testing.T) {
		mockStatus := &mockStatusService{
			status: &driving.SystemStatus{
				EmbeddingConfigured: true,
				EmbeddingReachable:  true,
				EmbeddingModel:      "nomic-embed-text",
				LLMConfigured:       true,
				LLMReachable:        false,
				LLMModel:            "llama3.2",
				IndexEntries:        42,
				IndexVersion:        9,
				IndexDimensions:     768,
				IndexMetric:         domain.MetricCosine,
				IndexModelTag:       "nomic-embed-text",
				Documents:           5,
			},
		}

		server, err := NewServer(&Ports{
			Query:  &mockQueryService{},
			Status: mockStatus,
		}, "test")
		require.NoError(t, err)

		result, err := server.handleStatusResource(ctx, req)
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"embedding_model": "nomic-embed-text"`)
		assert.Contains(t, result.Contents[0].Text, `"llm_reachable": false`)
		assert.Contains(t, result.Contents[0].Text, `"index_entries": 42`)
		assert.Contains(t, result.Contents[0].Text, `"index_version": 9`)
		assert.Contains(t, result.Contents[0].Text, `"index_metric": "cosine"`)
		assert.Contains(t, result.Contents[0].Text, `"documents": 5`)
	})

	t.Run("missing status port is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}}, "test")
		require.NoError(t, err)

		_, err = server.handleStatusResource(ctx, req)
		assert.Error(t, err)
	})

	t.Run("propagates status errors", func(t *testing.T) {
		mockStatus := &mockStatusService{err: errors.New("index closed")}

		server, err := NewServer(&Ports{
			Query:  &mockQueryService{},
			Status: mockStatus,
		}, "test")
		require.NoError(t, err)

		_, err = server.handleStatusResource(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index closed")
	})
}

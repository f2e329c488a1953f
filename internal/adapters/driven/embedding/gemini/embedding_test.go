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
)

func TestNewEmbeddingServiceRequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req batchEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := batchEmbedResponse{Embeddings: make([]embeddingValues, len(req.Requests))}
		for i, er := range req.Requests {
			// Encode the text length so order is observable
			resp.Embeddings[i] = embeddingValues{
				Values: []float64{float64(len(er.Content.Parts[0].Text)), 0},
			}
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL, Dimensions: 2})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
}

func TestEmbedClassifiesQuotaExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(batchEmbedResponse{ //nolint:errcheck
			Error: &apiError{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"},
		})
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "hello")
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, domain.ErrorKindQuota, embErr.Kind)
}

func TestEmbedClassifiesServerErrorTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "hello")
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, domain.ErrorKindTransient, embErr.Kind)
}

func TestEmbedBatchRejectsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(batchEmbedResponse{ //nolint:errcheck
			Embeddings: []embeddingValues{{Values: []float64{1}}},
		})
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, domain.ErrorKindPermanent, embErr.Kind)
}

func TestEmbeddingServiceDefaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, maxBatchSize, svc.MaxBatchSize())
}

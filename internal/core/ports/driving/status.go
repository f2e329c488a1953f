package driving

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// SystemStatus reports the health of the retrieval engine and its providers.
type SystemStatus struct {
	// EmbeddingConfigured is true when an embedding provider is set up.
	EmbeddingConfigured bool

	// EmbeddingReachable is true when the embedding provider answered a ping.
	EmbeddingReachable bool

	// EmbeddingModel is the configured embedding model.
	EmbeddingModel string

	// LLMConfigured is true when a generation provider is set up.
	LLMConfigured bool

	// LLMReachable is true when the generation provider answered a ping.
	LLMReachable bool

	// LLMModel is the configured generation model.
	LLMModel string

	// IndexEntries is the number of entries in the vector index.
	IndexEntries int

	// IndexVersion is the current index version.
	IndexVersion domain.IndexVersion

	// IndexDimensions is the index's fixed dimensionality.
	IndexDimensions int

	// IndexMetric is the similarity metric in use.
	IndexMetric domain.SimilarityMetric

	// IndexModelTag is the embedding model the index was built with.
	IndexModelTag string

	// Documents is the number of ingested documents.
	Documents int
}

// StatusService reports system health.
type StatusService interface {
	// Status pings the configured providers and inspects the index.
	Status(ctx context.Context) (*SystemStatus, error)
}

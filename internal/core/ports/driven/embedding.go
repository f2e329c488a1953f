package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Google Gemini (text-embedding-004)
//
// Provider adapters report failures as *domain.EmbeddingError so that the
// gateway can tell transient failures from permanent ones.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This is determined by the model and must match VectorIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// The vector index records this as its model tag; a persisted index
	// with a different tag is rejected at load.
	ModelName() string

	// MaxBatchSize returns the provider-imposed maximum number of texts
	// per request. The gateway sub-batches larger inputs.
	MaxBatchSize() int

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before committing to ingestion.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

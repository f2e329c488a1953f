package driven

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers k-nearest-neighbour
// queries. It is the single shared mutable resource of the system:
// readers search concurrently without blocking, writers serialise at
// batch-commit granularity, and a reader sees a committed batch either
// fully or not at all.
//
// Implementations must honour the contract regardless of the underlying
// structure (linear scan or approximate): deterministic tie-breaks,
// dimensionality checks, and monotonic versioning.
type VectorIndex interface {
	// Insert atomically commits a batch of entries and returns the new
	// index version. Duplicate chunk IDs within the batch resolve
	// last-write-wins by input order; an existing entry with the same
	// chunk ID is overwritten. The batch commits all-or-nothing. An
	// empty batch is a no-op that returns the current version, mirroring
	// Delete.
	Insert(ctx context.Context, entries []domain.IndexEntry) (domain.IndexVersion, error)

	// Delete removes the entries for the given chunk IDs. Absent IDs are
	// silently ignored. The version is bumped only when at least one
	// entry was actually removed, so deleting twice is a no-op the
	// second time.
	Delete(ctx context.Context, chunkIDs []string) (domain.IndexVersion, error)

	// Search returns the k entries most similar to the query vector,
	// best first, together with the version of the snapshot it
	// searched. The version is exact: it belongs to the entries
	// scanned, not to whatever the index advanced to meanwhile.
	// Filters are applied before scoring. Ties are broken by chunk ID
	// ascending. Returns *domain.DimensionMismatchError when the query
	// vector's length differs from Dimensions().
	Search(ctx context.Context, query []float32, k int, filters domain.SearchFilters) ([]VectorHit, domain.IndexVersion, error)

	// Version returns the current index version, used by callers
	// needing a consistency token.
	Version(ctx context.Context) (domain.IndexVersion, error)

	// Count returns the number of entries in the index.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the index's fixed vector dimensionality.
	Dimensions() int

	// Metric returns the similarity metric, fixed per index instance.
	Metric() domain.SimilarityMetric

	// ModelTag returns the embedding model version the index was built
	// with. Vectors from a different model must never be compared.
	ModelTag() string

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the similarity score for the index's metric.
	Score float64

	// Meta is the entry metadata recorded at insert time.
	Meta domain.EntryMeta
}

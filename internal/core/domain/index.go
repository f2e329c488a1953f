package domain

// IndexVersion is a monotonic counter marking a consistent snapshot of the
// vector index. It increments on every committed insert or delete batch and
// is used for cache invalidation and consistency tokens.
type IndexVersion uint64

// SimilarityMetric identifies how the vector index scores entries
// against a query vector. Fixed per index instance.
type SimilarityMetric string

// Available similarity metrics.
const (
	// MetricCosine scores by cosine similarity (normalised dot product).
	MetricCosine SimilarityMetric = "cosine"

	// MetricDotProduct scores by raw inner product.
	MetricDotProduct SimilarityMetric = "dot"
)

// IsValid returns true if the metric is recognised.
func (m SimilarityMetric) IsValid() bool {
	return m == MetricCosine || m == MetricDotProduct
}

// String returns the string representation.
func (m SimilarityMetric) String() string {
	return string(m)
}

// EntryMeta carries the chunk metadata the index needs for filtering,
// so that searches do not touch the document store.
type EntryMeta struct {
	// DocumentID is the parent document of the chunk.
	DocumentID string

	// SourceURI is the origin of the parent document.
	SourceURI string

	// Position is the chunk's ordinal position within the document.
	Position int
}

// IndexEntry is the (chunk, vector, metadata) triple stored in the
// vector index. Unique per ChunkID.
type IndexEntry struct {
	// ChunkID identifies the chunk this entry belongs to.
	ChunkID string

	// Vector is the embedding for the chunk. Its length must match the
	// index's fixed dimensionality.
	Vector []float32

	// Meta is the filterable chunk metadata.
	Meta EntryMeta
}

package domain

import (
	"sort"
	"strings"
	"time"
)

// SearchFilters restricts which index entries are eligible for a search.
// Filters are applied before scoring.
type SearchFilters struct {
	// DocumentIDs limits results to chunks of these documents.
	// Empty means no document restriction.
	DocumentIDs []string

	// SourceURIs limits results to documents from these origins.
	// Empty means no source restriction.
	SourceURIs []string
}

// IsZero returns true when no filter is set.
func (f SearchFilters) IsZero() bool {
	return len(f.DocumentIDs) == 0 && len(f.SourceURIs) == 0
}

// Matches reports whether an entry's metadata passes the filters.
func (f SearchFilters) Matches(meta EntryMeta) bool {
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, meta.DocumentID) {
		return false
	}
	if len(f.SourceURIs) > 0 && !containsString(f.SourceURIs, meta.SourceURI) {
		return false
	}
	return true
}

// Canonical returns a stable textual form of the filters for cache keying.
// Order of the input slices does not affect the result.
func (f SearchFilters) Canonical() string {
	docs := append([]string(nil), f.DocumentIDs...)
	sources := append([]string(nil), f.SourceURIs...)
	sort.Strings(docs)
	sort.Strings(sources)
	return "docs=" + strings.Join(docs, ",") + ";sources=" + strings.Join(sources, ",")
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Query is a retrieval request against the index.
type Query struct {
	// Text is the caller's query text.
	Text string

	// K is the requested number of results.
	K int

	// Filters restricts eligible entries.
	Filters SearchFilters

	// Rerank enables the secondary lexical re-ranker.
	Rerank bool
}

// RetrievedChunk pairs a chunk with its similarity score.
type RetrievedChunk struct {
	// Chunk is the retrieved chunk, hydrated with content.
	Chunk Chunk

	// Score is the similarity score for the configured metric.
	Score float64
}

// RetrievalResult is an ordered sequence of retrieved chunks.
// Chunks are in descending score order; ties are broken by
// chunk ID ascending so repeated searches are deterministic.
type RetrievalResult struct {
	// Chunks are the retrieved chunks, best first.
	Chunks []RetrievedChunk

	// IndexVersion is the index version the search ran against.
	IndexVersion IndexVersion
}

// ChunkIDs returns the IDs of the retrieved chunks in result order.
func (r *RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r.Chunks))
	for i := range r.Chunks {
		ids[i] = r.Chunks[i].Chunk.ID
	}
	return ids
}

// GeneratedAnswer is a model answer grounded in retrieved chunks.
type GeneratedAnswer struct {
	// Text is the generated answer.
	Text string

	// Citations are the IDs of the chunks included in the
	// generation context, in context order.
	Citations []string

	// IndexVersion is the index version the grounding retrieval used.
	IndexVersion IndexVersion

	// Model is the generation model that produced the answer.
	Model string

	// CreatedAt is when the answer was generated.
	CreatedAt time.Time
}

// Package memory provides an in-memory vector index with exact
// linear-scan k-NN search.
//
// The entry table is copy-on-write: writers build a new table under a
// mutex and publish it atomically, so readers never block and always see
// a whole committed batch or none of it.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds configuration for the in-memory index.
type Config struct {
	// Dimensions is the fixed vector dimensionality (required).
	Dimensions int

	// Metric is the similarity metric (default: cosine).
	Metric domain.SimilarityMetric

	// ModelTag is the embedding model the index is built for.
	ModelTag string
}

// indexedEntry pairs an entry with its precomputed vector norm.
type indexedEntry struct {
	entry domain.IndexEntry
	norm  float64
}

// snapshot is an immutable view of the entry table at one version.
type snapshot struct {
	entries map[string]indexedEntry
	version domain.IndexVersion
}

// Index is an in-memory, versioned vector index.
type Index struct {
	mu       sync.Mutex // serialises writers
	snap     atomic.Pointer[snapshot]
	closed   atomic.Bool
	dims     int
	metric   domain.SimilarityMetric
	modelTag string
}

// New creates an empty in-memory index.
func New(cfg Config) (*Index, error) {
	return NewFromEntries(cfg, nil, 0)
}

// NewFromEntries creates an index pre-populated with entries at the given
// version. Used by persistent implementations to restore state at startup.
func NewFromEntries(cfg Config, entries []domain.IndexEntry, version domain.IndexVersion) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("memory index: dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Metric == "" {
		cfg.Metric = domain.MetricCosine
	}
	if !cfg.Metric.IsValid() {
		return nil, fmt.Errorf("memory index: unknown metric %q", cfg.Metric)
	}

	idx := &Index{
		dims:     cfg.Dimensions,
		metric:   cfg.Metric,
		modelTag: cfg.ModelTag,
	}

	table := make(map[string]indexedEntry, len(entries))
	for _, e := range entries {
		if len(e.Vector) != cfg.Dimensions {
			return nil, &domain.DimensionMismatchError{Want: cfg.Dimensions, Got: len(e.Vector)}
		}
		table[e.ChunkID] = newIndexedEntry(e)
	}
	idx.snap.Store(&snapshot{entries: table, version: version})

	return idx, nil
}

// newIndexedEntry copies the vector into index-owned storage and
// precomputes its norm.
func newIndexedEntry(e domain.IndexEntry) indexedEntry {
	vec := make([]float32, len(e.Vector))
	copy(vec, e.Vector)
	e.Vector = vec

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return indexedEntry{entry: e, norm: math.Sqrt(sum)}
}

// Insert atomically commits a batch of entries.
func (idx *Index) Insert(ctx context.Context, entries []domain.IndexEntry) (domain.IndexVersion, error) {
	if err := idx.checkOpen(ctx); err != nil {
		return 0, err
	}

	// Validate the whole batch before touching the table: the commit is
	// all-or-nothing.
	for _, e := range entries {
		if len(e.Vector) != idx.dims {
			return 0, &domain.DimensionMismatchError{Want: idx.dims, Got: len(e.Vector)}
		}
		if e.ChunkID == "" {
			return 0, fmt.Errorf("insert: %w: entry has empty chunk ID", domain.ErrInvalidInput)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	if len(entries) == 0 {
		// Mirror Delete: nothing committed, nothing bumped.
		return cur.version, nil
	}
	next := cloneTable(cur.entries, len(entries))
	for _, e := range entries {
		// Later duplicates in the batch overwrite earlier ones.
		next[e.ChunkID] = newIndexedEntry(e)
	}

	version := cur.version + 1
	idx.snap.Store(&snapshot{entries: next, version: version})
	return version, nil
}

// Delete removes entries for the given chunk IDs. Absent IDs are ignored;
// the version only advances when something was removed.
func (idx *Index) Delete(ctx context.Context, chunkIDs []string) (domain.IndexVersion, error) {
	if err := idx.checkOpen(ctx); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()

	removed := 0
	for _, id := range chunkIDs {
		if _, ok := cur.entries[id]; ok {
			removed++
		}
	}
	if removed == 0 {
		return cur.version, nil
	}

	next := make(map[string]indexedEntry, len(cur.entries)-removed)
	drop := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = struct{}{}
	}
	for id, e := range cur.entries {
		if _, gone := drop[id]; !gone {
			next[id] = e
		}
	}

	version := cur.version + 1
	idx.snap.Store(&snapshot{entries: next, version: version})
	return version, nil
}

// Search scans every eligible entry and returns the top k by score,
// plus the version of the snapshot scanned. Readers work from an atomic
// snapshot and never block writers.
func (idx *Index) Search(
	ctx context.Context, query []float32, k int, filters domain.SearchFilters,
) ([]driven.VectorHit, domain.IndexVersion, error) {
	if err := idx.checkOpen(ctx); err != nil {
		return nil, 0, err
	}
	if len(query) != idx.dims {
		return nil, 0, &domain.DimensionMismatchError{Want: idx.dims, Got: len(query)}
	}

	snap := idx.snap.Load()
	if k <= 0 {
		return []driven.VectorHit{}, snap.version, nil
	}

	var queryNorm float64
	for _, v := range query {
		queryNorm += float64(v) * float64(v)
	}
	queryNorm = math.Sqrt(queryNorm)

	hits := make([]driven.VectorHit, 0, len(snap.entries))
	for _, e := range snap.entries {
		if !filters.Matches(e.entry.Meta) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID: e.entry.ChunkID,
			Score:   idx.score(query, queryNorm, e),
			Meta:    e.entry.Meta,
		})
	}

	// Descending score; ties broken by chunk ID ascending so repeated
	// searches return identical ordering.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, snap.version, nil
}

// score computes the similarity between the query and an entry.
func (idx *Index) score(query []float32, queryNorm float64, e indexedEntry) float64 {
	var dot float64
	for i, v := range query {
		dot += float64(v) * float64(e.entry.Vector[i])
	}

	if idx.metric == domain.MetricDotProduct {
		return dot
	}

	// Cosine: zero vectors have no direction, score 0.
	if queryNorm == 0 || e.norm == 0 {
		return 0
	}
	return dot / (queryNorm * e.norm)
}

// Version returns the current index version.
func (idx *Index) Version(ctx context.Context) (domain.IndexVersion, error) {
	if err := idx.checkOpen(ctx); err != nil {
		return 0, err
	}
	return idx.snap.Load().version, nil
}

// Count returns the number of entries in the index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	if err := idx.checkOpen(ctx); err != nil {
		return 0, err
	}
	return len(idx.snap.Load().entries), nil
}

// Dimensions returns the index's fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Metric returns the similarity metric.
func (idx *Index) Metric() domain.SimilarityMetric {
	return idx.metric
}

// ModelTag returns the embedding model tag.
func (idx *Index) ModelTag() string {
	return idx.modelTag
}

// Entries returns a copy of all entries, for persistence.
func (idx *Index) Entries() []domain.IndexEntry {
	snap := idx.snap.Load()
	entries := make([]domain.IndexEntry, 0, len(snap.entries))
	for _, e := range snap.entries {
		entries = append(entries, e.entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChunkID < entries[j].ChunkID })
	return entries
}

// Close marks the index closed; further operations fail.
func (idx *Index) Close() error {
	idx.closed.Store(true)
	return nil
}

func (idx *Index) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.closed.Load() {
		return domain.ErrIndexClosed
	}
	return nil
}

func cloneTable(src map[string]indexedEntry, extra int) map[string]indexedEntry {
	dst := make(map[string]indexedEntry, len(src)+extra)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

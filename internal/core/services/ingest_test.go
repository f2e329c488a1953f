package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/chunker"
	"github.com/custodia-labs/retriva/internal/core/domain"
)

func newTestChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	ch, err := chunker.New(
		chunker.WithMaxChunkSize(200),
		chunker.WithOverlap(40),
		chunker.WithMinChunkSize(20),
	)
	require.NoError(t, err)
	return ch
}

func TestIngestService_Ingest(t *testing.T) {
	embedder := &stubEmbedder{}
	index := newTestIndex(t)
	docs := newTestDocStore()
	svc := NewIngestService(newTestChunker(t), embedder, index, docs)

	report, err := svc.Ingest(context.Background(), domain.Document{
		ID:        "doc-1",
		SourceURI: "file:///notes.txt",
		Content:   "Go's scheduler multiplexes goroutines onto OS threads.",
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-1", report.DocumentID)
	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.ChunksCreated)
	assert.Equal(t, domain.IndexVersion(1), report.IndexVersion)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := docs.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ContentHash)
	assert.False(t, stored.IngestedAt.IsZero())
}

func TestIngestService_Ingest_GeneratesID(t *testing.T) {
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, newTestIndex(t), newTestDocStore())

	report, err := svc.Ingest(context.Background(), domain.Document{
		Content: "Documents without an ID get one assigned.",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, report.DocumentID)
}

func TestIngestService_Ingest_EmptyContentFails(t *testing.T) {
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, newTestIndex(t), newTestDocStore())

	_, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: "   \n\t "})

	require.Error(t, err)
	var chunkErr *domain.ChunkingError
	assert.ErrorAs(t, err, &chunkErr)
}

func TestIngestService_Ingest_UnchangedContentSkipped(t *testing.T) {
	index := newTestIndex(t)
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, index, newTestDocStore())

	content := "Re-ingesting identical content must not grow the index."
	first, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: content})
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: content})
	require.NoError(t, err)

	assert.True(t, second.Skipped)
	assert.Equal(t, first.IndexVersion, second.IndexVersion)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ChunksCreated, count)
}

func TestIngestService_Ingest_SameContentDifferentID(t *testing.T) {
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, newTestIndex(t), newTestDocStore())

	content := "The same bytes under a different name are still the same document."
	first, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-a", Content: content})
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-b", Content: content})
	require.NoError(t, err)

	assert.True(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)
}

func TestIngestService_Ingest_ChangedContentReingested(t *testing.T) {
	index := newTestIndex(t)
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, index, newTestDocStore())

	first, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: "Version one of the notes."})
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: "Version two with new material."})
	require.NoError(t, err)

	assert.False(t, second.Skipped)
	assert.Greater(t, second.IndexVersion, first.IndexVersion)
}

func TestIngestService_Ingest_IndexFailureRollsBackDocument(t *testing.T) {
	docs := newTestDocStore()
	index := &failingIndex{
		VectorIndex: newTestIndex(t),
		insertErr:   errors.New("disk full"),
	}
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, index, docs)

	_, err := svc.Ingest(context.Background(), domain.Document{ID: "doc-1", Content: "This commit will fail."})

	require.Error(t, err)
	_, err = docs.GetDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestService_Ingest_ConcurrentIdenticalContent(t *testing.T) {
	embedder := &stubEmbedder{}
	index := newTestIndex(t)
	svc := NewIngestService(newTestChunker(t), embedder, index, newTestDocStore())

	content := "Concurrent ingestions of identical content collapse into one run."
	const callers = 8

	var wg sync.WaitGroup
	reports := make([]*domain.IngestionReport, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = svc.Ingest(context.Background(), domain.Document{Content: content})
		}(i)
	}
	wg.Wait()

	winner := ""
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if winner == "" {
			winner = reports[i].DocumentID
		}
		assert.Equal(t, winner, reports[i].DocumentID)
	}

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.LessOrEqual(t, embedder.batchCalls.Load(), int64(1))
}

func TestIngestService_Ingest_ConcurrentDistinctDocuments(t *testing.T) {
	embedder := &stubEmbedder{}
	index := newTestIndex(t)
	docs := newTestDocStore()
	svc := NewIngestService(newTestChunker(t), embedder, index, docs)

	contents := []string{
		"Goroutines are multiplexed onto OS threads by the runtime scheduler.",
		"Channels synchronize goroutines by communicating values.",
		"The garbage collector runs concurrently with the program.",
		"Interfaces are satisfied implicitly by method sets.",
		"Slices are views over backing arrays with length and capacity.",
		"Maps are not safe for concurrent writes without synchronization.",
	}

	var wg sync.WaitGroup
	errs := make([]error, len(contents))
	for i := range contents {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Ingest(context.Background(), domain.Document{Content: contents[i]})
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
	}

	// Every document's chunks landed; no writer lost an update.
	listed, err := docs.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, len(contents))

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(contents), count)
}

func TestIngestService_IngestAll_ContinuesPastFailures(t *testing.T) {
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, newTestIndex(t), newTestDocStore())

	docs := []domain.Document{
		{ID: "good-1", Content: "First document with real content."},
		{ID: "bad", Content: "   "},
		{ID: "good-2", Content: "Third document, also with content."},
	}

	reports, err := svc.IngestAll(context.Background(), docs)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	require.Len(t, reports, 2)
	assert.Equal(t, "good-1", reports[0].DocumentID)
	assert.Equal(t, "good-2", reports[1].DocumentID)
}

func TestIngestService_Remove(t *testing.T) {
	index := newTestIndex(t)
	docs := newTestDocStore()
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, index, docs)

	_, err := svc.Ingest(context.Background(), domain.Document{
		ID:      "doc-1",
		Content: "Content that will be removed again.",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "doc-1"))

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = docs.GetDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestService_Remove_UnknownDocument(t *testing.T) {
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, newTestIndex(t), newTestDocStore())

	err := svc.Remove(context.Background(), "no-such-doc")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestService_Ingest_LongDocumentMultipleChunks(t *testing.T) {
	index := newTestIndex(t)
	svc := NewIngestService(newTestChunker(t), &stubEmbedder{}, index, newTestDocStore())

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Every paragraph talks about something slightly different. ")
	}

	report, err := svc.Ingest(context.Background(), domain.Document{ID: "long", Content: b.String()})

	require.NoError(t, err)
	assert.Greater(t, report.ChunksCreated, 1)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.ChunksCreated, count)
}

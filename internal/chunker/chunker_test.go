package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

func newChunker(t *testing.T, opts ...Option) *Chunker {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsContradictoryConfig(t *testing.T) {
	t.Run("min exceeds max", func(t *testing.T) {
		_, err := New(WithMaxChunkSize(100), WithMinChunkSize(500))
		var chunkErr *domain.ChunkingError
		assert.ErrorAs(t, err, &chunkErr)
	})

	t.Run("overlap not smaller than max", func(t *testing.T) {
		_, err := New(WithMaxChunkSize(100), WithOverlap(100), WithMinChunkSize(10))
		var chunkErr *domain.ChunkingError
		assert.ErrorAs(t, err, &chunkErr)
	})
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	c := newChunker(t)

	doc := domain.Document{ID: "doc-1", Content: "A. B. C."}
	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "A. B. C.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.NotEmpty(t, chunks[0].ID)
	assert.Equal(t, domain.HashContent("A. B. C."), chunks[0].ContentHash)
}

func TestSplitEmptyContent(t *testing.T) {
	doc := domain.Document{ID: "doc-1", Content: "  \n \t "}

	t.Run("errors by default", func(t *testing.T) {
		c := newChunker(t)
		_, err := c.Split(&doc)
		var chunkErr *domain.ChunkingError
		assert.ErrorAs(t, err, &chunkErr)
	})

	t.Run("empty sequence when allowed", func(t *testing.T) {
		c := newChunker(t, WithAllowEmpty(true))
		chunks, err := c.Split(&doc)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(50), WithOverlap(0), WithMinChunkSize(5))

	para1 := strings.Repeat("a", 40)
	para2 := strings.Repeat("b", 40)
	doc := domain.Document{ID: "doc-1", Content: para1 + "\n\n" + para2}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0].Content)
	assert.Equal(t, para2, chunks[1].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestSplitFallsBackToSentences(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(40), WithOverlap(0), WithMinChunkSize(5))

	// One paragraph longer than max, split at sentence boundaries.
	doc := domain.Document{
		ID:      "doc-1",
		Content: "The first sentence is right here. The second sentence follows it.",
	}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "The first sentence is right here.", chunks[0].Content)
	assert.Equal(t, "The second sentence follows it.", chunks[1].Content)
}

func TestSplitHardCutsOversizedSentence(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(100), WithOverlap(0), WithMinChunkSize(0))

	// A single "sentence" with no terminators, longer than max.
	doc := domain.Document{ID: "doc-1", Content: strings.Repeat("x", 250)}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 100)
	}

	// No characters lost across the cuts.
	var rebuilt strings.Builder
	for _, chunk := range chunks {
		rebuilt.WriteString(chunk.Content)
	}
	assert.Equal(t, strings.Repeat("x", 250), strings.ReplaceAll(rebuilt.String(), " ", ""))
}

func TestSplitOverlapSharedBetweenChunks(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(60), WithOverlap(20), WithMinChunkSize(5))

	doc := domain.Document{
		ID:      "doc-1",
		Content: "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu.",
	}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// The second chunk starts with material from the end of the first.
	firstWords := strings.Fields(chunks[0].Content)
	lastWord := firstWords[len(firstWords)-1]
	assert.Contains(t, chunks[1].Content, lastWord)
}

func TestSplitNeverExceedsMaxSize(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(100), WithOverlap(40), WithMinChunkSize(10))

	// Sentences just under the max leave no room for a full overlap
	// tail; the seeded tail must shrink rather than push a chunk over
	// the budget.
	sentence := strings.TrimSpace(strings.Repeat("abcdefghi ", 9)) + "."
	require.Equal(t, 90, len(sentence))
	doc := domain.Document{
		ID:      "doc-1",
		Content: strings.Repeat(sentence+" ", 5),
	}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 100,
			"chunk %d has %d chars", i, len(chunk.Content))
	}
}

func TestSplitHardCutKeepsValidUTF8(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(25), WithOverlap(10), WithMinChunkSize(0))

	// A single oversized "sentence" of multi-byte runes forces hard
	// cuts; none of them may land inside a rune.
	doc := domain.Document{ID: "doc-1", Content: strings.Repeat("語", 40)}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Content),
			"chunk %d contains invalid UTF-8: %q", i, chunk.Content)
		assert.LessOrEqual(t, len(chunk.Content), 25)
	}
}

func TestSplitMergesTrailingRunt(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(50), WithOverlap(0), WithMinChunkSize(20))

	doc := domain.Document{
		ID:      "doc-1",
		Content: strings.Repeat("a", 45) + "\n\nend.",
	}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	// The 4-character paragraph merges into its predecessor.
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "end.")
}

func TestSplitDeterministicPositions(t *testing.T) {
	c := newChunker(t, WithMaxChunkSize(80), WithOverlap(10), WithMinChunkSize(5))

	doc := domain.Document{
		ID:      "doc-1",
		Content: strings.Repeat("Sentence one here. ", 20),
	}

	chunks, err := c.Split(&doc)
	require.NoError(t, err)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
	}

	// Content layout is stable across runs; only IDs differ.
	again, err := c.Split(&doc)
	require.NoError(t, err)
	require.Len(t, again, len(chunks))
	for i := range chunks {
		assert.Equal(t, chunks[i].Content, again[i].Content)
	}
}

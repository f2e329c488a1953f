package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Document represents a normalised text document submitted for ingestion.
// Text extraction from rich formats (PDF, HTML, etc.) happens upstream;
// by the time a Document reaches Retriva its Content is plain text.
// Documents are immutable once ingested.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURI is the original location (file path, URL, etc).
	SourceURI string

	// Title is the human-readable title.
	Title string

	// Content is the full normalised text content before chunking.
	Content string

	// ContentHash is the SHA-256 hex digest of Content.
	// Re-ingesting a document with an unchanged hash is a no-op.
	ContentHash string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document was committed to the index.
	IngestedAt time.Time
}

// Chunk represents a bounded span of a document's text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document, from 0.
	Position int

	// ContentHash is the SHA-256 hex digest of Content.
	ContentHash string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// IngestionReport summarises the outcome of a single document ingestion.
type IngestionReport struct {
	// DocumentID is the document the report refers to.
	DocumentID string

	// Skipped is true when the document's content hash was already
	// ingested and the pipeline did nothing.
	Skipped bool

	// ChunksCreated is the number of chunks committed to the index.
	ChunksCreated int

	// IndexVersion is the index version after the commit.
	// Unchanged when Skipped is true.
	IndexVersion IndexVersion

	// Duration is the wall-clock time the ingestion took.
	Duration time.Duration
}

// NormalizeText collapses line endings and trims surrounding whitespace.
// It is the single text boundary between upstream extraction and the chunker.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// HashContent returns the SHA-256 hex digest of the given text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Package chunker splits normalised document text into overlapping
// passages sized for embedding.
//
// Splitting prefers paragraph boundaries, then sentence boundaries, and
// falls back to hard character cuts only when a single sentence exceeds
// the maximum chunk size. Adjacent chunks share a configurable overlap
// so context survives the cut.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// Default configuration values.
const (
	// DefaultMaxChunkSize is the default maximum chunk length in characters.
	DefaultMaxChunkSize = 1000

	// DefaultOverlap is the default number of characters shared by
	// adjacent chunks.
	DefaultOverlap = 200

	// DefaultMinChunkSize is the smallest chunk emitted on its own;
	// runts merge into their predecessor.
	DefaultMinChunkSize = 100
)

// Chunker splits document content into overlapping chunks.
type Chunker struct {
	maxChunkSize int
	overlap      int
	minChunkSize int
	allowEmpty   bool
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChunkSize sets the maximum chunk size in characters.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxChunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the smallest chunk emitted on its own.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minChunkSize = size
		}
	}
}

// WithAllowEmpty makes empty input yield an empty chunk sequence
// instead of an error.
func WithAllowEmpty(allow bool) Option {
	return func(c *Chunker) {
		c.allowEmpty = allow
	}
}

// New creates a chunker with the given options.
// Returns *domain.ChunkingError when the configuration is contradictory.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		overlap:      DefaultOverlap,
		minChunkSize: DefaultMinChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.minChunkSize > c.maxChunkSize {
		return nil, domain.NewChunkingError(
			"min chunk size %d exceeds max chunk size %d", c.minChunkSize, c.maxChunkSize)
	}
	if c.overlap >= c.maxChunkSize {
		return nil, domain.NewChunkingError(
			"overlap %d must be smaller than max chunk size %d", c.overlap, c.maxChunkSize)
	}

	return c, nil
}

// Split chunks the document's normalised content.
// Empty content returns *domain.ChunkingError unless the chunker was
// built with WithAllowEmpty. Ordinal positions start at 0.
func (c *Chunker) Split(doc *domain.Document) ([]domain.Chunk, error) {
	content := domain.NormalizeText(doc.Content)
	if content == "" {
		if c.allowEmpty {
			return nil, nil
		}
		return nil, domain.NewChunkingError("document %s has no content after normalisation", doc.ID)
	}

	units := c.splitUnits(content)
	texts := c.pack(units)

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Content:     text,
			Position:    i,
			ContentHash: domain.HashContent(text),
		}
	}

	return chunks, nil
}

// splitUnits breaks content into atomic units no longer than the maximum
// chunk size: paragraphs where they fit, sentences where a paragraph is
// too long, hard cuts where a single sentence is too long.
func (c *Chunker) splitUnits(content string) []string {
	var units []string

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) <= c.maxChunkSize {
			units = append(units, para)
			continue
		}

		for _, sentence := range splitSentences(para) {
			if len(sentence) <= c.maxChunkSize {
				units = append(units, sentence)
				continue
			}

			// Single sentence exceeds the budget: hard cuts, never
			// through the middle of a rune.
			for start := 0; start < len(sentence); {
				end := start + c.maxChunkSize
				if end >= len(sentence) {
					units = append(units, sentence[start:])
					break
				}
				for end > start && !utf8.RuneStart(sentence[end]) {
					end--
				}
				if end == start {
					_, size := utf8.DecodeRuneInString(sentence[start:])
					end = start + size
				}
				units = append(units, sentence[start:end])
				start = end
			}
		}
	}

	return units
}

// pack greedily joins units into chunks under the size budget, seeding
// each new chunk with the tail of its predecessor for continuity.
// A final runt below the minimum size merges into the previous chunk.
func (c *Chunker) pack(units []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
	}

	for _, unit := range units {
		if current.Len() > 0 && current.Len()+1+len(unit) > c.maxChunkSize {
			tail := overlapTail(current.String(), c.overlap)
			flush()
			// The seeded tail counts against the new chunk's budget:
			// trim it so tail, separator, and unit stay within the max.
			if budget := c.maxChunkSize - len(unit) - 1; budget <= 0 {
				tail = ""
			} else if len(tail) > budget {
				tail = overlapTail(tail, budget)
			}
			if tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(unit)
	}
	flush()

	// Merge a trailing runt into its predecessor when the result still
	// fits the budget.
	if len(chunks) > 1 && len(chunks[len(chunks)-1]) < c.minChunkSize {
		merged := chunks[len(chunks)-2] + " " + chunks[len(chunks)-1]
		if len(merged) <= c.maxChunkSize {
			chunks[len(chunks)-2] = merged
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks
}

// overlapTail returns at most the last n bytes of text, shortened to the
// nearest word boundary so the overlap never starts mid-word, and to the
// nearest rune boundary so it is always valid UTF-8.
func overlapTail(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	if len(text) <= n {
		return text
	}
	cut := len(text) - n
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	tail := text[cut:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}

// splitSentences splits a paragraph at sentence terminators.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			followedBySpace := !atEnd && (runes[i+1] == ' ' || runes[i+1] == '\n')
			if atEnd || followedBySpace {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

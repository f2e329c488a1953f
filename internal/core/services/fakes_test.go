package services

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	memindex "github.com/custodia-labs/retriva/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/retriva/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

const testDims = 8

// stubEmbedder produces deterministic embeddings derived from the text,
// so identical texts map to identical vectors and self-retrieval works.
type stubEmbedder struct {
	embedCalls atomic.Int64
	batchCalls atomic.Int64
	err        error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.embedCalls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return textVector(text), nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = textVector(text)
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimensions() int            { return testDims }
func (e *stubEmbedder) ModelName() string          { return "stub-embed-v1" }
func (e *stubEmbedder) MaxBatchSize() int          { return 64 }
func (e *stubEmbedder) Ping(context.Context) error { return e.err }
func (e *stubEmbedder) Close() error               { return nil }

// textVector hashes the text into a fixed-dimension vector. Different
// texts land in different directions with overwhelming probability.
func textVector(text string) []float32 {
	vec := make([]float32, testDims)
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		// Spread hash bits over [-1, 1).
		vec[i] = float32(int64(h.Sum64()%2000)-1000) / 1000
	}
	return vec
}

// stubLLM returns scripted responses and records prompts.
type stubLLM struct {
	response  string
	err       error
	pingErr   error
	prompts   []string
	genCalls  atomic.Int64
	chatCalls atomic.Int64
}

func (l *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.genCalls.Add(1)
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return "", l.err
	}
	return l.response, nil
}

func (l *stubLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.chatCalls.Add(1)
	if l.err != nil {
		return "", l.err
	}
	return l.response, nil
}

func (l *stubLLM) ModelName() string          { return "stub-llm-v1" }
func (l *stubLLM) Ping(context.Context) error { return l.pingErr }
func (l *stubLLM) Close() error               { return nil }

// stubPrompts serves minimal templates compatible with the real defaults.
type stubPrompts struct{}

func (stubPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswer:
		return "Context:\n%s\n\nQuestion: %s", nil
	case driven.PromptQuiz:
		return "Context:\n%s\n\nTopic: %s\nQuestions: %d", nil
	case driven.PromptRecommend:
		return "Progress:\n%s", nil
	default:
		return "You are a helpful assistant.", nil
	}
}

func (stubPrompts) Reload() {}

// memProgressStore keeps progress in memory for tests.
type memProgressStore struct {
	progress domain.StudyProgress
	loadErr  error
	saveErr  error
}

func (s *memProgressStore) Load() (domain.StudyProgress, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.progress == nil {
		return domain.StudyProgress{}, nil
	}
	return s.progress, nil
}

func (s *memProgressStore) Save(progress domain.StudyProgress) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.progress = progress
	return nil
}

func (s *memProgressStore) Path() string { return "memory://progress" }

// racingIndex wraps a real index and commits an extra entry during every
// search, simulating a writer racing concurrent readers.
type racingIndex struct {
	driven.VectorIndex
	extra domain.IndexEntry
}

func (r *racingIndex) Search(
	ctx context.Context, query []float32, k int, filters domain.SearchFilters,
) ([]driven.VectorHit, domain.IndexVersion, error) {
	hits, version, err := r.VectorIndex.Search(ctx, query, k, filters)
	if err != nil {
		return nil, 0, err
	}
	if _, err := r.VectorIndex.Insert(ctx, []domain.IndexEntry{r.extra}); err != nil {
		return nil, 0, err
	}
	return hits, version, nil
}

// failingIndex wraps a real index and fails writes, for rollback tests.
type failingIndex struct {
	driven.VectorIndex
	insertErr error
}

func (f *failingIndex) Insert(ctx context.Context, entries []domain.IndexEntry) (domain.IndexVersion, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	return f.VectorIndex.Insert(ctx, entries)
}

func newTestIndex(t interface{ Fatalf(string, ...any) }) driven.VectorIndex {
	idx, err := memindex.New(memindex.Config{
		Dimensions: testDims,
		Metric:     domain.MetricCosine,
		ModelTag:   "stub-embed-v1",
	})
	if err != nil {
		t.Fatalf("creating test index: %v", err)
	}
	return idx
}

func newTestDocStore() *memory.DocumentStore {
	return memory.NewDocumentStore()
}

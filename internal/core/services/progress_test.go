package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

func newProgressFixture(llm *stubLLM) (*ProgressService, *memProgressStore) {
	store := &memProgressStore{}
	// Avoid wrapping a typed nil *stubLLM in the interface parameter, which
	// would defeat the service's nil check.
	var llmSvc driven.LLMService
	if llm != nil {
		llmSvc = llm
	}
	svc := NewProgressService(store, llmSvc, stubPrompts{}, domain.DefaultAppSettings().Generation)
	return svc, store
}

func TestProgressService_SubmitAnswer_Grading(t *testing.T) {
	svc, _ := newProgressFixture(nil)

	eval, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic:         "goroutines",
		UserAnswer:    "  Channels ",
		CorrectAnswer: "channels",
	})
	require.NoError(t, err)
	assert.True(t, eval.Correct)
	assert.Equal(t, "Correct! Well done.", eval.Feedback)
	assert.Equal(t, 1, eval.Progress.Attempts)
	assert.Equal(t, 1, eval.Progress.Correct)

	eval, err = svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic:         "goroutines",
		UserAnswer:    "mutexes",
		CorrectAnswer: "channels",
	})
	require.NoError(t, err)
	assert.False(t, eval.Correct)
	assert.Equal(t, "Incorrect. The right answer is: channels", eval.Feedback)
	assert.Equal(t, 2, eval.Progress.Attempts)
	assert.Equal(t, 1, eval.Progress.Correct)
	assert.InDelta(t, 0.5, eval.Progress.Accuracy(), 1e-9)
}

func TestProgressService_SubmitAnswer_ValidatesInput(t *testing.T) {
	svc, _ := newProgressFixture(nil)

	_, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic: " ", UserAnswer: "a", CorrectAnswer: "a",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic: "goroutines", UserAnswer: "a", CorrectAnswer: "  ",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProgressService_SubmitAnswer_HistoryCapped(t *testing.T) {
	svc, _ := newProgressFixture(nil)

	for i := 0; i < 14; i++ {
		_, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
			Topic:         "scheduling",
			UserAnswer:    strconv.Itoa(i),
			CorrectAnswer: "42",
		})
		require.NoError(t, err)
	}

	progress, err := svc.Progress(context.Background())
	require.NoError(t, err)
	topic := progress["scheduling"]

	// Totals keep counting while history retains only the newest answers.
	assert.Equal(t, 14, topic.Attempts)
	require.Len(t, topic.History, 10)
	assert.Equal(t, "4", topic.History[0].UserAnswer)
	assert.Equal(t, "13", topic.History[9].UserAnswer)
}

func TestProgressService_SubmitAnswer_SeparatesTopics(t *testing.T) {
	svc, _ := newProgressFixture(nil)

	for _, topic := range []string{"gc", "gc", "stacks"} {
		_, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
			Topic: topic, UserAnswer: "x", CorrectAnswer: "x",
		})
		require.NoError(t, err)
	}

	progress, err := svc.Progress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, progress["gc"].Attempts)
	assert.Equal(t, 1, progress["stacks"].Attempts)
}

func TestProgressService_Recommend(t *testing.T) {
	llm := &stubLLM{response: "Focus on garbage collection."}
	svc, _ := newProgressFixture(llm)

	_, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic: "gc", UserAnswer: "wrong", CorrectAnswer: "right",
	})
	require.NoError(t, err)

	advice, err := svc.Recommend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Focus on garbage collection.", advice)

	// The prompt carries the progress data the advice is based on.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], `"gc"`)
	assert.Contains(t, llm.prompts[0], `"attempts": 1`)
}

func TestProgressService_Recommend_EmptyHistorySkipsLLM(t *testing.T) {
	llm := &stubLLM{response: "unused"}
	svc, _ := newProgressFixture(llm)

	advice, err := svc.Recommend(context.Background())
	require.NoError(t, err)
	assert.Contains(t, advice, "No quiz history yet")
	assert.Zero(t, llm.genCalls.Load())
}

func TestProgressService_Recommend_NoLLM(t *testing.T) {
	svc, _ := newProgressFixture(nil)

	_, err := svc.Recommend(context.Background())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestProgressService_SubmitAnswer_StoreFailureSurfaces(t *testing.T) {
	store := &memProgressStore{saveErr: fmt.Errorf("disk full")}
	svc := NewProgressService(store, nil, stubPrompts{}, domain.DefaultAppSettings().Generation)

	_, err := svc.SubmitAnswer(context.Background(), driving.AnswerSubmission{
		Topic: "gc", UserAnswer: "x", CorrectAnswer: "x",
	})
	assert.ErrorContains(t, err, "saving progress")
}

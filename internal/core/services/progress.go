package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
	"github.com/custodia-labs/retriva/internal/logger"
)

var _ driving.ProgressService = (*ProgressService)(nil)

// ProgressService grades quiz answers, tracks per-topic performance, and
// recommends what to study next. Grading is local string comparison; only
// Recommend consults the LLM.
type ProgressService struct {
	store      driven.ProgressStore
	llm        driven.LLMService
	prompts    driven.PromptStore
	generation domain.GenerationSettings

	// mu serialises read-modify-write cycles against the store.
	mu  sync.Mutex
	now func() time.Time
}

// NewProgressService creates a progress service. llm may be nil; then
// Recommend reports ErrLLMUnavailable while grading keeps working.
func NewProgressService(
	store driven.ProgressStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	generation domain.GenerationSettings,
) *ProgressService {
	return &ProgressService{
		store:      store,
		llm:        llm,
		prompts:    prompts,
		generation: generation,
		now:        time.Now,
	}
}

// SubmitAnswer grades an answer against the expected one and folds the
// result into the topic's progress. Comparison ignores case and
// surrounding whitespace.
func (s *ProgressService) SubmitAnswer(
	ctx context.Context, sub driving.AnswerSubmission,
) (*domain.AnswerEvaluation, error) {
	topic := domain.NormalizeText(sub.Topic)
	if topic == "" {
		return nil, fmt.Errorf("submit answer: %w: empty topic", domain.ErrInvalidInput)
	}
	correctAnswer := strings.TrimSpace(sub.CorrectAnswer)
	if correctAnswer == "" {
		return nil, fmt.Errorf("submit answer: %w: empty correct answer", domain.ErrInvalidInput)
	}

	correct := strings.EqualFold(strings.TrimSpace(sub.UserAnswer), correctAnswer)
	feedback := "Correct! Well done."
	if !correct {
		feedback = fmt.Sprintf("Incorrect. The right answer is: %s", correctAnswer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}

	topicProgress := progress[topic]
	topicProgress.Record(domain.AnswerRecord{
		Correct:       correct,
		UserAnswer:    strings.TrimSpace(sub.UserAnswer),
		CorrectAnswer: correctAnswer,
		AnsweredAt:    s.now().UTC(),
	})
	progress[topic] = topicProgress

	if err := s.store.Save(progress); err != nil {
		return nil, fmt.Errorf("saving progress: %w", err)
	}
	logger.Debug("Recorded answer for %q: correct=%v attempts=%d", topic, correct, topicProgress.Attempts)

	return &domain.AnswerEvaluation{
		Topic:    topic,
		Correct:  correct,
		Feedback: feedback,
		Progress: topicProgress,
	}, nil
}

// Progress returns the accumulated per-topic quiz performance.
func (s *ProgressService) Progress(_ context.Context) (domain.StudyProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// Recommend asks the LLM what to study next based on past performance.
// With no recorded answers there is nothing to base advice on, so a
// fixed hint is returned without a model call.
func (s *ProgressService) Recommend(ctx context.Context) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	s.mu.Lock()
	progress, err := s.store.Load()
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("loading progress: %w", err)
	}
	if len(progress) == 0 {
		return "No quiz history yet. Take a quiz first, then ask again.", nil
	}

	encoded, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding progress: %w", err)
	}

	template, err := s.prompts.Load(driven.PromptRecommend)
	if err != nil {
		return "", fmt.Errorf("loading recommend prompt: %w", err)
	}

	recommendation, err := s.llm.Generate(ctx, fmt.Sprintf(template, encoded), driven.GenerateOptions{
		MaxTokens:   s.generation.MaxTokens,
		Temperature: s.generation.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generating recommendation: %w", err)
	}
	return strings.TrimSpace(recommendation), nil
}

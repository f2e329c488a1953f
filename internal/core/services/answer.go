package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/logger"
)

// quizJSONInstruction is appended to the quiz prompt so the model returns
// machine-parseable output.
const quizJSONInstruction = `

Respond with ONLY a JSON object, no surrounding prose, in this exact shape:
{"questions": [{"question": "...", "options": ["...", "..."], "correct_index": 0, "explanation": "..."}]}`

// Quiz generates a multiple-choice quiz about a topic, grounded in
// retrieved chunks.
func (s *QueryService) Quiz(ctx context.Context, topic string, questions int) (*domain.Quiz, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	topic = domain.NormalizeText(topic)
	if topic == "" {
		return nil, domain.ErrEmptyQuery
	}
	if questions <= 0 {
		questions = 5
	}

	result, err := s.retrieve(ctx, domain.Query{Text: topic, K: s.retrieval.TopK})
	if err != nil {
		return nil, err
	}

	contextText, citations := s.buildContext(result)
	logger.Debug("Quiz on %q grounded on %d chunks", topic, len(citations))

	template, err := s.prompts.Load(driven.PromptQuiz)
	if err != nil {
		return nil, fmt.Errorf("loading quiz prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, contextText, topic, questions) + quizJSONInstruction

	// Quizzes need more room than answers; each question carries options
	// and an explanation.
	maxTokens := s.generation.MaxTokens * questions
	if maxTokens < 1024 {
		maxTokens = 1024
	}

	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: s.generation.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating quiz: %w", err)
	}

	quiz, err := parseQuiz(raw)
	if err != nil {
		return nil, err
	}
	quiz.Topic = topic
	quiz.Citations = citations
	return quiz, nil
}

// parseQuiz decodes a model response into a Quiz. Models sometimes wrap
// the JSON in a markdown fence despite instructions, so fences are
// stripped before decoding. Anything else malformed is an error.
func parseQuiz(raw string) (*domain.Quiz, error) {
	cleaned := stripJSONFence(raw)

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(cleaned), &quiz); err != nil {
		return nil, fmt.Errorf("model returned malformed quiz JSON: %w", err)
	}
	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("model returned invalid quiz: %w", err)
	}
	return &quiz, nil
}

// stripJSONFence removes a surrounding ```json ... ``` fence if present.
func stripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package driving

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// AnswerSubmission is a quiz answer to grade and record.
type AnswerSubmission struct {
	// Topic is the subject the question belonged to.
	Topic string

	// UserAnswer is the answer as given.
	UserAnswer string

	// CorrectAnswer is the expected answer.
	CorrectAnswer string
}

// ProgressService grades quiz answers, tracks per-topic performance,
// and recommends what to study next.
type ProgressService interface {
	// SubmitAnswer grades an answer and folds it into the topic's
	// progress.
	SubmitAnswer(ctx context.Context, sub AnswerSubmission) (*domain.AnswerEvaluation, error)

	// Progress returns the accumulated per-topic quiz performance.
	Progress(ctx context.Context) (domain.StudyProgress, error)

	// Recommend suggests what to study next based on past performance.
	Recommend(ctx context.Context) (string, error)
}

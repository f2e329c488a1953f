package domain

import "fmt"

// QuizQuestion is a single multiple-choice question generated from
// retrieved material.
type QuizQuestion struct {
	// Question is the question text.
	Question string `json:"question"`

	// Options are the candidate answers.
	Options []string `json:"options"`

	// CorrectIndex is the index into Options of the right answer.
	CorrectIndex int `json:"correct_index"`

	// Explanation says why the right answer is right.
	Explanation string `json:"explanation"`
}

// Quiz is a set of questions grounded in retrieved chunks.
type Quiz struct {
	// Topic is the subject the quiz was generated for.
	Topic string `json:"topic"`

	// Questions are the quiz questions.
	Questions []QuizQuestion `json:"questions"`

	// Citations are the IDs of the chunks the quiz was grounded on.
	Citations []string `json:"citations,omitempty"`
}

// Validate checks the quiz for structural problems. Generation models
// occasionally return malformed option lists or out-of-range indices.
func (q *Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz has no questions")
	}
	for i, question := range q.Questions {
		if question.Question == "" {
			return fmt.Errorf("question %d: empty question text", i)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("question %d: needs at least 2 options, got %d", i, len(question.Options))
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("question %d: correct_index %d out of range [0,%d)",
				i, question.CorrectIndex, len(question.Options))
		}
	}
	return nil
}

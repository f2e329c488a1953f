package domain

import "time"

// answerHistoryLimit caps how many graded answers a topic retains.
const answerHistoryLimit = 10

// AnswerRecord is one graded quiz answer.
type AnswerRecord struct {
	// Correct reports whether the answer matched.
	Correct bool `json:"correct"`

	// UserAnswer is the answer as submitted.
	UserAnswer string `json:"user_answer"`

	// CorrectAnswer is the expected answer.
	CorrectAnswer string `json:"correct_answer"`

	// AnsweredAt is when the answer was graded.
	AnsweredAt time.Time `json:"answered_at"`
}

// TopicProgress accumulates quiz performance for one topic.
type TopicProgress struct {
	// Attempts is the total number of answers submitted.
	Attempts int `json:"attempts"`

	// Correct is the number of correct answers.
	Correct int `json:"correct"`

	// History holds the most recent graded answers, oldest first.
	History []AnswerRecord `json:"history"`
}

// Record folds a graded answer into the topic's running totals. Only the
// most recent answers are kept in History.
func (p *TopicProgress) Record(rec AnswerRecord) {
	p.Attempts++
	if rec.Correct {
		p.Correct++
	}
	p.History = append(p.History, rec)
	if len(p.History) > answerHistoryLimit {
		p.History = p.History[len(p.History)-answerHistoryLimit:]
	}
}

// Accuracy is the fraction of attempts answered correctly.
func (p TopicProgress) Accuracy() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Attempts)
}

// StudyProgress maps topics to their accumulated quiz performance.
type StudyProgress map[string]TopicProgress

// AnswerEvaluation is the graded outcome of a submitted quiz answer.
type AnswerEvaluation struct {
	// Topic is the topic the question belonged to.
	Topic string `json:"topic"`

	// Correct reports whether the submitted answer matched.
	Correct bool `json:"correct"`

	// Feedback is a short human-readable verdict.
	Feedback string `json:"feedback"`

	// Progress is the topic's state after recording this answer.
	Progress TopicProgress `json:"progress"`
}

// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// AnswerReceived carries a generated answer back to the model.
type AnswerReceived struct {
	Answer *domain.GeneratedAnswer
	Err    error
}

// StatusLoaded carries the system status for the status bar.
type StatusLoaded struct {
	Status *driving.SystemStatus
	Err    error
}

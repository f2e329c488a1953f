package driven

import "github.com/custodia-labs/retriva/internal/core/domain"

// ProgressStore persists quiz progress across sessions.
// Implementations handle serialisation and durable storage.
type ProgressStore interface {
	// Load returns the stored progress. A store with nothing saved yet
	// returns an empty, non-nil map.
	Load() (domain.StudyProgress, error)

	// Save persists the full progress snapshot, replacing what was
	// stored before.
	Save(progress domain.StudyProgress) error

	// Path returns the backing file path, for diagnostics.
	Path() string
}

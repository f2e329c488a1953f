// Package file provides file-backed persistence for small per-user state.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Ensure ProgressStore implements the interface.
var _ driven.ProgressStore = (*ProgressStore)(nil)

// ProgressStore persists quiz progress as a JSON file keyed by topic.
type ProgressStore struct {
	mu       sync.Mutex
	filePath string
}

// NewProgressStore creates a file-based progress store.
// If dir is empty, defaults to ~/.retriva/progress.json.
func NewProgressStore(dir string) (*ProgressStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".retriva")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &ProgressStore{filePath: filepath.Join(dir, "progress.json")}, nil
}

// Load reads the stored progress. A missing file is an empty store, not
// an error.
func (s *ProgressStore) Load() (domain.StudyProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.StudyProgress{}, nil
		}
		return nil, fmt.Errorf("reading progress: %w", err)
	}

	progress := domain.StudyProgress{}
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("parsing progress: %w", err)
	}
	return progress, nil
}

// Save writes the full progress snapshot with restricted permissions.
func (s *ProgressStore) Save(progress domain.StudyProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (s *ProgressStore) Path() string {
	return s.filePath
}

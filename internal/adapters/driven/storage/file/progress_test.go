package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

func TestProgressStoreEmptyWhenMissing(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)

	progress, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, progress)
	assert.Empty(t, progress)
}

func TestProgressStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	saved := domain.StudyProgress{
		"goroutines": {
			Attempts: 3,
			Correct:  2,
			History: []domain.AnswerRecord{
				{Correct: true, UserAnswer: "channels", CorrectAnswer: "channels",
					AnsweredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
			},
		},
	}
	require.NoError(t, store.Save(saved))

	// A fresh store over the same directory sees the persisted state.
	reopened, err := NewProgressStore(dir)
	require.NoError(t, err)
	loaded, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestProgressStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "progress.json"), []byte("not json"), 0600))

	_, err = store.Load()
	assert.ErrorContains(t, err, "parsing progress")
}

package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_RejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestNew_RejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file.txt", "content")

	_, err := New(path)
	assert.Error(t, err)
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "plain text notes")
	writeFile(t, dir, "readme.md", "# markdown")
	writeFile(t, dir, "nested/deep.markdown", "nested markdown")
	writeFile(t, dir, "image.png", "not a document")
	writeFile(t, dir, ".hidden/secret.txt", "hidden files stay out")

	source, err := New(dir)
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	docs, err := source.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	titles := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		titles[doc.Title] = doc
	}
	assert.Contains(t, titles, "notes")
	assert.Contains(t, titles, "readme")
	assert.Contains(t, titles, "deep")

	notes := titles["notes"]
	assert.Equal(t, "plain text notes", notes.Content)
	assert.NotEmpty(t, notes.ID)
	assert.Contains(t, notes.SourceURI, "file://")
	assert.Equal(t, "notes.txt", notes.Metadata["relative_path"])
}

func TestSource_Load_StableIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "first version")

	source, err := New(dir)
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	first, err := source.Load(context.Background())
	require.NoError(t, err)

	writeFile(t, dir, "doc.txt", "second version")

	second, err := source.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	// Same path, same ID: re-loads update instead of duplicating.
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[0].Content, second[0].Content)
}

func TestSource_Load_EmptyDir(t *testing.T) {
	source, err := New(t.TempDir())
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	docs, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func waitForDoc(t *testing.T, docs <-chan domain.Document, errs <-chan error) domain.Document {
	t.Helper()
	select {
	case doc := <-docs:
		return doc
	case err := <-errs:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for document")
	}
	return domain.Document{}
}

func TestSource_Watch_EmitsChangedFile(t *testing.T) {
	dir := t.TempDir()
	source, err := New(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, errs, err := source.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "fresh.md", "# freshly written")

	doc := waitForDoc(t, docs, errs)
	assert.Equal(t, "fresh", doc.Title)
	assert.Equal(t, "# freshly written", doc.Content)
}

func TestSource_Watch_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	source, err := New(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, errs, err := source.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "binary.bin", "ignored")
	writeFile(t, dir, "wanted.txt", "picked up")

	doc := waitForDoc(t, docs, errs)
	assert.Equal(t, "wanted", doc.Title)
}

func TestSource_Watch_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	source, err := New(dir, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, errs, err := source.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(dir, "busy.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("revision"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	doc := waitForDoc(t, docs, errs)
	assert.Equal(t, "busy", doc.Title)

	// The burst settled into a single emission.
	select {
	case extra := <-docs:
		t.Fatalf("unexpected second emission for %s", extra.Title)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSource_Watch_ChannelsCloseOnCancel(t *testing.T) {
	dir := t.TempDir()
	source, err := New(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	docs, errs, err := source.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-docs:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("docs channel did not close")
	}
	select {
	case _, open := <-errs:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("errs channel did not close")
	}
}

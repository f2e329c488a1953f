// Package filesystem provides a document source backed by a local
// directory tree. Plain-text and markdown files are loaded as documents;
// Watch follows the tree with fsnotify and re-emits changed files.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// defaultDebounce is how long a file must stay quiet after a write
// before it is re-emitted. Editors often produce bursts of events for
// a single save.
const defaultDebounce = 300 * time.Millisecond

// Source loads .txt and .md files from a directory tree.
type Source struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timers  map[string]*time.Timer
	pending chan string
	closed  bool
}

// Option configures a Source.
type Option func(*Source)

// WithDebounce overrides the watch debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		s.debounce = d
	}
}

// New creates a filesystem source rooted at the given directory.
func New(root string, opts ...Option) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", abs)
	}

	s := &Source{
		root:     abs,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// supportedFile reports whether the path is a document this source loads.
func supportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

// Load reads all supported files under the root, in walk order.
func (s *Source) Load(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			// Hidden directories stay out of the corpus.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedFile(path) {
			return nil
		}

		doc, err := s.readDocument(path)
		if err != nil {
			logger.Warn("Skipping unreadable file %s: %v", path, err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}

	return docs, nil
}

// readDocument loads a single file as a document. The document ID is
// derived from the path so re-loading the same file updates rather than
// duplicates it.
func (s *Source) readDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}

	return domain.Document{
		ID:        domain.HashContent("file:" + path)[:16],
		SourceURI: "file://" + path,
		Title:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content:   string(data),
		Metadata: map[string]any{
			"relative_path": rel,
		},
	}, nil
}

// Watch emits a document whenever a supported file under the root is
// created or written. Events for the same file within the debounce
// window collapse into one emission. Both channels close when ctx is
// cancelled.
func (s *Source) Watch(ctx context.Context) (<-chan domain.Document, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the whole tree; fsnotify does not recurse on its own.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != filepath.Base(s.root) && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("watching %s: %w", s.root, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.pending = make(chan string, 64)
	s.mu.Unlock()

	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go s.watchLoop(ctx, watcher, docs, errs)

	return docs, errs, nil
}

// watchLoop turns raw fsnotify events into debounced document emissions.
func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, docs chan<- domain.Document, errs chan<- error) {
	defer close(docs)
	defer close(errs)
	defer watcher.Close() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return

		case path := <-s.pending:
			s.emit(ctx, path, docs)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event, watcher)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case errs <- err:
			case <-ctx.Done():
				s.stopTimers()
				return
			}
		}
	}
}

// handleEvent reacts to a single fsnotify event: new directories join
// the watch, supported file writes arm a debounce timer.
func (s *Source) handleEvent(event fsnotify.Event, watcher *fsnotify.Watcher) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				logger.Warn("Cannot watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !supportedFile(event.Name) {
		return
	}

	path := event.Name
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.timers[path]; ok {
		timer.Stop()
	}
	pending := s.pending
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		// Hand the settled path to the watch loop. A full queue means
		// a burst the loop has not drained yet; the drop only matters
		// if the file never changes again.
		select {
		case pending <- path:
		default:
		}
	})
}

// emit reads a settled file and sends it as a document.
func (s *Source) emit(ctx context.Context, path string, docs chan<- domain.Document) {
	s.mu.Lock()
	delete(s.timers, path)
	s.mu.Unlock()

	doc, err := s.readDocument(path)
	if err != nil {
		// The file may have been deleted between the event and the
		// debounce firing.
		logger.Debug("Watched file %s vanished before read: %v", path, err)
		return
	}

	select {
	case docs <- doc:
	case <-ctx.Done():
	}
}

// stopTimers cancels pending debounce timers.
func (s *Source) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, timer := range s.timers {
		timer.Stop()
		delete(s.timers, path)
	}
	s.closed = true
}

// Close releases the watcher and pending timers.
func (s *Source) Close() error {
	s.stopTimers()
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if watcher != nil {
		return watcher.Close()
	}
	return nil
}

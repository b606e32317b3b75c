// Package watcher keeps the index in step with a directory: new and changed
// files are ingested, removed files are deleted from the index.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
	"github.com/custodia-labs/verity/internal/logger"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Action describes what the watcher did with a file.
type Action string

// Watcher actions.
const (
	ActionIngested  Action = "ingested"
	ActionDuplicate Action = "duplicate"
	ActionDeleted   Action = "deleted"
	ActionFailed    Action = "failed"
)

// Event reports the outcome of handling one file.
type Event struct {
	Path       string
	Action     Action
	DocumentID string
	Chunks     int
	Err        error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a path must be quiet before it is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive watches subdirectories too, including ones created later.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

// Watcher ingests files from a directory as they appear or change.
type Watcher struct {
	root      string
	ingest    driving.IngestService
	debounce  time.Duration
	recursive bool

	mu     sync.Mutex
	docs   map[string]string // path -> document ID
	closed bool
	fsw    *fsnotify.Watcher
}

// New creates a watcher over root.
func New(root string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ingest:   ingest,
		debounce: DefaultDebounce,
		docs:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan ingests every supported file already under root.
func (w *Watcher) Scan(ctx context.Context) ([]Event, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var events []Event
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != w.root && (!w.recursive || isHidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.accepts(path) {
			return nil
		}
		events = append(events, w.ingestFile(ctx, path))
		return nil
	})
	return events, err
}

// Watch starts watching root. The returned channel closes when ctx is
// cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("watcher is closed")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	w.fsw = fsw
	w.mu.Unlock()

	if err := w.addDirs(w.root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan Event)
	go w.loop(ctx, fsw, out)
	return out, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)
	log := logger.L().With(zap.String("root", w.root))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			path, action := w.classify(event)
			switch action {
			case actionIngest:
				pending[path] = time.Now()
			case actionRemove:
				delete(pending, path)
				if ev, tracked := w.removeFile(ctx, path); tracked && !emit(ev) {
					return
				}
			case actionAddDir:
				if err := w.addDirs(path); err != nil {
					log.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, path)
				if !emit(w.ingestFile(ctx, path)) {
					return
				}
			}
		}
	}
}

type fsAction int

const (
	actionNone fsAction = iota
	actionIngest
	actionRemove
	actionAddDir
)

// classify maps a raw fsnotify event onto what the watcher should do.
func (w *Watcher) classify(event fsnotify.Event) (string, fsAction) {
	path := event.Name
	if isHidden(path) {
		return path, actionNone
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return path, actionRemove
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return path, actionNone
	}

	info, err := os.Stat(path)
	if err != nil {
		return path, actionNone
	}
	if info.IsDir() {
		if w.recursive && event.Has(fsnotify.Create) {
			return path, actionAddDir
		}
		return path, actionNone
	}
	if !w.accepts(path) {
		return path, actionNone
	}
	return path, actionIngest
}

func (w *Watcher) ingestFile(ctx context.Context, path string) Event {
	content, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Action: ActionFailed, Err: err}
	}

	res, err := w.ingest.Ingest(ctx, domain.IngestRequest{
		Name:    filepath.Base(path),
		Content: content,
	})
	if err != nil {
		logger.FromContext(ctx).Debug("watch ingest failed", zap.String("path", path), zap.Error(err))
		return Event{Path: path, Action: ActionFailed, Err: err}
	}

	w.mu.Lock()
	previous, hadPrevious := w.docs[path]
	w.docs[path] = res.DocumentID
	w.mu.Unlock()

	// A changed file is a new document; drop the stale version unless
	// another tracked path still refers to it.
	if hadPrevious && previous != res.DocumentID && !w.referenced(previous) {
		if err := w.ingest.Delete(ctx, previous); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("failed to remove stale version of %s: %v", path, err)
		}
	}

	action := ActionIngested
	if res.Duplicate {
		action = ActionDuplicate
	}
	return Event{Path: path, Action: action, DocumentID: res.DocumentID, Chunks: res.Chunks}
}

// removeFile deletes the document for a tracked path. Untracked paths are
// ignored.
func (w *Watcher) removeFile(ctx context.Context, path string) (Event, bool) {
	w.mu.Lock()
	docID, ok := w.docs[path]
	delete(w.docs, path)
	w.mu.Unlock()
	if !ok {
		return Event{}, false
	}
	if w.referenced(docID) {
		return Event{Path: path, Action: ActionDeleted, DocumentID: docID}, true
	}

	if err := w.ingest.Delete(ctx, docID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Event{Path: path, Action: ActionFailed, DocumentID: docID, Err: err}, true
	}
	return Event{Path: path, Action: ActionDeleted, DocumentID: docID}, true
}

func (w *Watcher) referenced(docID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.docs {
		if id == docID {
			return true
		}
	}
	return false
}

func (w *Watcher) accepts(path string) bool {
	if isHidden(path) {
		return false
	}
	return slices.Contains(w.ingest.SupportedKinds(), domain.FileKindFromName(path))
}

func (w *Watcher) addDirs(root string) error {
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && isHidden(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("%w: watch root: %v", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: watch root %s is not a directory", domain.ErrInvalidInput, w.root)
	}
	return nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

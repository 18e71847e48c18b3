// Package watcher keeps the book cache coherent with books that are added,
// removed or re-converted on disk outside the upload endpoint.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrlokans/llmreader/internal/library"
)

// DefaultSettleDelay coalesces bursts of events, e.g. a converter writing many
// files, into one invalidation.
const DefaultSettleDelay = 500 * time.Millisecond

// Invalidator drops cached state.
type Invalidator interface {
	Invalidate()
}

type Options struct {
	Logger      *slog.Logger
	SettleDelay time.Duration
}

// LibraryWatcher watches the library root and every book directory in it.
type LibraryWatcher struct {
	root    string
	target  Invalidator
	logger  *slog.Logger
	settle  time.Duration
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for root. Watching starts with Run.
func New(root string, target Invalidator, opts Options) (*LibraryWatcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &LibraryWatcher{
		root:    filepath.Clean(root),
		target:  target,
		logger:  opts.Logger,
		settle:  opts.SettleDelay,
		watcher: fsw,
	}
	if err := w.addWatches(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addWatches registers the root and its existing book directories.
func (w *LibraryWatcher) addWatches() error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() && library.IsBookDirName(entry.Name()) {
			w.watchBookDir(filepath.Join(w.root, entry.Name()))
		}
	}
	return nil
}

func (w *LibraryWatcher) watchBookDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch book directory", "path", dir, "error", err)
		return
	}
	w.logger.Debug("watching book directory", "path", dir)
}

// Run processes events until ctx is done, then releases the watcher.
func (w *LibraryWatcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.scheduleInvalidate()
				continue
			}
			w.logger.Warn("library watcher error", "error", err)
		}
	}
}

func (w *LibraryWatcher) handle(event fsnotify.Event) {
	if !w.relevant(event) {
		return
	}

	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.root {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchBookDir(event.Name)
		}
	}

	w.logger.Debug("library changed", "path", event.Name, "op", event.Op.String())
	w.scheduleInvalidate()
}

// relevant reports whether event touches a book directory itself or a book
// snapshot inside one.
func (w *LibraryWatcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
		return false
	}

	dir, name := filepath.Split(event.Name)
	dir = filepath.Clean(dir)

	if dir == w.root {
		return library.IsBookDirName(name)
	}
	return filepath.Dir(dir) == w.root &&
		library.IsBookDirName(filepath.Base(dir)) &&
		name == library.SnapshotFileName
}

func (w *LibraryWatcher) scheduleInvalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		w.logger.Info("library changed on disk, dropping book cache")
		w.target.Invalidate()
	})
}

func (w *LibraryWatcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close library watcher", "error", err)
	}
}

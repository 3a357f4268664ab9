// Package watcher adapts recursive fsnotify notifications for a project tree
// into session events.
package watcher

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-set/v2"

	"github.com/fakeyudi/devtrack/internal/session"
)

// SettleWindow is how long a removed file may take to reappear before its
// removal is reported. Editors that save by renaming the original away and
// writing a new file produce a Remove or Rename followed by a Create.
const SettleWindow = 100 * time.Millisecond

// Filter decides which paths are outside the tracked set.
type Filter interface {
	Ignored(path string, isDir bool) bool
}

// Watcher watches every non-ignored directory below a root.
type Watcher struct {
	root   string
	filter Filter
	logger *slog.Logger
	fsw    *fsnotify.Watcher

	mu      sync.Mutex
	known   *set.Set[string]     // files reported so far
	pending map[string]time.Time // removed files and when their removal settles
	now     func() time.Time
}

// New creates a watcher for root. Nothing is watched until AddTree is called.
func New(root string, filter Filter, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		root:   filepath.Clean(root),
		filter: filter,
		logger: logger,
		fsw:    fsw,
		known:   set.New[string](64),
		pending: make(map[string]time.Time),
		now:     time.Now,
	}, nil
}

// AddTree watches dir and every non-ignored directory below it and returns the
// non-ignored files found, in walk order.
func (w *Watcher) AddTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip unreadable entries
		}
		if path != w.root && w.ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("cannot watch directory", "path", path, "error", err)
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})

	w.mu.Lock()
	for _, f := range files {
		w.known.Insert(f)
	}
	w.mu.Unlock()
	return files, err
}

// Run delivers events to handle until ctx is cancelled or the watcher is
// closed. handle is called from this goroutine only, one event at a time.
// Removals still settling when Run stops are resolved before it returns.
func (w *Watcher) Run(ctx context.Context, handle func(session.Event)) error {
	defer func() {
		for _, ev := range w.flush() {
			handle(ev)
		}
	}()

	for {
		var settled <-chan time.Time
		if d, ok := w.nextSettle(); ok {
			settled = time.After(d)
		}

		select {
		case <-ctx.Done():
			return nil

		case <-settled:
			for _, ev := range w.expire(w.now()) {
				handle(ev)
			}

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			for _, ev := range w.translate(event) {
				if ctx.Err() != nil {
					return nil
				}
				handle(ev)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// translate maps one fsnotify notification to zero or more session events.
func (w *Watcher) translate(event fsnotify.Event) []session.Event {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return w.forget(path)

	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if w.ignored(path, true) {
				return nil
			}
			files, err := w.AddTree(path)
			if err != nil {
				w.logger.Warn("cannot watch new directory", "path", path, "error", err)
			}
			events := make([]session.Event, 0, len(files))
			for _, f := range files {
				kind := session.Add
				if w.revive(f) {
					kind = session.Change
				}
				events = append(events, session.Event{Kind: kind, Path: f})
			}
			return events
		}
		if !info.Mode().IsRegular() || w.ignored(path, false) {
			return nil
		}
		// Editors that save atomically rename a temp file over the target,
		// which arrives as a Create of a path we already know or that was
		// just removed.
		if w.revive(path) {
			return []session.Event{{Kind: session.Change, Path: path}}
		}
		if w.remember(path) {
			return []session.Event{{Kind: session.Add, Path: path}}
		}
		return []session.Event{{Kind: session.Change, Path: path}}

	case event.Has(fsnotify.Write):
		if w.ignored(path, false) {
			return nil
		}
		if !w.revive(path) {
			w.remember(path)
		}
		return []session.Event{{Kind: session.Change, Path: path}}
	}

	// Chmod
	return nil
}

// remember records path as known and reports whether it is new.
func (w *Watcher) remember(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.known.Insert(path)
}

// forget moves path, or every known file below it when path was a directory,
// to the pending set. No event is emitted until the removal settles.
func (w *Watcher) forget(path string) []session.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := w.now().Add(SettleWindow)
	if w.known.Remove(path) {
		w.pending[path] = deadline
		return nil
	}

	prefix := path + string(filepath.Separator)
	for _, f := range w.known.Slice() {
		if strings.HasPrefix(f, prefix) {
			w.known.Remove(f)
			w.pending[f] = deadline
		}
	}
	return nil
}

// revive takes path out of the pending set and marks it known again. It
// reports whether path was pending.
func (w *Watcher) revive(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pending[path]; !ok {
		return false
	}
	delete(w.pending, path)
	w.known.Insert(path)
	return true
}

// nextSettle returns the time until the earliest pending removal settles.
func (w *Watcher) nextSettle() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return 0, false
	}
	var first time.Time
	for _, deadline := range w.pending {
		if first.IsZero() || deadline.Before(first) {
			first = deadline
		}
	}
	return max(0, first.Sub(w.now())), true
}

// expire resolves every pending removal whose window has passed at now.
func (w *Watcher) expire(now time.Time) []session.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []string
	for path, deadline := range w.pending {
		if !now.Before(deadline) {
			due = append(due, path)
		}
	}
	return w.settle(due)
}

// flush resolves every pending removal regardless of its window.
func (w *Watcher) flush() []session.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	due := make([]string, 0, len(w.pending))
	for path := range w.pending {
		due = append(due, path)
	}
	return w.settle(due)
}

// settle turns pending paths into events: Delete when the file is gone,
// Change when it is back on disk but its Create was never seen. w.mu is held.
func (w *Watcher) settle(paths []string) []session.Event {
	sort.Strings(paths)
	events := make([]session.Event, 0, len(paths))
	for _, path := range paths {
		delete(w.pending, path)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			w.known.Insert(path)
			events = append(events, session.Event{Kind: session.Change, Path: path})
			continue
		}
		events = append(events, session.Event{Kind: session.Delete, Path: path})
	}
	return events
}

func (w *Watcher) ignored(path string, isDir bool) bool {
	return w.filter != nil && w.filter.Ignored(path, isDir)
}

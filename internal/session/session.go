// Package session turns filesystem events for a project directory into
// per-file activity statistics for one tracking run.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/devtrack/internal/ledger"
	"github.com/fakeyudi/devtrack/internal/quantify"
	"github.com/fakeyudi/devtrack/internal/snapshot"
)

// DefaultSnapshotDir is the side directory, relative to the project root,
// that holds diff baselines.
const DefaultSnapshotDir = ".devtracker"

// EventKind is the kind of filesystem change being reported.
type EventKind string

const (
	Add    EventKind = "add"
	Change EventKind = "change"
	Delete EventKind = "delete"
)

// Event is a single filesystem change for a path.
type Event struct {
	Kind EventKind
	Path string
}

// ContentReader returns the current content of a file.
type ContentReader func(path string) (string, error)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EventError reports a failure while handling one event. Failures never
// leave a partially updated record behind.
type EventError struct {
	Kind EventKind
	Path string
	Op   string // "read" or "snapshot"
	Err  error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Path, e.Op, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// Options customises a Session. Zero values select the defaults.
type Options struct {
	ID          string         // defaults to a random UUID
	SnapshotDir string         // defaults to <root>/.devtracker
	Store       snapshot.Store // overrides SnapshotDir when set
	Reader      ContentReader  // defaults to os.ReadFile
	Now         func() time.Time
	Logger      *slog.Logger
}

// Session is the state of one tracking run: the activity ledger, the session
// clock and the snapshot baselines. Sessions are independent of each other.
type Session struct {
	ID          string
	Root        string
	SnapshotDir string

	mu     sync.Mutex
	ledger *ledger.Ledger
	clock  *Clock
	store  snapshot.Store
	read   ContentReader
	now    func() time.Time
	logger *slog.Logger
}

// New starts a session for the project at root. It fails if root is not a
// directory or the snapshot directory cannot be created.
func New(root string, opts Options) (*Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resolving project root: %s is not a directory", abs)
	}

	s := &Session{
		ID:     opts.ID,
		Root:   abs,
		store:  opts.Store,
		read:   opts.Reader,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.read == nil {
		s.read = readFile
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if s.store == nil {
		dir := opts.SnapshotDir
		if dir == "" {
			dir = DefaultSnapshotDir
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(abs, dir)
		}
		store, err := snapshot.NewDiskStore(dir)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.SnapshotDir = dir
	}

	s.ledger = ledger.New(ledger.IdleThreshold)
	s.clock = NewClock(s.now(), ledger.IdleThreshold)
	return s, nil
}

// Ledger returns the session's activity ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Clock returns the session clock.
func (s *Session) Clock() *Clock {
	return s.clock
}

// Normalize resolves path against the project root and cleans it. The result
// is the key used by the ledger and the snapshot store.
func (s *Session) Normalize(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	return filepath.Clean(path)
}

// Rel returns path relative to the project root, or path itself when it lies
// outside the root.
func (s *Session) Rel(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return path
	}
	return rel
}

// Handle processes one event to completion: read content, diff against the
// baseline, update the ledger, record activity, persist the new baseline.
// Events are serialized so concurrent callers never interleave these steps.
func (s *Session) Handle(ev Event) error {
	path := s.Normalize(ev.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	switch ev.Kind {
	case Add:
		return s.handleAdd(path, now)
	case Change:
		return s.handleChange(path, now)
	case Delete:
		return s.handleDelete(path, now)
	default:
		return fmt.Errorf("unknown event kind %q for %s", ev.Kind, path)
	}
}

// handleAdd seeds the baseline only. A file that is added and never changed
// contributes no record.
func (s *Session) handleAdd(path string, now time.Time) error {
	content, err := s.read(path)
	s.clock.RecordActivity(now)
	if err != nil {
		return &EventError{Kind: Add, Path: path, Op: "read", Err: err}
	}
	if err := s.store.Put(path, content); err != nil {
		return &EventError{Kind: Add, Path: path, Op: "snapshot", Err: err}
	}
	return nil
}

func (s *Session) handleChange(path string, now time.Time) error {
	content, err := s.read(path)
	if err != nil {
		s.clock.RecordActivity(now)
		return &EventError{Kind: Change, Path: path, Op: "read", Err: err}
	}

	delta := quantify.Lines(s.baseline(path), content)
	rec := s.ledger.RecordChange(path, delta, now)
	s.clock.RecordActivity(now)

	s.logger.Debug("change recorded",
		"path", s.Rel(path),
		"added", delta.Added,
		"removed", delta.Removed,
		"changes", rec.ChangeCount,
		"active", rec.ActiveTime)

	if err := s.store.Put(path, content); err != nil {
		return &EventError{Kind: Change, Path: path, Op: "snapshot", Err: err}
	}
	return nil
}

func (s *Session) handleDelete(path string, now time.Time) error {
	s.ledger.Remove(path)
	s.clock.RecordActivity(now)
	if err := s.store.Delete(path); err != nil {
		return &EventError{Kind: Delete, Path: path, Op: "snapshot", Err: err}
	}
	return nil
}

// baseline returns the previous content of path, or "" when there is none or
// it cannot be read.
func (s *Session) baseline(path string) string {
	old, err := s.store.Get(path)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			s.logger.Warn("snapshot unreadable, diffing against empty content",
				"path", s.Rel(path), "error", err)
		}
		return ""
	}
	return old
}

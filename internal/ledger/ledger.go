// Package ledger holds the per-file activity records of a tracking session.
//
// A path moves through three states: unknown (no record), tracked (a record
// updated on every change event) and removed (record dropped when the file is
// deleted). Records are only created by change events; an add event seeds the
// diff baseline elsewhere and never reaches the ledger.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/fakeyudi/devtrack/internal/quantify"
)

// IdleThreshold separates continued engagement from time away, both between
// edits of one file and for the session as a whole.
const IdleThreshold = 5 * time.Minute

// HistoryEntry is one processed change event.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Added     int       `json:"added"`
	Removed   int       `json:"removed"`
}

// FileRecord holds the cumulative statistics of one tracked file.
type FileRecord struct {
	Path          string         `json:"path"`
	Additions     int            `json:"additions"`
	Deletions     int            `json:"deletions"`
	ChangeCount   int            `json:"change_count"`
	FirstModified time.Time      `json:"first_modified"`
	LastModified  time.Time      `json:"last_modified"`
	ActiveTime    time.Duration  `json:"active_time"`
	History       []HistoryEntry `json:"history"`
}

// TotalEdits is the number of change events applied to the file.
func (r FileRecord) TotalEdits() int {
	return r.ChangeCount
}

// AverageEditSize is the mean number of added plus removed lines per edit.
func (r FileRecord) AverageEditSize() float64 {
	edits := r.ChangeCount
	if edits < 1 {
		edits = 1
	}
	return float64(r.Additions+r.Deletions) / float64(edits)
}

func (r *FileRecord) clone() FileRecord {
	c := *r
	c.History = make([]HistoryEntry, len(r.History))
	copy(c.History, r.History)
	return c
}

// Ledger maps normalized file paths to their records. It is safe for
// concurrent use; every update is applied atomically under one write lock.
type Ledger struct {
	mu      sync.RWMutex
	idle    time.Duration
	records map[string]*FileRecord
}

// New returns an empty ledger using idle as the active-time gap limit.
// A non-positive idle falls back to IdleThreshold.
func New(idle time.Duration) *Ledger {
	if idle <= 0 {
		idle = IdleThreshold
	}
	return &Ledger{
		idle:    idle,
		records: make(map[string]*FileRecord),
	}
}

// IdleThreshold returns the gap limit this ledger was created with.
func (l *Ledger) IdleThreshold() time.Duration {
	return l.idle
}

// RecordChange applies one change event for path observed at now and returns
// a copy of the updated record.
//
// The gap since the previous edit counts as active time when it is shorter
// than the idle threshold; longer gaps are treated as time away and add
// nothing. Gaps are measured against the latest edit seen so far and clamped
// at zero, so a clock stepping backwards never reduces or inflates active
// time.
func (l *Ledger) RecordChange(path string, d quantify.Delta, now time.Time) FileRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[path]
	if !ok {
		rec = &FileRecord{
			Path:          path,
			FirstModified: now,
			LastModified:  now,
		}
		l.records[path] = rec
	} else {
		gap := now.Sub(rec.LastModified)
		if gap < 0 {
			gap = 0
		}
		if gap < l.idle {
			rec.ActiveTime += gap
		}
		if now.After(rec.LastModified) {
			rec.LastModified = now
		}
	}

	rec.History = append(rec.History, HistoryEntry{
		Timestamp: now,
		Added:     d.Added,
		Removed:   d.Removed,
	})
	rec.Additions += d.Added
	rec.Deletions += d.Removed
	rec.ChangeCount++

	return rec.clone()
}

// Remove drops the record for path. It reports whether a record existed.
func (l *Ledger) Remove(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.records[path]
	delete(l.records, path)
	return ok
}

// Get returns a copy of the record for path.
func (l *Ledger) Get(path string) (FileRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[path]
	if !ok {
		return FileRecord{}, false
	}
	return rec.clone(), true
}

// Records returns copies of all current records ordered by path.
func (l *Ledger) Records() []FileRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]FileRecord, 0, len(l.records))
	for _, rec := range l.records {
		result = append(result, rec.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// Len returns the number of tracked files.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

package ledger_test

import (
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/devtrack/internal/ledger"
	"github.com/fakeyudi/devtrack/internal/quantify"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// checkInvariants asserts the record-level invariants that must hold after
// every update.
func checkInvariants(t interface{ Fatalf(string, ...any) }, rec ledger.FileRecord) {
	if rec.ChangeCount != len(rec.History) {
		t.Fatalf("ChangeCount %d != len(History) %d", rec.ChangeCount, len(rec.History))
	}
	var added, removed int
	for _, h := range rec.History {
		added += h.Added
		removed += h.Removed
	}
	if rec.Additions != added {
		t.Fatalf("Additions %d != sum(History.Added) %d", rec.Additions, added)
	}
	if rec.Deletions != removed {
		t.Fatalf("Deletions %d != sum(History.Removed) %d", rec.Deletions, removed)
	}
	if rec.ActiveTime < 0 {
		t.Fatalf("ActiveTime negative: %v", rec.ActiveTime)
	}
	if span := rec.LastModified.Sub(rec.FirstModified); rec.ActiveTime > span {
		t.Fatalf("ActiveTime %v exceeds LastModified-FirstModified %v", rec.ActiveTime, span)
	}
}

// Feature: devtrack, Property: record invariants hold after every change
func TestRecordInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := ledger.New(ledger.IdleThreshold)
		paths := []string{"/p/a.go", "/p/b.go", "/p/c/a.go"}

		now := t0
		prevActive := map[string]time.Duration{}
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			path := rapid.SampledFrom(paths).Draw(t, "path")
			// Mostly forward steps, some idle gaps and some clock steps backwards.
			offset := rapid.Int64Range(-int64(time.Minute), int64(10*time.Minute)).Draw(t, "offset")
			now = now.Add(time.Duration(offset))
			d := quantify.Delta{
				Added:   rapid.IntRange(0, 50).Draw(t, "added"),
				Removed: rapid.IntRange(0, 50).Draw(t, "removed"),
			}

			rec := l.RecordChange(path, d, now)
			checkInvariants(t, rec)

			if rec.ActiveTime < prevActive[path] {
				t.Fatalf("ActiveTime decreased for %s: %v -> %v", path, prevActive[path], rec.ActiveTime)
			}
			prevActive[path] = rec.ActiveTime

			stored, ok := l.Get(path)
			if !ok {
				t.Fatalf("record for %s missing after RecordChange", path)
			}
			checkInvariants(t, stored)
		}
	})
}

func TestFirstChangeCreatesRecordWithoutActiveTime(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)

	rec := l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0)

	if rec.ChangeCount != 1 || rec.Additions != 1 || rec.Deletions != 0 {
		t.Errorf("unexpected counts: %+v", rec)
	}
	if rec.ActiveTime != 0 {
		t.Errorf("ActiveTime: want 0, got %v", rec.ActiveTime)
	}
	if !rec.FirstModified.Equal(t0) || !rec.LastModified.Equal(t0) {
		t.Errorf("First/LastModified: want %v, got %v / %v", t0, rec.FirstModified, rec.LastModified)
	}
}

func TestIdleGapBoundary(t *testing.T) {
	cases := []struct {
		name string
		gap  time.Duration
		want time.Duration
	}{
		{"just under threshold counts", ledger.IdleThreshold - time.Millisecond, ledger.IdleThreshold - time.Millisecond},
		{"exactly threshold is idle", ledger.IdleThreshold, 0},
		{"just over threshold is idle", ledger.IdleThreshold + time.Millisecond, 0},
		{"short gap counts", 3 * time.Second, 3 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := ledger.New(ledger.IdleThreshold)
			l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0)
			rec := l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0.Add(tc.gap))
			if rec.ActiveTime != tc.want {
				t.Errorf("ActiveTime: want %v, got %v", tc.want, rec.ActiveTime)
			}
		})
	}
}

func TestNegativeGapClampedToZero(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)
	l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0)
	l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0.Add(10*time.Second))

	rec := l.RecordChange("/p/a.txt", quantify.Delta{Removed: 1}, t0.Add(5*time.Second))
	if rec.ActiveTime != 10*time.Second {
		t.Errorf("ActiveTime after clock step back: want 10s, got %v", rec.ActiveTime)
	}
	if !rec.LastModified.Equal(t0.Add(10 * time.Second)) {
		t.Errorf("LastModified moved backwards: %v", rec.LastModified)
	}
	if len(rec.History) != 3 || !rec.History[2].Timestamp.Equal(t0.Add(5*time.Second)) {
		t.Errorf("history should record the observed timestamp, got %+v", rec.History)
	}

	rec = l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0.Add(12*time.Second))
	if rec.ActiveTime != 12*time.Second {
		t.Errorf("ActiveTime after recovery: want 12s, got %v", rec.ActiveTime)
	}
}

func TestRemoveDropsRecord(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)
	l.RecordChange("/p/a.txt", quantify.Delta{Added: 3}, t0)

	if !l.Remove("/p/a.txt") {
		t.Fatal("Remove: expected existing record")
	}
	if _, ok := l.Get("/p/a.txt"); ok {
		t.Fatal("record still present after Remove")
	}
	if l.Remove("/p/a.txt") {
		t.Error("second Remove should report no record")
	}

	// A new change after removal starts a fresh record.
	rec := l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0.Add(time.Second))
	if rec.ChangeCount != 1 || rec.Additions != 1 {
		t.Errorf("expected fresh record, got %+v", rec)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)
	l.RecordChange("/p/a.txt", quantify.Delta{Added: 1}, t0)

	rec, _ := l.Get("/p/a.txt")
	rec.History[0].Added = 99
	rec.Additions = 99

	again, _ := l.Get("/p/a.txt")
	if again.Additions != 1 || again.History[0].Added != 1 {
		t.Errorf("ledger state mutated through a copy: %+v", again)
	}
}

func TestRecordsSortedByPath(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)
	for _, p := range []string{"/p/c", "/p/a", "/p/b"} {
		l.RecordChange(p, quantify.Delta{Added: 1}, t0)
	}

	recs := l.Records()
	if len(recs) != 3 || l.Len() != 3 {
		t.Fatalf("want 3 records, got %d (Len %d)", len(recs), l.Len())
	}
	for i, want := range []string{"/p/a", "/p/b", "/p/c"} {
		if recs[i].Path != want {
			t.Errorf("Records()[%d] = %s, want %s", i, recs[i].Path, want)
		}
	}
}

func TestAverageEditSize(t *testing.T) {
	var empty ledger.FileRecord
	if got := empty.AverageEditSize(); got != 0 {
		t.Errorf("empty record: want 0, got %v", got)
	}

	l := ledger.New(ledger.IdleThreshold)
	l.RecordChange("/p/a", quantify.Delta{Added: 4}, t0)
	rec := l.RecordChange("/p/a", quantify.Delta{Added: 1, Removed: 2}, t0.Add(time.Second))
	if got := rec.AverageEditSize(); got != 3.5 {
		t.Errorf("AverageEditSize: want 3.5, got %v", got)
	}
	if rec.TotalEdits() != 2 {
		t.Errorf("TotalEdits: want 2, got %d", rec.TotalEdits())
	}
}

// TestConcurrentChangesKeepEveryUpdate verifies that concurrent updates to
// the same path are never lost.
func TestConcurrentChangesKeepEveryUpdate(t *testing.T) {
	l := ledger.New(ledger.IdleThreshold)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.RecordChange("/p/shared.go", quantify.Delta{Added: 1, Removed: 1}, t0.Add(time.Duration(i)*time.Millisecond))
			}
		}(w)
	}
	wg.Wait()

	rec, ok := l.Get("/p/shared.go")
	if !ok {
		t.Fatal("record missing")
	}
	if rec.ChangeCount != workers*perWorker {
		t.Errorf("ChangeCount: want %d, got %d", workers*perWorker, rec.ChangeCount)
	}
	if rec.Additions != workers*perWorker || rec.Deletions != workers*perWorker {
		t.Errorf("lost update: %+v", rec)
	}
}

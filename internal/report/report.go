// Package report builds, persists and renders the end-of-session report.
package report

import (
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/fakeyudi/devtrack/internal/collector"
	"github.com/fakeyudi/devtrack/internal/ledger"
	"github.com/fakeyudi/devtrack/internal/session"
)

// Report is the complete, renderable result of a tracking session.
type Report struct {
	Summary     Summary      `json:"summary" yaml:"summary"`
	FileDetails []FileDetail `json:"file_details" yaml:"file_details"`
}

// Summary holds the session-wide totals.
type Summary struct {
	SessionID        string               `json:"session_id" yaml:"session_id"`
	ProjectRoot      string               `json:"project_root" yaml:"project_root"`
	TotalTime        string               `json:"total_time" yaml:"total_time"` // human-readable productive time
	ProductiveTimeMs int64                `json:"productive_time_ms" yaml:"productive_time_ms"`
	StartTime        time.Time            `json:"start_time" yaml:"start_time"`
	EndTime          time.Time            `json:"end_time" yaml:"end_time"`
	TotalFiles       int                  `json:"total_files" yaml:"total_files"`
	TotalAdditions   int                  `json:"total_additions" yaml:"total_additions"`
	TotalDeletions   int                  `json:"total_deletions" yaml:"total_deletions"`
	TopLanguages     []collector.Language `json:"top_languages" yaml:"top_languages"`
	Dependencies     []string             `json:"dependencies" yaml:"dependencies"`
	Warnings         []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FileDetail is the reported view of one tracked file.
type FileDetail struct {
	File            string    `json:"file" yaml:"file"` // relative to the project root
	Additions       int       `json:"additions" yaml:"additions"`
	Deletions       int       `json:"deletions" yaml:"deletions"`
	ChangeCount     int       `json:"change_count" yaml:"change_count"`
	FirstModified   time.Time `json:"first_modified" yaml:"first_modified"`
	LastModified    time.Time `json:"last_modified" yaml:"last_modified"`
	ActiveTimeMs    int64     `json:"active_time_ms" yaml:"active_time_ms"`
	ActiveTime      string    `json:"active_time" yaml:"active_time"`
	TimeSpent       string    `json:"time_spent" yaml:"time_spent"`
	TotalEdits      int       `json:"total_edits" yaml:"total_edits"`
	AverageEditSize float64   `json:"average_edit_size" yaml:"average_edit_size"`
}

// Meta identifies the session a report is built for.
type Meta struct {
	SessionID string
	Root      string
	Warnings  []string
}

// Build assembles the report from the current ledger and clock state. It
// only reads from l and c. File details are ordered by path.
func Build(meta Meta, l *ledger.Ledger, c *session.Clock, langs []collector.Language, deps []string) *Report {
	records := l.Records()
	productive := c.ProductiveTime()

	details := lo.Map(records, func(rec ledger.FileRecord, _ int) FileDetail {
		return FileDetail{
			File:            relPath(meta.Root, rec.Path),
			Additions:       rec.Additions,
			Deletions:       rec.Deletions,
			ChangeCount:     rec.ChangeCount,
			FirstModified:   rec.FirstModified,
			LastModified:    rec.LastModified,
			ActiveTimeMs:    rec.ActiveTime.Milliseconds(),
			ActiveTime:      FormatDuration(rec.ActiveTime),
			TimeSpent:       TimeSpent(rec.FirstModified, rec.LastModified),
			TotalEdits:      rec.TotalEdits(),
			AverageEditSize: rec.AverageEditSize(),
		}
	})

	if langs == nil {
		langs = []collector.Language{}
	}
	if deps == nil {
		deps = []string{}
	}

	return &Report{
		Summary: Summary{
			SessionID:        meta.SessionID,
			ProjectRoot:      meta.Root,
			TotalTime:        FormatDuration(productive),
			ProductiveTimeMs: productive.Milliseconds(),
			StartTime:        c.StartedAt(),
			EndTime:          c.LastActivityAt(),
			TotalFiles:       len(records),
			TotalAdditions:   lo.SumBy(records, func(r ledger.FileRecord) int { return r.Additions }),
			TotalDeletions:   lo.SumBy(records, func(r ledger.FileRecord) int { return r.Deletions }),
			TopLanguages:     langs,
			Dependencies:     deps,
			Warnings:         meta.Warnings,
		},
		FileDetails: details,
	}
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

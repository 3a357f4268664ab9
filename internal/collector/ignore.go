package collector

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFiles are read from the project root, in order, as gitignore rules.
var IgnoreFiles = []string{".gitignore", ".devtrackignore"}

// ignoredDirs are skipped wherever they appear in a path.
var ignoredDirs = []string{"node_modules", ".git"}

// ignoredNames are skipped by base name.
var ignoredNames = []string{"package-lock.json", ".DS_Store"}

// IgnoreFilter decides which paths under a project root are not tracked:
// built-in names, the snapshot directory, configured doublestar globs and the
// rules in .gitignore and .devtrackignore.
type IgnoreFilter struct {
	root        string
	snapshotDir string // slash-separated, relative to root
	globs       []string
	rules       *gitignore.GitIgnore
}

// NewIgnoreFilter builds the filter for root. snapshotDir may be relative to
// root or absolute; globs are matched against slash-separated paths relative
// to root.
func NewIgnoreFilter(root, snapshotDir string, globs []string) (*IgnoreFilter, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, errors.Errorf("invalid ignore pattern %q", g)
		}
	}

	f := &IgnoreFilter{
		root:  filepath.Clean(root),
		globs: globs,
	}
	if snapshotDir != "" {
		if filepath.IsAbs(snapshotDir) {
			if rel, err := filepath.Rel(f.root, snapshotDir); err == nil {
				snapshotDir = rel
			}
		}
		f.snapshotDir = filepath.ToSlash(filepath.Clean(snapshotDir))
	}

	var lines []string
	for _, name := range IgnoreFiles {
		extra, err := readPatternFile(filepath.Join(f.root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		lines = append(lines, extra...)
	}
	if len(lines) > 0 {
		f.rules = gitignore.CompileIgnoreLines(lines...)
	}
	return f, nil
}

// Ignored reports whether path is outside the tracked set. The root itself is
// never ignored, and neither is anything outside the root.
func (f *IgnoreFilter) Ignored(path string, isDir bool) bool {
	rel, err := filepath.Rel(f.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	parts := strings.Split(rel, "/")

	for _, part := range parts {
		for _, d := range ignoredDirs {
			if part == d {
				return true
			}
		}
	}
	for _, n := range ignoredNames {
		if parts[len(parts)-1] == n {
			return true
		}
	}
	if f.snapshotDir != "" && (rel == f.snapshotDir || strings.HasPrefix(rel, f.snapshotDir+"/")) {
		return true
	}

	for _, g := range f.globs {
		if m, _ := doublestar.Match(g, rel); m {
			return true
		}
	}

	if f.rules != nil {
		if f.rules.MatchesPath(rel) {
			return true
		}
		if isDir && f.rules.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

// readPatternFile reads a gitignore-style file and returns non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

package collector

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/pkg/errors"
)

// LanguageCollector counts project files by extension.
type LanguageCollector struct {
	Filter *IgnoreFilter // nil tracks everything
	Top    int           // number of extensions to keep; <= 0 keeps all
}

// Collect walks root and returns the most common extensions, by file count
// descending then extension. Vendored files and files without an extension
// are not counted.
func (lc *LanguageCollector) Collect(ctx context.Context, root string) (Result, error) {
	counts := map[string]int{}
	var warnings []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			warnings = append(warnings, err.Error())
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == root {
			return nil
		}
		if lc.Filter != nil && lc.Filter.Ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if enry.IsVendor(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || enry.IsVendor(rel) {
			return nil
		}

		if ext := extension(d.Name()); ext != "" {
			counts[ext]++
		}
		return nil
	})
	if err != nil {
		return Result{}, errors.Wrapf(err, "scanning %s", root)
	}

	return Result{Languages: topLanguages(counts, lc.Top), Warnings: warnings}, nil
}

// extension returns the extension of name without the dot. Dot files such as
// ".gitignore" have none.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}

func topLanguages(counts map[string]int, top int) []Language {
	langs := make([]Language, 0, len(counts))
	for ext, n := range counts {
		name, _ := enry.GetLanguageByExtension("file." + ext)
		langs = append(langs, Language{Extension: ext, Name: name, Files: n})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Files != langs[j].Files {
			return langs[i].Files > langs[j].Files
		}
		return langs[i].Extension < langs[j].Extension
	})
	if top > 0 && len(langs) > top {
		langs = langs[:top]
	}
	return langs
}

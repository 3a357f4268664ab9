// Package quantify counts line-level additions and removals between two
// versions of a file.
package quantify

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Delta is the line change between two versions of a file.
type Delta struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// IsZero reports whether the delta carries no changes.
func (d Delta) IsZero() bool {
	return d.Added == 0 && d.Removed == 0
}

// surrogate range is skipped when mapping lines to runes so every symbol
// survives the string conversion inside diffmatchpatch unchanged.
const (
	surrogateMin = 0xD800
	surrogateLen = 0x800

	// maxSymbols is the number of distinct lines that fit in valid runes.
	maxSymbols = utf8.MaxRune + 1 - surrogateLen
)

// Lines diffs oldContent against newContent line by line and counts the lines
// that were inserted and deleted. Absent old content is passed as "".
//
// When the two versions hold more distinct lines than there are runes to map
// them to, the counts come from comparing how often each line occurs instead,
// which ignores line order.
func Lines(oldContent, newContent string) Delta {
	return diffLines(oldContent, newContent, maxSymbols)
}

func diffLines(oldContent, newContent string, limit int) Delta {
	if oldContent == newContent {
		return Delta{}
	}

	src, dst, ok := textsToSymbols(oldContent, newContent, limit)
	if !ok {
		return lineCounts(oldContent, newContent)
	}

	dmp := diffmatchpatch.New()
	// No timeout: the result must not depend on how fast the machine is.
	dmp.DiffTimeout = 0

	var d Delta
	for _, diff := range dmp.DiffMainRunes(src, dst, false) {
		n := utf8.RuneCountInString(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			d.Added += n
		case diffmatchpatch.DiffDelete:
			d.Removed += n
		}
	}
	return d
}

// CountLines returns the number of lines in text. A trailing newline does not
// start a new line.
func CountLines(text string) int {
	return len(splitLines(text))
}

func textsToSymbols(text1, text2 string, limit int) ([]rune, []rune, bool) {
	index := make(map[string]rune)
	src, ok := textToSymbols(text1, index, limit)
	if !ok {
		return nil, nil, false
	}
	dst, ok := textToSymbols(text2, index, limit)
	return src, dst, ok
}

func textToSymbols(text string, index map[string]rune, limit int) ([]rune, bool) {
	lines := splitLines(text)

	result := make([]rune, len(lines))
	for i, line := range lines {
		sym, ok := index[line]
		if !ok {
			if len(index) >= limit {
				return nil, false
			}
			sym = rune(len(index))
			if sym >= surrogateMin {
				sym += surrogateLen
			}
			index[line] = sym
		}
		result[i] = sym
	}
	return result, true
}

// lineCounts compares per-line occurrence counts of the two versions.
func lineCounts(oldContent, newContent string) Delta {
	counts := make(map[string]int)
	for _, line := range splitLines(oldContent) {
		counts[line]--
	}
	for _, line := range splitLines(newContent) {
		counts[line]++
	}
	var d Delta
	for _, n := range counts {
		if n > 0 {
			d.Added += n
		} else {
			d.Removed -= n
		}
	}
	return d
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

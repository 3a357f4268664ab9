package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	markdownSentinel   = "<!-- devtrack-report-version: 1 -->"
	markdownDataPrefix = "<!-- devtrack-data: "
	markdownDataSuffix = " -->"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(report *Report) ([]byte, error)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(report *Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// YAMLRenderer renders a Report as YAML.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(report *Report) ([]byte, error) {
	return yaml.Marshal(report)
}

// MarkdownRenderer renders a Report as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(report *Report) ([]byte, error) {
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	s := report.Summary

	sb.WriteString(markdownSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", markdownDataPrefix, encoded, markdownDataSuffix)

	fmt.Fprintf(&sb, "# Dev report: %s (%s)\n\n", s.ProjectRoot, s.StartTime.Format("2006-01-02 15:04"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Total time: %s\n", s.TotalTime)
	fmt.Fprintf(&sb, "- Start time: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- End time: %s\n", s.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- Files tracked: %d\n", s.TotalFiles)
	fmt.Fprintf(&sb, "- Additions: +%d\n", s.TotalAdditions)
	fmt.Fprintf(&sb, "- Deletions: -%d\n", s.TotalDeletions)
	sb.WriteString("\n")

	sb.WriteString("## Files\n\n")
	if len(report.FileDetails) == 0 {
		sb.WriteString("_No file changes recorded._\n")
	} else {
		sb.WriteString("| File | Additions | Deletions | Changes | Active Time | Last Modified |\n")
		sb.WriteString("|------|-----------|-----------|---------|-------------|---------------|\n")
		for _, fd := range ByActivity(report.FileDetails) {
			fmt.Fprintf(&sb, "| %s | +%d | -%d | %d | %s | %s |\n",
				fd.File, fd.Additions, fd.Deletions, fd.ChangeCount,
				fd.ActiveTime, fd.LastModified.Format("2006-01-02 15:04"))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Languages\n\n")
	if len(s.TopLanguages) == 0 {
		sb.WriteString("_No source files found._\n")
	} else {
		for _, l := range s.TopLanguages {
			fmt.Fprintf(&sb, "- %s (%d files)\n", languageLabel(l.Extension, l.Name), l.Files)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Dependencies\n\n")
	if len(s.Dependencies) == 0 {
		sb.WriteString("_No dependencies declared._\n")
	} else {
		for _, d := range s.Dependencies {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

// ByActivity returns a copy of details sorted by change count descending,
// then by file name.
func ByActivity(details []FileDetail) []FileDetail {
	sorted := make([]FileDetail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ChangeCount != sorted[j].ChangeCount {
			return sorted[i].ChangeCount > sorted[j].ChangeCount
		}
		return sorted[i].File < sorted[j].File
	})
	return sorted
}

func languageLabel(ext, name string) string {
	if name == "" {
		return ext
	}
	return fmt.Sprintf("%s [%s]", ext, name)
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "yaml":
		return ".yaml"
	default:
		return ".json"
	}
}

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "json":
		return &JSONRenderer{}, nil
	case "markdown":
		return &MarkdownRenderer{}, nil
	case "yaml":
		return &YAMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// Save renders report in format and writes it to dir/name plus the format's
// extension. It returns the absolute path written.
func Save(report *Report, dir, name, format string) (string, error) {
	renderer, err := RendererFor(format)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(report)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(dir, name+Extension(format)))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

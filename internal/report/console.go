package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aquilax/truncate"
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fakeyudi/devtrack/internal/collector"
)

// Palette is the catppuccin flavor used for terminal output.
var Palette catppuccin.Flavor = catppuccin.Mocha

const fileColumnWidth = 40

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color(Palette.Sky().Hex))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Surface2().Hex))
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Green().Hex))
	delStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Red().Hex))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Yellow().Hex))
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Blue().Hex))
	depStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Mauve().Hex))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Palette.Overlay1().Hex))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Print writes the console view of r to w: the summary, the topFiles most
// changed files, a detail block for the most active file and the dependency
// list.
func Print(w io.Writer, r *Report, topFiles int) {
	printSummary(w, r.Summary)
	printFiles(w, r.FileDetails, topFiles)
	printDependencies(w, r.Summary.Dependencies)
}

func printSummary(w io.Writer, s Summary) {
	langs := make([]string, 0, len(s.TopLanguages))
	for _, l := range s.TopLanguages {
		langs = append(langs, fmt.Sprintf("%s (%d files)", timeStyle.Render(l.Extension), l.Files))
	}

	t := newTable("Metric", "Value").
		Row("Total Time", addStyle.Render(s.TotalTime)).
		Row("Start Time", timeStyle.Render(s.StartTime.Format("2006-01-02 15:04:05"))).
		Row("End Time", timeStyle.Render(s.EndTime.Format("2006-01-02 15:04:05"))).
		Row("Files Tracked", strconv.Itoa(s.TotalFiles)).
		Row("Total Additions", addStyle.Render(fmt.Sprintf("+%d", s.TotalAdditions))).
		Row("Total Deletions", delStyle.Render(fmt.Sprintf("-%d", s.TotalDeletions))).
		Row("Top Languages", strings.Join(langs, "\n"))

	fmt.Fprintln(w, headingStyle.Render("Project Summary"))
	fmt.Fprintln(w, t.String())
}

func printFiles(w io.Writer, details []FileDetail, top int) {
	if len(details) == 0 {
		return
	}
	sorted := ByActivity(details)
	shown := sorted
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	t := newTable("File", "Additions", "Deletions", "Changes", "Active Time", "Last Modified")
	for _, fd := range shown {
		t.Row(
			fileStyle.Render(ShortPath(fd.File, fileColumnWidth)),
			addStyle.Render(fmt.Sprintf("+%d", fd.Additions)),
			delStyle.Render(fmt.Sprintf("-%d", fd.Deletions)),
			strconv.Itoa(fd.ChangeCount),
			timeStyle.Render(fd.ActiveTime),
			fd.LastModified.Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintln(w, headingStyle.Render("Top Modified Files"))
	fmt.Fprintln(w, t.String())

	topFile := sorted[0]
	detail := newTable("Metric", "Value").
		Row("File", fileStyle.Render(topFile.File)).
		Row("Total Changes", strconv.Itoa(topFile.ChangeCount)).
		Row("Additions", addStyle.Render(fmt.Sprintf("+%d", topFile.Additions))).
		Row("Deletions", delStyle.Render(fmt.Sprintf("-%d", topFile.Deletions))).
		Row("Active Time", timeStyle.Render(topFile.ActiveTime)).
		Row("Time Spent", timeStyle.Render(topFile.TimeSpent)).
		Row("Total Edits", strconv.Itoa(topFile.TotalEdits)).
		Row("Avg. Edit Size", fmt.Sprintf("%.2f lines per edit", topFile.AverageEditSize)).
		Row("First Modified", topFile.FirstModified.Format("2006-01-02 15:04:05")).
		Row("Last Modified", topFile.LastModified.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, headingStyle.Render("Detailed Stats for Most Active File"))
	fmt.Fprintln(w, detail.String())
}

// PrintProject writes the language and dependency tables for a project
// without any session data.
func PrintProject(w io.Writer, root string, langs []collector.Language, deps []string) {
	fmt.Fprintln(w, headingStyle.Render("Project "+root))
	if len(langs) > 0 {
		t := newTable("Extension", "Language", "Files")
		for _, l := range langs {
			t.Row(timeStyle.Render(l.Extension), l.Name, strconv.Itoa(l.Files))
		}
		fmt.Fprintln(w, headingStyle.Render("Top Languages"))
		fmt.Fprintln(w, t.String())
	} else {
		fmt.Fprintln(w, mutedStyle.Render("No source files found."))
	}
	if len(deps) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No dependencies declared."))
		return
	}
	printDependencies(w, deps)
}

func printDependencies(w io.Writer, deps []string) {
	if len(deps) == 0 {
		return
	}
	t := newTable("Dependencies")
	for _, d := range deps {
		t.Row(depStyle.Render(d))
	}
	fmt.Fprintln(w, headingStyle.Render("Project Dependencies"))
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Total dependencies: %d", len(deps))))
}

// ShortPath shortens path to at most width runes, keeping its end.
func ShortPath(path string, width int) string {
	return truncate.Truncate(path, width, "...", truncate.PositionStart)
}

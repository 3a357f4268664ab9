// Package tui provides a Bubble Tea TUI for viewing saved devtrack reports.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fakeyudi/devtrack/internal/report"
)

// ── Styles ────────────

func color(hex string) lipgloss.Color { return lipgloss.Color(hex) }

var (
	p = report.Palette

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(color(p.Crust().Hex)).
			Background(color(p.Mauve().Hex)).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(color(p.Crust().Hex)).
			Background(color(p.Mauve().Hex)).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(color(p.Subtext0().Hex)).
				Background(color(p.Surface0().Hex)).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(color(p.Surface2().Hex)).
			Background(color(p.Surface0().Hex))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(color(p.Teal().Hex))

	labelStyle = lipgloss.NewStyle().
			Foreground(color(p.Blue().Hex)).
			Bold(true)

	dimStyle    = lipgloss.NewStyle().Foreground(color(p.Overlay0().Hex))
	timeStyle   = lipgloss.NewStyle().Foreground(color(p.Yellow().Hex))
	bulletStyle = lipgloss.NewStyle().Foreground(color(p.Pink().Hex))
	addStyle    = lipgloss.NewStyle().Foreground(color(p.Green().Hex))
	delStyle    = lipgloss.NewStyle().Foreground(color(p.Red().Hex))
	barStyle    = lipgloss.NewStyle().Foreground(color(p.Peach().Hex))

	statusBarStyle = lipgloss.NewStyle().
			Background(color(p.Surface0().Hex)).
			Foreground(color(p.Subtext0().Hex)).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(color(p.Text().Hex)).
				Background(color(p.Surface1().Hex))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabFiles
	tabLanguages
	tabDependencies
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Files", "Languages", "Dependencies",
}

type fileOrder int

const (
	byChanges fileOrder = iota
	byPath
	byActiveTime
	orderCount
)

var orderNames = [orderCount]string{"most changes", "path", "active time"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	report    *report.Report
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool

	// Files tab: ordering, cursor position and expanded set (keyed by file)
	order    fileOrder
	files    []report.FileDetail
	cursor   int
	expanded map[string]bool
}

// New creates a new TUI model for the given report and source filename.
func New(r *report.Report, filename string) Model {
	m := Model{
		report:   r,
		filename: filepath.Base(filename),
		expanded: make(map[string]bool),
	}
	m.sortFiles()
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabFiles {
				m.order = (m.order + 1) % orderCount
				m.sortFiles()
				m.cursor = 0
				m.rebuildFilesViewport()
				m.viewports[tabFiles].GotoTop()
				return m, nil
			}
		case "up", "k":
			if m.activeTab == tabFiles && m.cursor > 0 {
				m.cursor--
				m.rebuildFilesViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabFiles && m.cursor < len(m.files)-1 {
				m.cursor++
				m.rebuildFilesViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabFiles && len(m.files) > 0 {
				name := m.files[m.cursor].File
				if m.expanded[name] {
					delete(m.expanded, name)
				} else {
					m.expanded[name] = true
				}
				m.rebuildFilesViewport()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  devtrack  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(color(p.Surface0().Hex)).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabFiles {
		hint = "  ←/→ tab  ↑/↓ select  enter expand  s sort (" + orderNames[m.order] + ")  q quit"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildFilesViewport() {
	m.viewports[tabFiles].SetContent(m.renderTab(tabFiles))
}

func (m *Model) sortFiles() {
	switch m.order {
	case byPath:
		m.files = make([]report.FileDetail, len(m.report.FileDetails))
		copy(m.files, m.report.FileDetails)
		sort.SliceStable(m.files, func(i, j int) bool { return m.files[i].File < m.files[j].File })
	case byActiveTime:
		m.files = report.ByActivity(m.report.FileDetails)
		sort.SliceStable(m.files, func(i, j int) bool { return m.files[i].ActiveTimeMs > m.files[j].ActiveTimeMs })
	default:
		m.files = report.ByActivity(m.report.FileDetails)
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabFiles:
		return m.renderFiles()
	case tabLanguages:
		return m.renderLanguages()
	case tabDependencies:
		return m.renderDependencies()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
}

func (m *Model) renderSummary() string {
	s := m.report.Summary
	var sb strings.Builder
	sb.WriteString(heading("Session Summary"))

	row(&sb, "Project:", s.ProjectRoot)
	if s.SessionID != "" {
		row(&sb, "Session:", dimStyle.Render(s.SessionID))
	}
	row(&sb, "Started:", timeStyle.Render(s.StartTime.Format("2006-01-02 15:04:05 MST")))
	row(&sb, "Last Activity:", timeStyle.Render(s.EndTime.Format("2006-01-02 15:04:05 MST")))
	row(&sb, "Total Time:", s.TotalTime)

	sb.WriteString(heading("Totals"))
	row(&sb, "Files Tracked:", fmt.Sprintf("%d", s.TotalFiles))
	row(&sb, "Additions:", addStyle.Render(fmt.Sprintf("+%s", humanize.Comma(int64(s.TotalAdditions)))))
	row(&sb, "Deletions:", delStyle.Render(fmt.Sprintf("-%s", humanize.Comma(int64(s.TotalDeletions)))))
	row(&sb, "Dependencies:", fmt.Sprintf("%d", len(s.Dependencies)))

	if len(s.Warnings) > 0 {
		sb.WriteString(heading(fmt.Sprintf("Warnings (%d)", len(s.Warnings))))
		for _, w := range s.Warnings {
			sb.WriteString(bullet(w))
		}
	}
	return sb.String()
}

func (m *Model) renderFiles() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Files (%d, by %s)", len(m.files), orderNames[m.order])))
	if len(m.files) == 0 {
		sb.WriteString(dimStyle.Render("  (no file changes recorded)") + "\n")
		return sb.String()
	}

	for i, fd := range m.files {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[fd.File] {
			toggle = dimStyle.Render("  ▼ ")
		}
		line := fmt.Sprintf("%s%s  %s %s  %s",
			toggle,
			report.ShortPath(fd.File, 50),
			addStyle.Render(fmt.Sprintf("+%d", fd.Additions)),
			delStyle.Render(fmt.Sprintf("-%d", fd.Deletions)),
			dimStyle.Render(fmt.Sprintf("%d changes", fd.ChangeCount)),
		)
		if i == m.cursor {
			line = selectedRowStyle.Width(max(m.width-2, 1)).Render(line)
		}
		sb.WriteString(line + "\n")

		if m.expanded[fd.File] {
			var detail strings.Builder
			row(&detail, "Active Time:", timeStyle.Render(fd.ActiveTime))
			row(&detail, "Time Spent:", timeStyle.Render(fd.TimeSpent))
			row(&detail, "Total Edits:", fmt.Sprintf("%d", fd.TotalEdits))
			row(&detail, "Avg. Edit Size:", fmt.Sprintf("%.2f lines per edit", fd.AverageEditSize))
			row(&detail, "First Modified:", fd.FirstModified.Format("2006-01-02 15:04:05"))
			row(&detail, "Last Modified:", fd.LastModified.Format("2006-01-02 15:04:05"))
			sb.WriteString(indent(detail.String(), "    "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderLanguages() string {
	langs := m.report.Summary.TopLanguages
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Top Languages (%d)", len(langs))))
	if len(langs) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}

	most := langs[0].Files
	for _, l := range langs {
		if l.Files > most {
			most = l.Files
		}
	}
	for _, l := range langs {
		name := l.Extension
		if l.Name != "" {
			name += dimStyle.Render(" (" + l.Name + ")")
		}
		width := 1
		if most > 0 {
			width = max(1, l.Files*30/most)
		}
		sb.WriteString(fmt.Sprintf("  %-28s %s %d files\n",
			name, barStyle.Render(strings.Repeat("█", width)), l.Files))
	}
	return sb.String()
}

func (m *Model) renderDependencies() string {
	deps := m.report.Summary.Dependencies
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Dependencies (%d)", len(deps))))
	if len(deps) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, d := range deps {
		sb.WriteString(bullet(d))
	}
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the TUI for the given report.
func Run(r *report.Report, filename string) error {
	prog := tea.NewProgram(New(r, filename), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

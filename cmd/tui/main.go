package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	gcColor      = lipgloss.Color("#10B981") // Green
	atColor      = lipgloss.Color("#F59E0B") // Amber
	surfaceColor = lipgloss.Color("#1F2937") // Dark gray
	textColor    = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor   = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor  = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	gcStyle    = lipgloss.NewStyle().Foreground(gcColor).Bold(true)
	atStyle    = lipgloss.NewStyle().Foreground(atColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// Entry mirrors one analyzed sequence in the results database written
// by the batch pipeline.
type Entry struct {
	Identifier     string  `json:"identifier"`
	Bases          string  `json:"bases"`
	Length         int     `json:"length"`
	CountG         int     `json:"count_g"`
	CountC         int     `json:"count_c"`
	CountA         int     `json:"count_a"`
	CountT         int     `json:"count_t"`
	CountAmbiguous int     `json:"count_ambiguous"`
	GCPercent      float64 `json:"gc_percent"`
	ATPercent      float64 `json:"at_percent"`
}

// Summary mirrors the whole-batch statistics.
type Summary struct {
	MeanGC float64 `json:"mean_gc"`
	MinGC  float64 `json:"min_gc"`
	MaxGC  float64 `json:"max_gc"`
}

// Database is the JSON document produced by the batch pipeline.
type Database struct {
	GeneratedAt time.Time `json:"generated_at"`
	Sources     []string  `json:"sources"`
	Entries     []Entry   `json:"entries"`
	Summary     Summary   `json:"summary"`
}

type listItem struct {
	entry Entry
}

func (i listItem) FilterValue() string {
	return i.entry.Identifier
}

func (i listItem) Title() string {
	return i.entry.Identifier
}

func (i listItem) Description() string {
	return fmt.Sprintf("len %d    GC: %s    AT: %s",
		i.entry.Length,
		gcStyle.Render(fmt.Sprintf("%.2f%%", i.entry.GCPercent)),
		atStyle.Render(fmt.Sprintf("%.2f%%", i.entry.ATPercent)))
}

type mode int

const (
	modeBases mode = iota
	modeComposition
	modeSummary
)

func (m mode) String() string {
	switch m {
	case modeBases:
		return "Bases"
	case modeComposition:
		return "Composition"
	case modeSummary:
		return "Summary"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	db            Database
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	totalEntries  int
	selectedIndex int
}

var dbPath = "results.json"

func initialModel() model {
	data, err := os.ReadFile(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", dbPath, err)
		os.Exit(1)
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		fmt.Fprintf(os.Stderr, "cannot parse %s: %v\n", dbPath, err)
		os.Exit(1)
	}

	items := make([]list.Item, len(db.Entries))
	for i, e := range db.Entries {
		items[i] = listItem{entry: e}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Sequences"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:         l,
		db:           db,
		currentMode:  modeBases,
		totalEntries: len(db.Entries),
	}
}

// cycleMode advances to the next view mode, wrapping around.
func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 3
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		listWidth := msg.Width / 3
		listHeight := msg.Height - 4

		m.list.SetWidth(listWidth)
		m.list.SetHeight(listHeight)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "h":
			m.showHelp = !m.showHelp
			return m, nil

		case "tab":
			return m.cycleMode(), nil

		case "1":
			m.currentMode = modeBases
			return m, nil

		case "2":
			m.currentMode = modeComposition
			return m, nil

		case "3":
			m.currentMode = modeSummary
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpModal()
	}

	leftPanel := m.renderLeftPanel()
	rightPanel := m.renderRightPanel()
	statusBar := m.renderStatusBar()

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanel,
		rightPanel,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		statusBar,
	)
}

func (m model) renderLeftPanel() string {
	listWidth := m.width / 3

	return containerStyle.
		Width(listWidth - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if m.totalEntries == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No sequences available")
	}

	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No sequence selected")
	}

	entry := selectedItem.(listItem).entry
	lines := m.buildRightLines(entry)

	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(strings.Join(lines, "\n"))
}

// buildRightLines assembles the detail panel content for one entry in
// the current view mode.
func (m model) buildRightLines(entry Entry) []string {
	header := titleStyle.Render(fmt.Sprintf("%s (%d bp)", entry.Identifier, entry.Length))
	meta := mutedStyle.Render("GC: ") + gcStyle.Render(fmt.Sprintf("%.2f%%", entry.GCPercent)) +
		mutedStyle.Render("    AT: ") + atStyle.Render(fmt.Sprintf("%.2f%%", entry.ATPercent))

	lines := []string{header, meta, ""}

	switch m.currentMode {
	case modeBases:
		content := entry.Bases
		if content == "" {
			lines = append(lines, mutedStyle.Render("No bases available"))
			break
		}
		lines = append(lines, sequenceStyle.Width(m.width*2/3-6).Render(content))
	case modeComposition:
		rows := []struct {
			label string
			count int
		}{
			{"G", entry.CountG},
			{"C", entry.CountC},
			{"A", entry.CountA},
			{"T", entry.CountT},
			{"ambiguous", entry.CountAmbiguous},
		}
		for _, row := range rows {
			pct := 0.0
			if entry.Length > 0 {
				pct = float64(row.count) / float64(entry.Length) * 100
			}
			lines = append(lines, fmt.Sprintf("%-10s %6d  %6.2f%%", row.label, row.count, pct))
		}
	case modeSummary:
		lines = append(lines,
			fmt.Sprintf("sequences  %d", m.totalEntries),
			fmt.Sprintf("mean GC%%   %.2f", m.db.Summary.MeanGC),
			fmt.Sprintf("min GC%%    %.2f", m.db.Summary.MinGC),
			fmt.Sprintf("max GC%%    %.2f", m.db.Summary.MaxGC),
		)
		if len(m.db.Sources) > 0 {
			lines = append(lines, "", mutedStyle.Render("sources: "+strings.Join(m.db.Sources, ", ")))
		}
	}

	return lines
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d sequences", m.selectedIndex+1, m.totalEntries)
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())
	rightInfo := "Press 'h' for help, 'q' to quit"

	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing

		statusContent = fmt.Sprintf("%s%s%s%s%s",
			leftInfo,
			strings.Repeat(" ", leftSpacing),
			centerInfo,
			strings.Repeat(" ", rightSpacing),
			rightInfo,
		)
	} else {
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}

	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `GC Content Browser - Help

Navigation:
  up/down, j/k  Navigate list
  /             Filter sequences
  Tab           Cycle view modes

View Modes:
  1             Show bases
  2             Show per-base composition
  3             Show batch summary

General:
  h             Toggle this help
  q, Ctrl+C     Quit application

Current Mode: ` + m.currentMode.String() + `
Total Sequences: ` + fmt.Sprintf("%d", m.totalEntries) + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Align(lipgloss.Center)

	modal := modalStyle.Render(helpContent)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}

func main() {
	flag.StringVar(&dbPath, "db", "results.json", "path to the results JSON written by the batch analyzer")
	flag.Parse()

	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}

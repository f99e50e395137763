package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/screentime/screentime/internal/models"
	"github.com/screentime/screentime/internal/reporter"
	"github.com/screentime/screentime/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshEvery = 5 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A90E2"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F56"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

type tickMsg struct{}

type refreshMsg struct {
	today *models.Report
	week  *models.WeekReport
	err   error
}

// Model is the terminal dashboard: a read-only view over today's summary
// and the weekly totals, refreshed on a timer.
type Model struct {
	reporter *reporter.Reporter
	today    *models.Report
	week     *models.WeekReport
	err      error
	width    int
	height   int
}

func NewModel(rep *reporter.Reporter) Model {
	return Model{reporter: rep}
}

func (m Model) Init() tea.Cmd {
	return m.refresh
}

func (m Model) refresh() tea.Msg {
	today, err := m.reporter.Stats(1, reporter.GroupByApp)
	if err != nil {
		return refreshMsg{err: err}
	}
	week, err := m.reporter.Week()
	if err != nil {
		return refreshMsg{err: err}
	}
	return refreshMsg{today: today, week: week}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, m.refresh

	case refreshMsg:
		m.today = msg.today
		m.week = msg.week
		m.err = msg.err
		return m, scheduleTick()
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Screentime"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("r refresh • q quit"))
		return b.String()
	}

	if m.today == nil {
		b.WriteString(mutedStyle.Render("Loading..."))
		return b.String()
	}

	b.WriteString(totalStyle.Render(fmt.Sprintf("Today: %s", utils.FormatDuration(m.today.TotalSeconds))))
	b.WriteString("\n\n")

	if len(m.today.Apps) == 0 {
		b.WriteString(mutedStyle.Render("No activity recorded yet today."))
		b.WriteString("\n")
	} else {
		for i, app := range m.today.Apps {
			if i >= m.maxAppRows() {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("... and %d more", len(m.today.Apps)-i)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("%-24s %s %10s %s\n",
				utils.Truncate(app.AppName, 24),
				barStyle.Render(reporter.RenderBar(app.TotalSeconds, m.today.TotalSeconds, 24)),
				utils.FormatDuration(app.TotalSeconds),
				mutedStyle.Render(fmt.Sprintf("%5.1f%%", app.Percentage))))
		}
	}

	if m.week != nil && len(m.week.Days) > 0 {
		b.WriteString("\n")
		b.WriteString(totalStyle.Render(fmt.Sprintf("Week: %s (avg %s/day)",
			utils.FormatDuration(m.week.TotalSeconds),
			utils.FormatDuration(m.week.AverageSeconds))))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("r refresh • q quit"))
	return b.String()
}

func (m Model) maxAppRows() int {
	if m.height == 0 {
		return 15
	}
	rows := m.height - 9
	if rows < 3 {
		rows = 3
	}
	return rows
}

// Run starts the dashboard and blocks until the user quits.
func Run(rep *reporter.Reporter) error {
	p := tea.NewProgram(NewModel(rep), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

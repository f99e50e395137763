package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/screentime/screentime/internal/config"
	"github.com/screentime/screentime/internal/database"
	"github.com/screentime/screentime/internal/models"
	"github.com/screentime/screentime/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

const (
	GroupByApp    = "app"
	GroupByWindow = "window"

	maxRows  = 20
	barWidth = 30
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A90E2"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Reporter builds derived aggregates over stored focus intervals
type Reporter struct {
	config *config.Config
	repo   *database.Repository
}

// New creates a new reporter
func New(cfg *config.Config, repo *database.Repository) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
	}
}

// Stats aggregates focus time over the last days. A single day means
// "since midnight today"; more start exactly days*24h ago. groupBy is
// either "app" or "window".
func (r *Reporter) Stats(days int, groupBy string) (*models.Report, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1, got %d", days)
	}

	now := time.Now()
	var start time.Time
	if days == 1 {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	} else {
		start = now.AddDate(0, 0, -days)
	}

	report := &models.Report{
		Period:      models.ReportPeriod{Start: start, End: now, Days: days},
		GroupBy:     groupBy,
		GeneratedAt: now,
	}

	switch groupBy {
	case GroupByApp:
		apps, err := r.repo.AppSummarySince(start)
		if err != nil {
			return nil, fmt.Errorf("failed to get app summary: %w", err)
		}
		report.Apps = apps
		for i := range apps {
			report.TotalSeconds += apps[i].TotalSeconds
		}
		if report.TotalSeconds > 0 {
			for i := range apps {
				apps[i].Percentage = float64(apps[i].TotalSeconds) / float64(report.TotalSeconds) * 100.0
			}
		}

	case GroupByWindow:
		windows, err := r.repo.WindowSummarySince(start)
		if err != nil {
			return nil, fmt.Errorf("failed to get window summary: %w", err)
		}
		report.Windows = windows
		for i := range windows {
			report.TotalSeconds += windows[i].TotalSeconds
		}
		if report.TotalSeconds > 0 {
			for i := range windows {
				windows[i].Percentage = float64(windows[i].TotalSeconds) / float64(report.TotalSeconds) * 100.0
			}
		}

	default:
		return nil, fmt.Errorf("invalid group-by: %s (valid: app, window)", groupBy)
	}

	return report, nil
}

// Daily aggregates per-application focus time for one calendar day.
func (r *Reporter) Daily(date time.Time) (*models.Report, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	apps, err := r.repo.DailyBreakdown(models.DateOf(start))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily breakdown: %w", err)
	}

	report := &models.Report{
		Period:      models.ReportPeriod{Start: start, End: start.Add(24 * time.Hour), Days: 1},
		GroupBy:     GroupByApp,
		Apps:        apps,
		GeneratedAt: time.Now(),
	}

	for i := range apps {
		report.TotalSeconds += apps[i].TotalSeconds
	}
	if report.TotalSeconds > 0 {
		for i := range apps {
			apps[i].Percentage = float64(apps[i].TotalSeconds) / float64(report.TotalSeconds) * 100.0
		}
	}

	return report, nil
}

// Week returns per-day totals for the past seven days.
func (r *Reporter) Week() (*models.WeekReport, error) {
	now := time.Now()
	fromDate := models.DateOf(now.AddDate(0, 0, -6))

	days, err := r.repo.DayTotals(fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get day totals: %w", err)
	}

	report := &models.WeekReport{
		Days:        days,
		GeneratedAt: now,
	}

	for _, day := range days {
		report.TotalSeconds += day.TotalSeconds
	}
	if len(days) > 0 {
		report.AverageSeconds = report.TotalSeconds / int64(len(days))
	}

	return report, nil
}

// FormatStatsText renders a stats report as a styled table.
func (r *Reporter) FormatStatsText(report *models.Report) string {
	var b strings.Builder

	if report.Period.Days == 1 {
		b.WriteString(titleStyle.Render("Today's Screen Time"))
	} else {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Screen Time (Last %d days)", report.Period.Days)))
	}
	b.WriteString("\n\n")

	if report.TotalSeconds == 0 {
		b.WriteString("No data recorded yet. Start tracking with 'screentime start'\n")
		return b.String()
	}

	b.WriteString(totalStyle.Render(fmt.Sprintf("Total screen time: %s", utils.FormatDuration(report.TotalSeconds))))
	b.WriteString("\n\n")

	if report.GroupBy == GroupByWindow {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-30s %15s %10s", "Application", "Window", "Duration", "Percent")))
		b.WriteString("\n")
		for i, win := range report.Windows {
			if i >= maxRows {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("... and %d more", len(report.Windows)-maxRows)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("%-20s %-30s %15s %9.1f%%\n",
				utils.Truncate(win.AppName, 20),
				utils.Truncate(win.WindowTitle, 30),
				utils.FormatDuration(win.TotalSeconds),
				win.Percentage))
		}
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-30s %15s %10s", "Application", "Duration", "Percent")))
	b.WriteString("\n")
	for i, app := range report.Apps {
		if i >= maxRows {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("... and %d more", len(report.Apps)-maxRows)))
			b.WriteString("\n")
			break
		}
		b.WriteString(fmt.Sprintf("%-30s %15s %9.1f%%\n",
			utils.Truncate(app.AppName, 30),
			utils.FormatDuration(app.TotalSeconds),
			app.Percentage))
	}

	return b.String()
}

// FormatDailyText renders a daily breakdown with percentage bars.
func (r *Reporter) FormatDailyText(report *models.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Screen Time for %s", report.Period.Start.Format(models.DateLayout))))
	b.WriteString("\n\n")

	if report.TotalSeconds == 0 {
		b.WriteString("No data recorded for this date.\n")
		return b.String()
	}

	b.WriteString(totalStyle.Render(fmt.Sprintf("Total: %s", utils.FormatDuration(report.TotalSeconds))))
	b.WriteString("\n\n")

	for i, app := range report.Apps {
		if i >= 10 {
			break
		}
		b.WriteString(fmt.Sprintf("%-30s %s %12s %s\n",
			utils.Truncate(app.AppName, 30),
			barStyle.Render(RenderBar(app.TotalSeconds, report.TotalSeconds, barWidth)),
			utils.FormatDuration(app.TotalSeconds),
			mutedStyle.Render(fmt.Sprintf("(%5.1f%%)", app.Percentage))))
	}

	return b.String()
}

// FormatWeekText renders the weekly summary.
func (r *Reporter) FormatWeekText(report *models.WeekReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Weekly Screen Time Summary"))
	b.WriteString("\n\n")

	if len(report.Days) == 0 {
		b.WriteString("No data recorded yet.\n")
		return b.String()
	}

	for _, day := range report.Days {
		label := day.Date
		if t, err := time.Parse(models.DateLayout, day.Date); err == nil {
			label = t.Format("Mon 2006-01-02")
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", label, utils.FormatDuration(day.TotalSeconds)))
	}

	b.WriteString("\n")
	b.WriteString(totalStyle.Render(fmt.Sprintf("Total: %s", utils.FormatDuration(report.TotalSeconds))))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Daily average: %s\n", utils.FormatDuration(report.AverageSeconds)))

	return b.String()
}

// RenderBar draws a fixed-width proportion bar.
func RenderBar(value, total int64, width int) string {
	if width <= 0 {
		return ""
	}
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(value * int64(width) / total)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatJSON formats any report as indented JSON.
func (r *Reporter) FormatJSON(report interface{}) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

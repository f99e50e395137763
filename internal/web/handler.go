package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/screentime/screentime/internal/config"
	"github.com/screentime/screentime/internal/database"
	"github.com/screentime/screentime/internal/models"
	"github.com/screentime/screentime/internal/reporter"
	"github.com/screentime/screentime/pkg/utils"

	"github.com/dustin/go-humanize"
)

type Handler struct {
	config   *config.Config
	repo     *database.Repository
	reporter *reporter.Reporter
}

func NewHandler(cfg *config.Config, repo *database.Repository) *Handler {
	return &Handler{
		config:   cfg,
		repo:     repo,
		reporter: reporter.New(cfg, repo),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/api/daily", h.handleDaily)
	mux.HandleFunc("/api/week", h.handleWeek)
	mux.HandleFunc("/api/status", h.handleStatus)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	days := 1
	if daysStr := query.Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d < 1 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		days = d
	}

	groupBy := query.Get("group_by")
	if groupBy == "" {
		groupBy = reporter.GroupByApp
	}

	report, err := h.reporter.Stats(days, groupBy)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate stats: %v", err), http.StatusBadRequest)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondSummaryHTML(w, report.Apps, report.TotalSeconds)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, dateStr, time.Local)
		if err != nil {
			http.Error(w, "invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	report, err := h.reporter.Daily(date)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate daily breakdown: %v", err), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondSummaryHTML(w, report.Apps, report.TotalSeconds)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.reporter.Week()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate week summary: %v", err), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondWeekHTML(w, report)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) respondSummaryHTML(w http.ResponseWriter, apps []models.AppSummary, totalSeconds int64) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(apps) == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	html := `<div class="listing">`
	for _, app := range apps {
		html += fmt.Sprintf(`
		<div class="app-item" style="--bar-width: %.1f%%">
			<span class="app-name">%s</span>
			<div>
				<span class="app-time">%s</span>
				<span class="app-percentage">%.1f%%</span>
			</div>
		</div>`, app.Percentage, app.AppName, utils.FormatDuration(app.TotalSeconds), app.Percentage)
	}
	html += `</div>`

	html += fmt.Sprintf(`<div class="total">Total: %s</div>`, utils.FormatDuration(totalSeconds))

	w.Write([]byte(html))
}

func (h *Handler) respondWeekHTML(w http.ResponseWriter, report *models.WeekReport) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Days) == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	html := `<div class="listing">`
	for _, day := range report.Days {
		label := day.Date
		if t, err := time.Parse(models.DateLayout, day.Date); err == nil {
			label = t.Format("Mon Jan 2")
		}
		html += fmt.Sprintf(`
		<div class="app-item">
			<span class="app-name">%s</span>
			<span class="app-time">%s</span>
		</div>`, label, utils.FormatDuration(day.TotalSeconds))
	}
	html += `</div>`

	html += fmt.Sprintf(`<div class="total">Total: %s (avg %s/day)</div>`,
		utils.FormatDuration(report.TotalSeconds),
		utils.FormatDuration(report.AverageSeconds))

	w.Write([]byte(html))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest, _ := h.repo.GetLatest()

	status := map[string]interface{}{
		"poll_interval": h.config.Tracker.PollInterval.String(),
		"database_path": h.config.Database.Path,
	}

	if latest != nil {
		status["latest_interval"] = map[string]interface{}{
			"app_name":       latest.AppName,
			"window_title":   latest.WindowTitle,
			"start_time":     latest.StartTime,
			"open":           latest.Open(),
			"display_server": latest.DisplayServer,
			"last_seen":      humanize.Time(latest.UpdatedAt),
		}
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

package models

import "time"

type AppSummary struct {
	AppName       string  `json:"app_name"`
	TotalSeconds  int64   `json:"total_seconds"`
	IntervalCount int     `json:"interval_count"`
	Percentage    float64 `json:"percentage,omitempty"`
}

type WindowSummary struct {
	AppName       string  `json:"app_name"`
	WindowTitle   string  `json:"window_title"`
	TotalSeconds  int64   `json:"total_seconds"`
	IntervalCount int     `json:"interval_count"`
	Percentage    float64 `json:"percentage,omitempty"`
}

// DayTotal is the summed focus time of one calendar day.
type DayTotal struct {
	Date         string `json:"date"`
	TotalSeconds int64  `json:"total_seconds"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Report is a derived, non-persisted aggregate over FocusInterval rows,
// grouped either by application or by (application, window title).
type Report struct {
	Period       ReportPeriod    `json:"period"`
	GroupBy      string          `json:"group_by"` // "app" or "window"
	Apps         []AppSummary    `json:"apps,omitempty"`
	Windows      []WindowSummary `json:"windows,omitempty"`
	TotalSeconds int64           `json:"total_seconds"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// WeekReport holds per-day totals for the trailing week.
type WeekReport struct {
	Days           []DayTotal `json:"days"`
	TotalSeconds   int64      `json:"total_seconds"`
	AverageSeconds int64      `json:"average_seconds"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

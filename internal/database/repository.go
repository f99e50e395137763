package database

import (
	"strings"
	"time"

	"github.com/screentime/screentime/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for focus intervals
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Open inserts a new open interval starting at start. App names are
// normalized to lowercase so aggregation is case-insensitive.
func (r *Repository) Open(appName, windowTitle, displayServer string, start time.Time) (*models.FocusInterval, error) {
	interval := &models.FocusInterval{
		AppName:       strings.ToLower(appName),
		WindowTitle:   windowTitle,
		StartTime:     start,
		Date:          models.DateOf(start),
		DisplayServer: displayServer,
	}
	if result := r.db.Create(interval); result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to open focus interval")
	}
	return interval, nil
}

// Heartbeat refreshes the duration of an open interval.
func (r *Repository) Heartbeat(id uint, duration int64) error {
	result := r.db.Model(&models.FocusInterval{}).Where("id = ?", id).Update("duration", duration)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update interval duration")
	}
	return nil
}

// CloseInterval closes an interval at end and fixes its duration.
func (r *Repository) CloseInterval(interval *models.FocusInterval, end time.Time) error {
	if end.Before(interval.StartTime) {
		end = interval.StartTime
	}
	duration := int64(end.Sub(interval.StartTime).Seconds())

	result := r.db.Model(interval).Updates(map[string]interface{}{
		"end_time": end,
		"duration": duration,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to close focus interval")
	}

	interval.EndTime = &end
	interval.Duration = duration
	return nil
}

// GetOpen returns the currently open interval, or nil if all are closed.
func (r *Repository) GetOpen() (*models.FocusInterval, error) {
	var interval models.FocusInterval
	result := r.db.Where("end_time IS NULL").Order("start_time DESC").First(&interval)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get open interval")
	}
	return &interval, nil
}

// CloseStale closes any intervals left open by a previous run, using the
// last heartbeat as the end time. Returns the number of intervals closed.
func (r *Repository) CloseStale() (int64, error) {
	var stale []models.FocusInterval
	if result := r.db.Where("end_time IS NULL").Find(&stale); result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to query open intervals")
	}

	for i := range stale {
		end := stale[i].StartTime.Add(time.Duration(stale[i].Duration) * time.Second)
		if err := r.CloseInterval(&stale[i], end); err != nil {
			return 0, err
		}
	}

	return int64(len(stale)), nil
}

// GetLatest retrieves the most recent interval, open or closed.
func (r *Repository) GetLatest() (*models.FocusInterval, error) {
	var interval models.FocusInterval
	result := r.db.Order("start_time DESC").First(&interval)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest interval")
	}
	return &interval, nil
}

// AppSummarySince returns per-application totals for intervals starting at
// or after since. Open intervals contribute their heartbeat duration.
func (r *Repository) AppSummarySince(since time.Time) ([]models.AppSummary, error) {
	var summaries []models.AppSummary

	result := r.db.Model(&models.FocusInterval{}).
		Select("app_name, SUM(duration) as total_seconds, COUNT(*) as interval_count").
		Where("start_time >= ?", since).
		Group("app_name").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app summary")
	}

	return summaries, nil
}

// WindowSummarySince is AppSummarySince grouped by (app, window title).
func (r *Repository) WindowSummarySince(since time.Time) ([]models.WindowSummary, error) {
	var summaries []models.WindowSummary

	result := r.db.Model(&models.FocusInterval{}).
		Select("app_name, window_title, SUM(duration) as total_seconds, COUNT(*) as interval_count").
		Where("start_time >= ?", since).
		Group("app_name, window_title").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query window summary")
	}

	return summaries, nil
}

// DailyBreakdown returns per-application totals for one calendar day.
// Interval rows never span days, so matching on date is exact.
func (r *Repository) DailyBreakdown(date string) ([]models.AppSummary, error) {
	var summaries []models.AppSummary

	result := r.db.Model(&models.FocusInterval{}).
		Select("app_name, SUM(duration) as total_seconds, COUNT(*) as interval_count").
		Where("date = ?", date).
		Group("app_name").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query daily breakdown")
	}

	return summaries, nil
}

// DayTotals returns summed durations per day from fromDate onward,
// most recent day first.
func (r *Repository) DayTotals(fromDate string) ([]models.DayTotal, error) {
	var totals []models.DayTotal

	result := r.db.Model(&models.FocusInterval{}).
		Select("date, SUM(duration) as total_seconds").
		Where("date >= ?", fromDate).
		Group("date").
		Order("date DESC").
		Scan(&totals)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query day totals")
	}

	return totals, nil
}

// TotalForDate returns the summed focus time of one calendar day.
func (r *Repository) TotalForDate(date string) (int64, error) {
	var total int64
	result := r.db.Model(&models.FocusInterval{}).
		Select("COALESCE(SUM(duration), 0)").
		Where("date = ?", date).
		Scan(&total)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to query day total")
	}

	return total, nil
}

// Reset removes all focus intervals from the database
func (r *Repository) Reset() error {
	result := r.db.Exec("DELETE FROM focus_intervals")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to reset focus intervals")
	}
	return nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

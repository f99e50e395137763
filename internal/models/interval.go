package models

import (
	"time"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// FocusInterval is a contiguous span of time during which one
// application/window held input focus. EndTime is NULL while the interval
// is still open; Duration is refreshed on every poll tick so a crash loses
// at most one poll interval. The recorder splits intervals at midnight, so
// every row lies entirely within the calendar day named by Date.
type FocusInterval struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppName       string         `gorm:"not null;index" json:"app_name"`
	WindowTitle   string         `gorm:"not null" json:"window_title"`
	StartTime     time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime       *time.Time     `gorm:"index" json:"end_time"`
	Duration      int64          `gorm:"not null;default:0" json:"duration"` // seconds
	Date          string         `gorm:"not null;index;size:10" json:"date"` // YYYY-MM-DD of StartTime
	DisplayServer string         `gorm:"not null" json:"display_server"`     // "x11" or "wayland"
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Open reports whether the interval has not been closed yet.
func (fi *FocusInterval) Open() bool {
	return fi.EndTime == nil
}

// DateOf returns t's calendar day in DateLayout.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

type BlockedApp struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AppName   string    `gorm:"uniqueIndex;not null" json:"app_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
}

type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

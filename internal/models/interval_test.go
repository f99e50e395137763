package models

import (
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	interval := FocusInterval{StartTime: time.Now()}
	if !interval.Open() {
		t.Error("Open() = false for an interval with no end time")
	}

	end := time.Now()
	interval.EndTime = &end
	if interval.Open() {
		t.Error("Open() = true for a closed interval")
	}
}

func TestDateOf(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{t: time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local), want: "2026-08-20"},
		{t: time.Date(2026, 8, 20, 23, 59, 59, 0, time.Local), want: "2026-08-20"},
		{t: time.Date(2026, 1, 5, 12, 0, 0, 0, time.Local), want: "2026-01-05"},
	}

	for _, tt := range tests {
		if got := DateOf(tt.t); got != tt.want {
			t.Errorf("DateOf(%v) = %s, want %s", tt.t, got, tt.want)
		}
	}
}

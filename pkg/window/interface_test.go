package window

import (
	"errors"
	"testing"
)

type fakeDetector struct {
	windowInfo    *WindowInfo
	windowErr     error
	idleInfo      *IdleInfo
	available     bool
	displayServer string
}

func (f *fakeDetector) GetFocusedWindow() (*WindowInfo, error) { return f.windowInfo, f.windowErr }
func (f *fakeDetector) GetIdleInfo() (*IdleInfo, error)        { return f.idleInfo, nil }
func (f *fakeDetector) IsAvailable() bool                      { return f.available }
func (f *fakeDetector) GetDisplayServer() string               { return f.displayServer }
func (f *fakeDetector) Close() error                           { return nil }

func TestDetectorInterface(t *testing.T) {
	var _ Detector = (*fakeDetector)(nil)

	fake := &fakeDetector{
		windowInfo: &WindowInfo{
			AppName:       "firefox",
			WindowTitle:   "Mozilla Firefox",
			ProcessName:   "firefox",
			DisplayServer: "x11",
		},
		idleInfo:      &IdleInfo{IsIdle: false, IsLocked: false, IdleTime: 12},
		available:     true,
		displayServer: "x11",
	}

	info, err := fake.GetFocusedWindow()
	if err != nil {
		t.Fatalf("GetFocusedWindow() error: %v", err)
	}
	if info.AppName != "firefox" {
		t.Errorf("AppName = %s, want firefox", info.AppName)
	}

	idle, err := fake.GetIdleInfo()
	if err != nil {
		t.Fatalf("GetIdleInfo() error: %v", err)
	}
	if idle.IsIdle {
		t.Error("IsIdle = true, want false")
	}

	if !fake.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}
	if fake.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", fake.GetDisplayServer())
	}
}

func TestNoFocusedWindow(t *testing.T) {
	// nil info with nil error means "nothing focused", not a failure.
	fake := &fakeDetector{available: true, displayServer: "wayland"}

	info, err := fake.GetFocusedWindow()
	if err != nil {
		t.Fatalf("GetFocusedWindow() error: %v", err)
	}
	if info != nil {
		t.Errorf("GetFocusedWindow() = %+v, want nil", info)
	}
}

func TestDetectorError(t *testing.T) {
	fake := &fakeDetector{windowErr: errors.New("display gone")}

	if _, err := fake.GetFocusedWindow(); err == nil {
		t.Error("GetFocusedWindow() error = nil, want error")
	}
}

func TestIdleInfoStates(t *testing.T) {
	tests := []struct {
		name string
		info IdleInfo
	}{
		{name: "active", info: IdleInfo{IsIdle: false, IsLocked: false, IdleTime: 30}},
		{name: "idle", info: IdleInfo{IsIdle: true, IsLocked: false, IdleTime: 600}},
		{name: "locked", info: IdleInfo{IsIdle: false, IsLocked: true, IdleTime: 0}},
		{name: "idle and locked", info: IdleInfo{IsIdle: true, IsLocked: true, IdleTime: 900}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.info.IdleTime < 0 {
				t.Errorf("IdleTime is negative: %d", tt.info.IdleTime)
			}
			if tt.info.IsIdle && tt.info.IdleTime == 0 && tt.name == "idle" {
				t.Error("idle state should carry a nonzero idle time")
			}
		})
	}
}

func TestIdleThresholdComparison(t *testing.T) {
	tests := []struct {
		idleTime  int64
		threshold int64
		wantIdle  bool
	}{
		{idleTime: 0, threshold: 300, wantIdle: false},
		{idleTime: 299, threshold: 300, wantIdle: false},
		{idleTime: 300, threshold: 300, wantIdle: false}, // equal is still active
		{idleTime: 301, threshold: 300, wantIdle: true},
		{idleTime: 3600, threshold: 300, wantIdle: true},
	}

	for _, tt := range tests {
		isIdle := tt.idleTime > tt.threshold
		if isIdle != tt.wantIdle {
			t.Errorf("idleTime %d > threshold %d = %v, want %v",
				tt.idleTime, tt.threshold, isIdle, tt.wantIdle)
		}
	}
}

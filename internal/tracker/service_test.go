package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/screentime/screentime/internal/config"
	"github.com/screentime/screentime/internal/database"
	"github.com/screentime/screentime/pkg/window"
)

type mockDetector struct {
	windowInfo *window.WindowInfo
	windowErr  error
	idleInfo   window.IdleInfo
}

func (m *mockDetector) GetFocusedWindow() (*window.WindowInfo, error) {
	return m.windowInfo, m.windowErr
}

func (m *mockDetector) GetIdleInfo() (*window.IdleInfo, error) {
	info := m.idleInfo
	return &info, nil
}

func (m *mockDetector) IsAvailable() bool        { return true }
func (m *mockDetector) GetDisplayServer() string { return "x11" }
func (m *mockDetector) Close() error             { return nil }

func (m *mockDetector) focus(app, title string) {
	m.windowInfo = &window.WindowInfo{
		AppName:       app,
		WindowTitle:   title,
		ProcessName:   app,
		DisplayServer: "x11",
	}
}

func newTestService(t *testing.T) (*Service, *database.Repository, *mockDetector) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	det := &mockDetector{}
	svc := NewService(config.Default(), repo, det)
	return svc, repo, det
}

func TestFocusChangeClosesAndOpens(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("Firefox", "Mozilla Firefox")
	if err := svc.sample(t0); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	det.focus("Code", "main.go")
	if err := svc.sample(t0.Add(10 * time.Second)); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	open, err := repo.GetOpen()
	if err != nil {
		t.Fatalf("GetOpen() error: %v", err)
	}
	if open == nil || open.AppName != "code" {
		t.Fatalf("open interval = %+v, want code", open)
	}

	summaries, err := repo.AppSummarySince(t0.Add(-time.Minute))
	if err != nil {
		t.Fatalf("AppSummarySince() error: %v", err)
	}
	totals := map[string]int64{}
	for _, s := range summaries {
		totals[s.AppName] = s.TotalSeconds
	}
	if totals["firefox"] != 10 {
		t.Errorf("firefox total = %d, want 10", totals["firefox"])
	}
}

func TestHeartbeatTracksElapsed(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	for i := 0; i <= 6; i++ {
		if err := svc.sample(t0.Add(time.Duration(i) * 5 * time.Second)); err != nil {
			t.Fatalf("sample() error: %v", err)
		}
	}

	open, err := repo.GetOpen()
	if err != nil {
		t.Fatalf("GetOpen() error: %v", err)
	}
	if open == nil {
		t.Fatal("no open interval after repeated samples")
	}
	if open.Duration != 30 {
		t.Errorf("open Duration = %d, want 30 (heartbeat each tick)", open.Duration)
	}
}

func TestTitleChangeStartsNewInterval(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab one")
	svc.sample(t0)
	det.focus("firefox", "tab two")
	svc.sample(t0.Add(5 * time.Second))

	summaries, err := repo.WindowSummarySince(t0.Add(-time.Minute))
	if err != nil {
		t.Fatalf("WindowSummarySince() error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d window rows, want 2: %+v", len(summaries), summaries)
	}
}

func TestIdleClosesAtIdleStart(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	svc.sample(t0)
	svc.sample(t0.Add(5 * time.Minute)) // heartbeat counts 300s

	// The idle threshold fires at t0+10m with 301s of idle time. The user
	// actually left at t0+10m-301s, so the interval must shrink to that.
	det.idleInfo = window.IdleInfo{IsIdle: true, IdleTime: 301}
	if err := svc.sample(t0.Add(10 * time.Minute)); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	open, _ := repo.GetOpen()
	if open != nil {
		t.Fatalf("interval still open while idle: %+v", open)
	}

	latest, err := repo.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest() error: %v", err)
	}
	wantEnd := t0.Add(10*time.Minute - 301*time.Second)
	if latest.EndTime == nil || !latest.EndTime.Equal(wantEnd) {
		t.Errorf("EndTime = %v, want %v", latest.EndTime, wantEnd)
	}
	if latest.Duration != 299 {
		t.Errorf("Duration = %d, want 299", latest.Duration)
	}
}

func TestLockedClosesInterval(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	svc.sample(t0)

	det.idleInfo = window.IdleInfo{IsLocked: true}
	if err := svc.sample(t0.Add(5 * time.Second)); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	open, _ := repo.GetOpen()
	if open != nil {
		t.Errorf("interval still open while locked: %+v", open)
	}
}

func TestNoWindowIsAGap(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	svc.sample(t0)

	det.windowInfo = nil
	if err := svc.sample(t0.Add(5 * time.Second)); err != nil {
		t.Fatalf("sample() with no focused window should not error: %v", err)
	}

	open, _ := repo.GetOpen()
	if open != nil {
		t.Errorf("interval still open with no focused window: %+v", open)
	}

	// Focus returns: a fresh interval starts, the gap stays unrecorded.
	det.focus("firefox", "tab")
	svc.sample(t0.Add(60 * time.Second))
	svc.sample(t0.Add(65 * time.Second))

	total, err := repo.TotalForDate("2026-08-20")
	if err != nil {
		t.Fatalf("TotalForDate() error: %v", err)
	}
	if total != 10 {
		t.Errorf("day total = %d, want 10 (5s before gap + 5s after)", total)
	}
}

func TestBlockedAppNotTracked(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	if _, err := repo.AddToBlocklist("keepassxc"); err != nil {
		t.Fatalf("AddToBlocklist() error: %v", err)
	}

	det.focus("firefox", "tab")
	svc.sample(t0)

	det.focus("KeePassXC", "passwords")
	if err := svc.sample(t0.Add(5 * time.Second)); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	open, _ := repo.GetOpen()
	if open != nil {
		t.Errorf("open interval exists while a blocked app has focus: %+v", open)
	}

	summaries, _ := repo.AppSummarySince(t0.Add(-time.Minute))
	for _, s := range summaries {
		if s.AppName == "keepassxc" {
			t.Error("blocked app appears in summaries")
		}
	}
}

func TestDetectorErrorClosesInterval(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	svc.sample(t0)

	det.windowInfo = nil
	det.windowErr = errors.New("display connection lost")
	if err := svc.sample(t0.Add(5 * time.Second)); err == nil {
		t.Error("sample() error = nil, want detection error")
	}

	open, _ := repo.GetOpen()
	if open != nil {
		t.Errorf("interval still open after detector error: %+v", open)
	}
}

func TestMidnightSplit(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 23, 59, 0, 0, time.Local)

	det.focus("firefox", "late night")
	svc.sample(t0)
	if err := svc.sample(t0.Add(90 * time.Second)); err != nil { // 00:00:30 next day
		t.Fatalf("sample() error: %v", err)
	}

	day1, err := repo.TotalForDate("2026-08-20")
	if err != nil {
		t.Fatalf("TotalForDate() error: %v", err)
	}
	if day1 != 60 {
		t.Errorf("total for 2026-08-20 = %d, want 60", day1)
	}

	day2, err := repo.TotalForDate("2026-08-21")
	if err != nil {
		t.Fatalf("TotalForDate() error: %v", err)
	}
	if day2 != 30 {
		t.Errorf("total for 2026-08-21 = %d, want 30", day2)
	}

	open, _ := repo.GetOpen()
	if open == nil {
		t.Fatal("no open interval after midnight split")
	}
	if open.Date != "2026-08-21" {
		t.Errorf("open interval Date = %s, want 2026-08-21", open.Date)
	}
	wantStart := time.Date(2026, 8, 21, 0, 0, 0, 0, time.Local)
	if !open.StartTime.Equal(wantStart) {
		t.Errorf("open interval StartTime = %v, want %v", open.StartTime, wantStart)
	}
}

func TestMidnightSplitOnClose(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 23, 58, 0, 0, time.Local)

	det.focus("mpv", "movie")
	svc.sample(t0)

	// Focus moves after midnight without an intervening heartbeat.
	det.focus("firefox", "tab")
	if err := svc.sample(t0.Add(4 * time.Minute)); err != nil {
		t.Fatalf("sample() error: %v", err)
	}

	day1, _ := repo.TotalForDate("2026-08-20")
	if day1 != 120 {
		t.Errorf("total for 2026-08-20 = %d, want 120", day1)
	}
	day2, _ := repo.TotalForDate("2026-08-21")
	if day2 != 120 {
		t.Errorf("total for 2026-08-21 = %d, want 120 (mpv slice after midnight)", day2)
	}
}

func TestTotalsMatchWallClock(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	// 60 samples at 5s apart, switching apps every 20 samples. The summed
	// durations must equal the elapsed wall time exactly.
	apps := []string{"firefox", "code", "mpv"}
	for i := 0; i < 60; i++ {
		det.focus(apps[i/20], "window")
		if err := svc.sample(t0.Add(time.Duration(i) * 5 * time.Second)); err != nil {
			t.Fatalf("sample(%d) error: %v", i, err)
		}
	}
	if err := svc.closeCurrent(t0.Add(60 * 5 * time.Second)); err != nil {
		t.Fatalf("closeCurrent() error: %v", err)
	}

	total, err := repo.TotalForDate("2026-08-20")
	if err != nil {
		t.Fatalf("TotalForDate() error: %v", err)
	}
	if total != 300 {
		t.Errorf("day total = %d, want 300", total)
	}

	summaries, _ := repo.AppSummarySince(t0.Add(-time.Minute))
	if len(summaries) != 3 {
		t.Fatalf("got %d apps, want 3: %+v", len(summaries), summaries)
	}
	for _, s := range summaries {
		if s.TotalSeconds != 100 {
			t.Errorf("%s total = %d, want 100", s.AppName, s.TotalSeconds)
		}
	}
}

func TestStartRecoversStaleInterval(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	// A previous run died with an open interval at 25s of heartbeat.
	stale, err := repo.Open("firefox", "before crash", "x11", t0)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := repo.Heartbeat(stale.ID, 25); err != nil {
		t.Fatalf("Heartbeat() error: %v", err)
	}

	det.focus("code", "after restart")
	svc.clock = func() time.Time { return t0.Add(10 * time.Minute) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)

	closed, err := repo.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest() error: %v", err)
	}
	if closed == nil {
		t.Fatal("no intervals after recovery")
	}

	found := false
	summaries, _ := repo.AppSummarySince(t0.Add(-time.Minute))
	for _, s := range summaries {
		if s.AppName == "firefox" {
			found = true
			if s.TotalSeconds != 25 {
				t.Errorf("recovered firefox total = %d, want 25 (last heartbeat)", s.TotalSeconds)
			}
		}
	}
	if !found {
		t.Error("stale firefox interval missing from summaries")
	}
}

func TestStopClosesInterval(t *testing.T) {
	svc, repo, det := newTestService(t)
	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)

	det.focus("firefox", "tab")
	svc.sample(t0)

	svc.clock = func() time.Time { return t0.Add(5 * time.Second) }
	svc.shutdown()

	open, _ := repo.GetOpen()
	if open != nil {
		t.Errorf("interval still open after shutdown: %+v", open)
	}
	if svc.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestGetCurrentWindow(t *testing.T) {
	svc, _, det := newTestService(t)

	det.focus("firefox", "tab")
	det.idleInfo = window.IdleInfo{IdleTime: 3}

	info, idle, err := svc.GetCurrentWindow()
	if err != nil {
		t.Fatalf("GetCurrentWindow() error: %v", err)
	}
	if info.AppName != "firefox" {
		t.Errorf("AppName = %s, want firefox", info.AppName)
	}
	if idle.IdleTime != 3 {
		t.Errorf("IdleTime = %d, want 3", idle.IdleTime)
	}
}

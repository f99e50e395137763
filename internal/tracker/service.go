package tracker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/screentime/screentime/internal/config"
	"github.com/screentime/screentime/internal/database"
	"github.com/screentime/screentime/internal/models"
	"github.com/screentime/screentime/pkg/utils"
	"github.com/screentime/screentime/pkg/window"
)

// Service polls the display server and maintains focus intervals: on a
// focus change the open interval is closed and a new one opened, and while
// focus stays put the open interval's duration is heartbeat every tick.
type Service struct {
	config   *config.Config
	repo     *database.Repository
	detector window.Detector
	clock    func() time.Time
	current  *models.FocusInterval
	stopChan chan struct{}
	running  bool
}

func NewService(cfg *config.Config, repo *database.Repository, detector window.Detector) *Service {
	return &Service{
		config:   cfg,
		repo:     repo,
		detector: detector,
		clock:    time.Now,
		stopChan: make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("tracker is already running")
	}
	s.running = true

	if closed, err := s.repo.CloseStale(); err != nil {
		s.storeError(err)
	} else if closed > 0 {
		log.Printf("Closed %d stale interval(s) from a previous run", closed)
	}

	log.Printf("Starting tracker with %v poll interval", s.config.Tracker.PollInterval)

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	if err := s.sample(s.clock()); err != nil {
		s.storeError(err)
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()

		case <-s.stopChan:
			s.shutdown()
			return nil

		case <-ticker.C:
			if err := s.sample(s.clock()); err != nil {
				s.storeError(err)
			}
		}
	}
}

func (s *Service) Stop() {
	if s.running {
		close(s.stopChan)
	}
}

func (s *Service) IsRunning() bool {
	return s.running
}

func (s *Service) shutdown() {
	if err := s.closeCurrent(s.clock()); err != nil {
		log.Printf("Failed to close interval on shutdown: %v", err)
	}
	s.running = false
	log.Println("Tracker stopped")
}

// sample takes one observation of the focused window and reconciles the
// open interval with it.
func (s *Service) sample(now time.Time) error {
	idleInfo, err := s.detector.GetIdleInfo()
	if err != nil {
		return fmt.Errorf("failed to get idle info: %w", err)
	}

	if idleInfo.IsIdle || idleInfo.IsLocked {
		// The user went away some time ago; end the interval when input
		// stopped, not when the idle threshold fired.
		return s.closeCurrent(idleStart(now, idleInfo))
	}

	windowInfo, err := s.detector.GetFocusedWindow()
	if err != nil {
		if closeErr := s.closeCurrent(now); closeErr != nil {
			log.Printf("Failed to close interval: %v", closeErr)
		}
		return fmt.Errorf("failed to get focused window: %w", err)
	}

	if windowInfo == nil || windowInfo.AppName == "" {
		// No active window is an idle gap, not an error.
		return s.closeCurrent(now)
	}

	appName := strings.ToLower(windowInfo.AppName)

	blocked, err := s.repo.IsBlocked(appName)
	if err != nil {
		return err
	}
	if blocked {
		return s.closeCurrent(now)
	}

	if s.current != nil && s.current.AppName == appName && s.current.WindowTitle == windowInfo.WindowTitle {
		if err := s.rollover(now); err != nil {
			return err
		}
		s.current.Duration = int64(now.Sub(s.current.StartTime).Seconds())
		return s.repo.Heartbeat(s.current.ID, s.current.Duration)
	}

	if err := s.closeCurrent(now); err != nil {
		return err
	}

	interval, err := s.repo.Open(appName, windowInfo.WindowTitle, windowInfo.DisplayServer, now)
	if err != nil {
		return err
	}
	s.current = interval
	log.Printf("Focus change: %s - %s", interval.AppName, utils.Truncate(interval.WindowTitle, 60))
	return nil
}

// rollover splits the open interval at midnight so that every stored row
// lies within a single calendar day.
func (s *Service) rollover(now time.Time) error {
	for s.current != nil && now.After(startOfNextDay(s.current.StartTime)) {
		boundary := startOfNextDay(s.current.StartTime)
		interval := s.current

		if err := s.repo.CloseInterval(interval, boundary); err != nil {
			return err
		}

		next, err := s.repo.Open(interval.AppName, interval.WindowTitle, interval.DisplayServer, boundary)
		if err != nil {
			s.current = nil
			return err
		}
		s.current = next
	}
	return nil
}

func (s *Service) closeCurrent(end time.Time) error {
	if s.current == nil {
		return nil
	}

	if err := s.rollover(end); err != nil {
		return err
	}

	interval := s.current
	s.current = nil
	if err := s.repo.CloseInterval(interval, end); err != nil {
		return err
	}

	log.Printf("Closed interval: %s (%s)", interval.AppName, utils.FormatDuration(interval.Duration))
	return nil
}

// idleStart estimates when the user stopped interacting. The heartbeat has
// already counted the trailing idle time into the interval; closing at this
// point corrects the duration.
func idleStart(now time.Time, idleInfo *window.IdleInfo) time.Time {
	if idleInfo.IdleTime <= 0 {
		return now
	}
	return now.Add(-time.Duration(idleInfo.IdleTime) * time.Second)
}

func startOfNextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func (s *Service) storeError(err error) {
	errorLog := &models.ErrorLog{
		Timestamp: s.clock(),
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.repo.CreateErrorLog(errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}

// GetCurrentWindow returns the focused window and idle state as seen right now.
func (s *Service) GetCurrentWindow() (*window.WindowInfo, *window.IdleInfo, error) {
	windowInfo, err := s.detector.GetFocusedWindow()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get focused window: %w", err)
	}

	idleInfo, err := s.detector.GetIdleInfo()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get idle info: %w", err)
	}

	return windowInfo, idleInfo, nil
}

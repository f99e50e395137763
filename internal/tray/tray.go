package tray

import (
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/screentime/screentime/pkg/utils"

	"github.com/getlantern/systray"
)

// Options wires the tray shell to the rest of the application. The tray is
// a read-only consumer: it displays today's total and opens the web
// dashboard, while OnReady starts the tracking loop owned by the caller.
type Options struct {
	DashboardURL string
	TodayTotal   func() (int64, error)
	OnReady      func()
	OnExit       func()
}

// Run starts the tray shell and blocks until Quit is selected. systray
// requires owning the main loop, so the caller's work runs via OnReady.
func Run(opts Options) {
	systray.Run(func() { onReady(opts) }, func() { onExit(opts) })
}

func onReady(opts Options) {
	systray.SetTitle("Screentime")
	systray.SetTooltip("Screentime tracker")

	mOpen := systray.AddMenuItem("Open Dashboard", "Open the web dashboard in a browser")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Stop tracking and quit")

	if opts.OnReady != nil {
		go opts.OnReady()
	}

	go func() {
		for {
			select {
			case <-mOpen.ClickedCh:
				if err := openBrowser(opts.DashboardURL); err != nil {
					log.Printf("Failed to open dashboard: %v", err)
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()

	go refreshTooltip(opts)
}

func refreshTooltip(opts Options) {
	update := func() {
		if opts.TodayTotal == nil {
			return
		}
		total, err := opts.TodayTotal()
		if err != nil {
			log.Printf("Failed to read today's total: %v", err)
			return
		}
		systray.SetTooltip(fmt.Sprintf("Screentime - today: %s", utils.FormatDuration(total)))
	}

	update()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		update()
	}
}

func onExit(opts Options) {
	if opts.OnExit != nil {
		opts.OnExit()
	}
}

func openBrowser(url string) error {
	if url == "" {
		return fmt.Errorf("no dashboard URL configured")
	}
	return exec.Command("xdg-open", url).Start()
}

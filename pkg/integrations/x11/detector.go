package x11

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/screentime/screentime/pkg/window"

	"github.com/shirou/gopsutil/process"
)

const defaultIdleThreshold = 300

// Detector implements window.Detector for X11. It talks to the X server
// directly when a connection can be established and falls back to xdotool
// otherwise.
type Detector struct {
	client        *xclient
	hasXdotool    bool
	hasXprintidle bool
	idleThreshold int64
}

// NewDetector creates a new X11 detector. idleThreshold <= 0 selects the
// default of 5 minutes.
func NewDetector(idleThreshold int64) *Detector {
	if idleThreshold <= 0 {
		idleThreshold = defaultIdleThreshold
	}

	d := &Detector{idleThreshold: idleThreshold}
	if client, err := newXClient(); err == nil {
		d.client = client
	}
	d.hasXdotool = commandExists("xdotool")
	d.hasXprintidle = commandExists("xprintidle")
	return d
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// IsAvailable checks if X11 detection is available
func (d *Detector) IsAvailable() bool {
	return d.client != nil || d.hasXdotool
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	if d.client != nil {
		return d.getFocusedWindowNative()
	}
	if d.hasXdotool {
		return d.getFocusedWindowXdotool()
	}
	return nil, fmt.Errorf("no X11 detection method available (X connection or xdotool required)")
}

func (d *Detector) getFocusedWindowNative() (*window.WindowInfo, error) {
	win, err := d.client.activeWindow()
	if err != nil {
		return nil, err
	}
	if win == 0 {
		// No window has focus, e.g. an empty desktop.
		return nil, nil
	}

	instance, class := d.client.windowClass(win)
	appName := class
	if appName == "" {
		appName = instance
	}

	processName := ""
	if pid := d.client.windowPID(win); pid != 0 {
		processName = processNameFromPID(int32(pid))
		if appName == "" {
			appName = processName
		}
	}

	if appName == "" {
		appName = "Unknown"
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   d.client.windowName(win),
		ProcessName:   processName,
		DisplayServer: "x11",
	}, nil
}

// getFocusedWindowXdotool uses xdotool to get focused window info
func (d *Detector) getFocusedWindowXdotool() (*window.WindowInfo, error) {
	windowIDOutput, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get active x11 window ID: %w", err)
	}

	windowID := strings.TrimSpace(string(windowIDOutput))

	windowNameOutput, err := exec.Command("xdotool", "getwindowname", windowID).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get window name: %w", err)
	}

	windowTitle := strings.TrimSpace(string(windowNameOutput))

	// WM_CLASS works for Flatpak apps where the PID is sandboxed.
	appName := "Unknown"
	processName := ""

	if classOutput, err := exec.Command("xprop", "-id", windowID, "WM_CLASS").Output(); err == nil {
		if class := parseWMClass(string(classOutput)); class != "" {
			appName = class
		}
	}

	if pidOutput, err := exec.Command("xdotool", "getwindowpid", windowID).Output(); err == nil {
		if pid, err := strconv.ParseInt(strings.TrimSpace(string(pidOutput)), 10, 32); err == nil {
			processName = processNameFromPID(int32(pid))
			if appName == "Unknown" && processName != "" {
				appName = processName
			}
		}
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   windowTitle,
		ProcessName:   processName,
		DisplayServer: "x11",
	}, nil
}

func processNameFromPID(pid int32) string {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return ""
	}
	name, err := proc.Name()
	if err != nil {
		return ""
	}
	return name
}

// parseWMClass extracts the class name from xprop WM_CLASS output:
// WM_CLASS(STRING) = "instance", "class"
func parseWMClass(output string) string {
	parts := strings.Split(output, "=")
	if len(parts) < 2 {
		return ""
	}

	classInfo := strings.TrimSpace(parts[1])
	classes := strings.Split(classInfo, ",")
	if len(classes) == 0 {
		return ""
	}

	className := strings.TrimSpace(classes[len(classes)-1])
	return strings.Trim(className, "\" ")
}

// GetIdleInfo returns system idle/lock information
func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	idleTime := d.getIdleTime()
	isLocked := screenLocked()

	return &window.IdleInfo{
		IsIdle:   idleTime > d.idleThreshold,
		IsLocked: isLocked,
		IdleTime: idleTime,
	}, nil
}

// getIdleTime returns the system idle time in seconds. Without xprintidle
// idle detection is unavailable and zero is reported.
func (d *Detector) getIdleTime() int64 {
	if !d.hasXprintidle {
		return 0
	}

	output, err := exec.Command("xprintidle").Output()
	if err != nil {
		return 0
	}

	idleMilliseconds, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0
	}

	return idleMilliseconds / 1000
}

// screenLocked checks if a known screen locker process is running.
func screenLocked() bool {
	lockers := []string{
		"gnome-screensaver-dialog",
		"kscreenlocker",
		"i3lock",
		"slock",
		"xscreensaver",
		"xsecurelock",
	}

	for _, locker := range lockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}

	return false
}

// Close cleans up resources
func (d *Detector) Close() error {
	if d.client != nil {
		d.client.close()
		d.client = nil
	}
	return nil
}

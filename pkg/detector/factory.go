package detector

import (
	"fmt"
	"os"

	"github.com/screentime/screentime/pkg/integrations/wayland"
	"github.com/screentime/screentime/pkg/integrations/x11"
	"github.com/screentime/screentime/pkg/window"
)

// New returns a detector for the current session. idleThreshold is the
// number of idle seconds after which the user counts as away. A missing
// display server or missing query tools is a setup problem surfaced to the
// caller, never retried with backoff.
func New(idleThreshold int64) (window.Detector, error) {
	switch DetectDisplayServer() {
	case "wayland":
		det := wayland.NewDetector(idleThreshold)
		if !det.IsAvailable() {
			return nil, fmt.Errorf("wayland session detected but no supported compositor query tool found (swaymsg, hyprctl or gdbus required)")
		}
		return det, nil
	case "x11":
		det := x11.NewDetector(idleThreshold)
		if !det.IsAvailable() {
			return nil, fmt.Errorf("x11 session detected but neither a display connection nor xdotool is available")
		}
		return det, nil
	default:
		return nil, fmt.Errorf("could not detect display server (set DISPLAY or WAYLAND_DISPLAY)")
	}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}

package wayland

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/screentime/screentime/pkg/window"

	"github.com/shirou/gopsutil/process"
)

const defaultIdleThreshold = 300

// Detector implements window.Detector for Wayland. There is no universal
// focused-window protocol, so each compositor is queried through its own
// IPC tool, treated as an opaque external collaborator.
type Detector struct {
	compositor    string
	hasSwaymsg    bool
	hasHyprctl    bool
	hasGdbus      bool
	idleThreshold int64
}

// NewDetector creates a new Wayland detector. idleThreshold <= 0 selects
// the default of 5 minutes.
func NewDetector(idleThreshold int64) *Detector {
	if idleThreshold <= 0 {
		idleThreshold = defaultIdleThreshold
	}

	d := &Detector{idleThreshold: idleThreshold}
	d.hasSwaymsg = commandExists("swaymsg")
	d.hasHyprctl = commandExists("hyprctl")
	d.hasGdbus = commandExists("gdbus")
	d.detectCompositor()
	return d
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor attempts to detect the running Wayland compositor
func (d *Detector) detectCompositor() {
	compositors := map[string]string{
		"sway":         "sway",
		"Hyprland":     "hyprland",
		"gnome-shell":  "gnome",
		"kwin_wayland": "kde",
	}

	for proc, name := range compositors {
		if err := exec.Command("pgrep", "-x", proc).Run(); err == nil {
			d.compositor = name
			return
		}
	}

	d.compositor = "unknown"
}

// IsAvailable checks if Wayland detection is available
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return d.hasSwaymsg
	case "hyprland":
		return d.hasHyprctl
	case "gnome":
		return d.hasGdbus
	default:
		return false
	}
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	switch d.compositor {
	case "sway":
		return d.getFocusedWindowSway()
	case "hyprland":
		return d.getFocusedWindowHyprland()
	case "gnome":
		return d.getFocusedWindowGnome()
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
}

type swayNode struct {
	Name             string `json:"name"`
	AppID            string `json:"app_id"`
	PID              int32  `json:"pid"`
	Focused          bool   `json:"focused"`
	WindowProperties struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

func (d *Detector) getFocusedWindowSway() (*window.WindowInfo, error) {
	output, err := exec.Command("swaymsg", "-t", "get_tree").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute swaymsg: %w", err)
	}

	var tree swayNode
	if err := json.Unmarshal(output, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	focused := findFocusedNode(&tree)
	if focused == nil {
		// No container has focus, e.g. an empty workspace.
		return nil, nil
	}

	// app_id is set for native Wayland clients; XWayland clients carry
	// the X11 class instead.
	appName := focused.AppID
	if appName == "" {
		appName = focused.WindowProperties.Class
	}
	if appName == "" {
		appName = "Unknown"
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   focused.Name,
		ProcessName:   processNameFromPID(focused.PID),
		DisplayServer: "wayland",
	}, nil
}

// findFocusedNode recursively searches the sway tree for the focused node.
func findFocusedNode(node *swayNode) *swayNode {
	if node.Focused {
		return node
	}

	for i := range node.Nodes {
		if found := findFocusedNode(&node.Nodes[i]); found != nil {
			return found
		}
	}
	for i := range node.FloatingNodes {
		if found := findFocusedNode(&node.FloatingNodes[i]); found != nil {
			return found
		}
	}

	return nil
}

type hyprlandWindow struct {
	Class string `json:"class"`
	Title string `json:"title"`
	PID   int32  `json:"pid"`
}

func (d *Detector) getFocusedWindowHyprland() (*window.WindowInfo, error) {
	output, err := exec.Command("hyprctl", "activewindow", "-j").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute hyprctl: %w", err)
	}

	// hyprctl prints an empty object when no window has focus.
	var win hyprlandWindow
	if err := json.Unmarshal(output, &win); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}

	if win.Class == "" && win.Title == "" {
		return nil, nil
	}

	appName := win.Class
	if appName == "" {
		appName = "Unknown"
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   win.Title,
		ProcessName:   processNameFromPID(win.PID),
		DisplayServer: "wayland",
	}, nil
}

type gnomeWindow struct {
	WmClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int32  `json:"pid"`
}

// getFocusedWindowGnome asks GNOME Shell for the focused window via
// Shell.Eval. Requires unsafe-mode or an older shell; otherwise the call
// fails and the user is told tracking is unsupported on this setup.
func (d *Detector) getFocusedWindowGnome() (*window.WindowInfo, error) {
	script := `
		let fw = global.display.get_focus_window();
		if (fw) {
			JSON.stringify({
				wm_class: fw.get_wm_class() || '',
				title: fw.get_title() || '',
				pid: fw.get_pid() || 0
			});
		} else {
			'null';
		}
	`

	output, err := exec.Command("gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		script).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query gnome-shell: %w", err)
	}

	result := string(output)
	if strings.Contains(result, "'null'") {
		return nil, nil
	}

	start := strings.Index(result, "{")
	end := strings.LastIndex(result, "}")
	if start == -1 || end == -1 {
		return nil, fmt.Errorf("unexpected gnome-shell response: %s", strings.TrimSpace(result))
	}

	// gdbus wraps the eval result in a quoted tuple; unescape before parsing.
	jsonStr := strings.ReplaceAll(result[start:end+1], `\"`, `"`)

	var win gnomeWindow
	if err := json.Unmarshal([]byte(jsonStr), &win); err != nil {
		return nil, fmt.Errorf("failed to parse gnome-shell response: %w", err)
	}

	appName := win.WmClass
	if appName == "" {
		appName = "Unknown"
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   win.Title,
		ProcessName:   processNameFromPID(win.PID),
		DisplayServer: "wayland",
	}, nil
}

func processNameFromPID(pid int32) string {
	if pid == 0 {
		return ""
	}
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

// GetIdleInfo returns system idle/lock information. Wayland has no
// portable idle counter, so only the lock state is meaningful here.
func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	return &window.IdleInfo{
		IsIdle:   false,
		IsLocked: d.screenLocked(),
		IdleTime: 0,
	}, nil
}

func (d *Detector) screenLocked() bool {
	lockers := []string{"swaylock", "gtklock", "hyprlock", "waylock"}
	for _, locker := range lockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}

	if d.compositor == "gnome" && d.hasGdbus {
		output, err := exec.Command("gdbus", "call", "--session",
			"--dest", "org.gnome.ScreenSaver",
			"--object-path", "/org/gnome/ScreenSaver",
			"--method", "org.gnome.ScreenSaver.GetActive").Output()
		if err == nil && strings.Contains(string(output), "true") {
			return true
		}
	}

	return false
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}

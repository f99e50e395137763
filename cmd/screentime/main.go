package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screentime/screentime/internal/config"
	"github.com/screentime/screentime/internal/daemon"
	"github.com/screentime/screentime/internal/database"
	"github.com/screentime/screentime/internal/models"
	"github.com/screentime/screentime/internal/reporter"
	"github.com/screentime/screentime/internal/tracker"
	"github.com/screentime/screentime/internal/tray"
	"github.com/screentime/screentime/internal/tui"
	"github.com/screentime/screentime/internal/web"
	"github.com/screentime/screentime/pkg/detector"

	"github.com/dustin/go-humanize"
)

var (
	version = "1.0.0"
	commit  = "unknown"
	date    = "unknown"
)

const daemonChildEnv = "SCREENTIME_DAEMON_CHILD"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startCommand(os.Args[2:])
	case "serve":
		serveCommand(os.Args[2:])
	case "stop":
		stopCommand()
	case "status":
		statusCommand()
	case "stats":
		statsCommand(os.Args[2:])
	case "daily":
		dailyCommand(os.Args[2:])
	case "week":
		weekCommand(os.Args[2:])
	case "reset":
		resetCommand()
	case "dashboard":
		dashboardCommand()
	case "tray":
		trayCommand()
	case "blocklist":
		blocklistCommand(os.Args[2:])
	case "version":
		fmt.Printf("screentime version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`screentime - Track and analyze your screen time on Linux

Usage:
  screentime <command> [options]

Commands:
  start [--interval N] [--daemon]   Start tracking (foreground unless --daemon)
  serve [--port N] [--daemon]       Start tracking with the web dashboard
  stop                              Stop the tracking daemon
  status                            Show daemon status and current focused window
  stats [--days N] [--group-by G]   Show statistics (G: app or window) [--json]
  daily [--date YYYY-MM-DD]         Show daily breakdown [--json]
  week                              Show weekly summary [--json]
  reset                             Delete all tracked data
  dashboard                         Open the terminal dashboard
  tray                              Run the tracker under a system tray icon
  blocklist add|remove|list|clear   Manage apps excluded from tracking
  version                           Show version information
  help                              Show this help message

Examples:
  screentime start --daemon
  screentime stats --days 7 --group-by window
  screentime daily --date 2026-08-01
  screentime blocklist add keepassxc

Environment Variables:
  SCREENTIME_DB_PATH         Database file path
  SCREENTIME_POLL_INTERVAL   Poll interval in seconds (1-300)
  SCREENTIME_IDLE_THRESHOLD  Idle threshold in seconds
  SCREENTIME_PID_FILE        PID file path
  SCREENTIME_LOG_FILE        Daemon log file path
  SCREENTIME_WEB_HOST        Web dashboard host
  SCREENTIME_WEB_PORT        Web dashboard port

Config file: ~/.config/screentime/config.yaml

Version: %s
`, version)
}

func startCommand(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	interval := fs.Int("interval", 0, "poll interval in seconds")
	daemonize := fs.Bool("daemon", false, "run in the background")
	fs.Parse(args)

	cfg := config.New()
	if *interval > 0 {
		if err := cfg.SetPollInterval(time.Duration(*interval) * time.Second); err != nil {
			log.Fatalf("Invalid interval: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Tracker is already running (PID: %d)", pid)
	}

	if *daemonize && os.Getenv(daemonChildEnv) != "1" {
		forkDaemon(cfg, false)
		return
	}

	if os.Getenv(daemonChildEnv) == "1" {
		redirectLogs(cfg)
	} else {
		fmt.Printf("Starting screentime tracker (interval: %v)\n", cfg.Tracker.PollInterval)
		fmt.Println("Press Ctrl+C to stop")
	}

	runTracker(cfg, dm, false, 0)
}

func serveCommand(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "web dashboard port")
	daemonize := fs.Bool("daemon", false, "run in the background")
	fs.Parse(args)

	cfg := config.New()
	if *port > 0 {
		if err := cfg.SetWebPort(*port); err != nil {
			log.Fatalf("Invalid port: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Tracker is already running (PID: %d)", pid)
	}

	if *daemonize && os.Getenv(daemonChildEnv) != "1" {
		forkDaemon(cfg, true)
		return
	}

	if os.Getenv(daemonChildEnv) == "1" {
		redirectLogs(cfg)
	}

	runTracker(cfg, dm, true, cfg.Web.Port)
}

// runTracker owns the tracking loop and, optionally, the web server. It
// blocks until a termination signal arrives.
func runTracker(cfg *config.Config, dm *daemon.Daemon, withWeb bool, webPort int) {
	db, repo := openDatabase(cfg)
	defer db.Close()

	det, err := detector.New(cfg.GetIdleThresholdSeconds())
	if err != nil {
		log.Fatalf("Failed to initialize window detector: %v", err)
	}
	defer det.Close()

	log.Printf("Window detector initialized: %s", det.GetDisplayServer())

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	trackerSvc := tracker.NewService(cfg, repo, det)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, repo, webPort)
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
			}
		}()
		log.Printf("Web dashboard available at: http://%s", webServer.GetAddress())
	}

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
		trackerSvc.Stop()
	}()

	log.Println("Starting screentime tracker...")
	log.Printf("Configuration:\n%s", cfg.String())

	if err := trackerSvc.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Tracker error: %v", err)
	}

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	log.Println("Tracker stopped successfully")
}

func stopCommand() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Tracker is not running")
		return
	}

	fmt.Printf("Stopping tracker (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop tracker: %v", err)
	}

	fmt.Println("Tracker stopped.")
}

func statusCommand() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
		fmt.Printf("Database: %s\n", databasePath(cfg))
	}

	db, repo := openDatabase(cfg)
	defer db.Close()

	if latest, err := repo.GetLatest(); err == nil && latest != nil {
		fmt.Printf("\nLast Interval:\n")
		fmt.Printf("  App: %s\n", latest.AppName)
		fmt.Printf("  Title: %s\n", latest.WindowTitle)
		fmt.Printf("  Last seen: %s\n", humanize.Time(latest.UpdatedAt))
	}

	det, err := detector.New(cfg.GetIdleThresholdSeconds())
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return
	}
	defer det.Close()

	if windowInfo, err := det.GetFocusedWindow(); err == nil && windowInfo != nil {
		fmt.Printf("\nCurrent Window:\n")
		fmt.Printf("  App: %s\n", windowInfo.AppName)
		fmt.Printf("  Title: %s\n", windowInfo.WindowTitle)
		fmt.Printf("  Display: %s\n", windowInfo.DisplayServer)
	}

	if idleInfo, err := det.GetIdleInfo(); err == nil && idleInfo != nil {
		fmt.Printf("\nSystem State:\n")
		fmt.Printf("  Idle: %v\n", idleInfo.IsIdle)
		fmt.Printf("  Locked: %v\n", idleInfo.IsLocked)
		if idleInfo.IdleTime > 0 {
			fmt.Printf("  Idle Time: %ds\n", idleInfo.IdleTime)
		}
	}
}

func statsCommand(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	days := fs.Int("days", 1, "number of days to show")
	groupBy := fs.String("group-by", reporter.GroupByApp, "group statistics by app or window")
	jsonOutput := fs.Bool("json", false, "output as JSON")
	fs.Parse(args)

	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	rep := reporter.New(cfg, repo)
	report, err := rep.Stats(*days, *groupBy)
	if err != nil {
		log.Fatalf("Failed to generate stats: %v", err)
	}

	if *jsonOutput {
		printJSON(rep, report)
		return
	}
	fmt.Println(rep.FormatStatsText(report))
}

func dailyCommand(args []string) {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	dateStr := fs.String("date", "", "date to show (YYYY-MM-DD)")
	jsonOutput := fs.Bool("json", false, "output as JSON")
	fs.Parse(args)

	date := time.Now()
	if *dateStr != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, *dateStr, time.Local)
		if err != nil {
			fmt.Println("Invalid date format. Use YYYY-MM-DD")
			os.Exit(1)
		}
		date = parsed
	}

	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	rep := reporter.New(cfg, repo)
	report, err := rep.Daily(date)
	if err != nil {
		log.Fatalf("Failed to generate daily breakdown: %v", err)
	}

	if *jsonOutput {
		printJSON(rep, report)
		return
	}
	fmt.Println(rep.FormatDailyText(report))
}

func weekCommand(args []string) {
	fs := flag.NewFlagSet("week", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "output as JSON")
	fs.Parse(args)

	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	rep := reporter.New(cfg, repo)
	report, err := rep.Week()
	if err != nil {
		log.Fatalf("Failed to generate weekly summary: %v", err)
	}

	if *jsonOutput {
		printJSON(rep, report)
		return
	}
	fmt.Println(rep.FormatWeekText(report))
}

func resetCommand() {
	fmt.Print("This will delete all tracking data. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	if err := repo.Reset(); err != nil {
		log.Fatalf("Failed to reset data: %v", err)
	}

	fmt.Println("All data has been reset.")
}

func dashboardCommand() {
	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	if err := tui.Run(reporter.New(cfg, repo)); err != nil {
		log.Fatalf("Dashboard error: %v", err)
	}
}

func trayCommand() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Tracker is already running (PID: %d)", pid)
	}

	db, repo := openDatabase(cfg)

	det, err := detector.New(cfg.GetIdleThresholdSeconds())
	if err != nil {
		log.Fatalf("Failed to initialize window detector: %v", err)
	}

	trackerSvc := tracker.NewService(cfg, repo, det)
	webServer := web.NewServer(cfg, repo, 0)

	ctx, cancel := context.WithCancel(context.Background())

	tray.Run(tray.Options{
		DashboardURL: fmt.Sprintf("http://%s", webServer.GetAddress()),
		TodayTotal: func() (int64, error) {
			return repo.TotalForDate(models.DateOf(time.Now()))
		},
		OnReady: func() {
			if err := dm.WritePID(); err != nil {
				log.Printf("Failed to write PID file: %v", err)
			}
			go func() {
				if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
					log.Printf("Web server error: %v", err)
				}
			}()
			if err := trackerSvc.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("Tracker error: %v", err)
			}
		},
		OnExit: func() {
			cancel()
			trackerSvc.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := webServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down web server: %v", err)
			}

			dm.RemovePID()
			det.Close()
			db.Close()
		},
	})
}

func blocklistCommand(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: screentime blocklist add|remove|list|clear [app]")
		os.Exit(1)
	}

	cfg := config.New()
	db, repo := openDatabase(cfg)
	defer db.Close()

	switch args[0] {
	case "add":
		if len(args) < 2 {
			fmt.Println("Usage: screentime blocklist add <app>")
			os.Exit(1)
		}
		added, err := repo.AddToBlocklist(args[1])
		if err != nil {
			log.Fatalf("Failed to update blocklist: %v", err)
		}
		if added {
			fmt.Printf("Added '%s' to blocklist\n", args[1])
		} else {
			fmt.Printf("'%s' is already in blocklist\n", args[1])
		}

	case "remove":
		if len(args) < 2 {
			fmt.Println("Usage: screentime blocklist remove <app>")
			os.Exit(1)
		}
		removed, err := repo.RemoveFromBlocklist(args[1])
		if err != nil {
			log.Fatalf("Failed to update blocklist: %v", err)
		}
		if removed {
			fmt.Printf("Removed '%s' from blocklist\n", args[1])
		} else {
			fmt.Printf("'%s' is not in blocklist\n", args[1])
		}

	case "list":
		blocked, err := repo.GetBlocklist()
		if err != nil {
			log.Fatalf("Failed to read blocklist: %v", err)
		}
		if len(blocked) == 0 {
			fmt.Println("No apps in blocklist")
			return
		}
		fmt.Printf("Blocked apps (%d):\n", len(blocked))
		for _, app := range blocked {
			fmt.Printf("  %-30s (added: %s)\n", app.AppName, app.CreatedAt.Format(models.DateLayout))
		}

	case "clear":
		fmt.Print("Are you sure you want to clear the blocklist? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			fmt.Println("Operation cancelled")
			return
		}
		count, err := repo.ClearBlocklist()
		if err != nil {
			log.Fatalf("Failed to clear blocklist: %v", err)
		}
		fmt.Printf("Removed %d apps from blocklist\n", count)

	default:
		fmt.Printf("Unknown blocklist command: %s\n", args[0])
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*database.DB, *database.Repository) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return db, database.NewRepository(db)
}

func databasePath(cfg *config.Config) string {
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	path, err := database.GetDefaultDBPath()
	if err != nil {
		return "(unknown)"
	}
	return path
}

func printJSON(rep *reporter.Reporter, report interface{}) {
	jsonStr, err := rep.FormatJSON(report)
	if err != nil {
		log.Fatalf("Failed to format JSON: %v", err)
	}
	fmt.Println(jsonStr)
}

// forkDaemon re-executes the current command with the child marker set,
// detached from the terminal.
func forkDaemon(cfg *config.Config, withWeb bool) {
	env := os.Environ()
	env = append(env, daemonChildEnv+"=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true, // Create new session
		},
	}

	process, err := os.StartProcess(os.Args[0], os.Args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start daemon process: %v", err)
	}

	fmt.Printf("Tracker started in background (PID: %d)\n", process.Pid)
	if withWeb {
		fmt.Printf("Web dashboard: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	}
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
}

func redirectLogs(cfg *config.Config) {
	logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
	}
}

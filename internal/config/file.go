package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk schema. All fields are optional; zero values
// leave the corresponding Config field untouched.
type fileConfig struct {
	DatabasePath         string `yaml:"database_path"`
	PollIntervalSeconds  int    `yaml:"poll_interval_seconds"`
	IdleThresholdSeconds int    `yaml:"idle_threshold_seconds"`
	PIDFile              string `yaml:"pid_file"`
	LogFile              string `yaml:"log_file"`
	WebHost              string `yaml:"web_host"`
	WebPort              int    `yaml:"web_port"`
}

// DefaultConfigPath returns ~/.config/screentime/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "screentime", "config.yaml")
}

// LoadFromFile overlays cfg with values from a YAML config file. A missing
// file is not an error; a malformed one is ignored so a bad config never
// blocks tracking.
func LoadFromFile(cfg *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return
	}

	applyFileConfig(cfg, &fc)
}

func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.DatabasePath != "" {
		cfg.Database.Path = fc.DatabasePath
	}

	if fc.PollIntervalSeconds > 0 {
		interval := time.Duration(fc.PollIntervalSeconds) * time.Second
		if interval >= cfg.Tracker.MinPollInterval && interval <= cfg.Tracker.MaxPollInterval {
			cfg.Tracker.PollInterval = interval
		}
	}

	if fc.IdleThresholdSeconds > 0 {
		cfg.Tracker.IdleThreshold = time.Duration(fc.IdleThresholdSeconds) * time.Second
	}

	if fc.PIDFile != "" {
		cfg.Daemon.PIDFile = fc.PIDFile
	}

	if fc.LogFile != "" {
		cfg.Daemon.LogFile = fc.LogFile
	}

	if fc.WebHost != "" {
		cfg.Web.Host = fc.WebHost
	}

	if fc.WebPort > 0 && fc.WebPort <= 65535 {
		cfg.Web.Port = fc.WebPort
	}
}

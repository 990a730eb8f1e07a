package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const appName = "focuswarden"

// Duration is a time.Duration written as a Go duration string ("1s", "500ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("duration %q must be positive", str)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type DaemonConfig struct {
	StateDir     string   `toml:"state_dir"`
	Bus          string   `toml:"bus"`
	TickInterval Duration `toml:"tick_interval"`
	LogLevel     string   `toml:"log_level"`
	PauseOnSleep *bool    `toml:"pause_on_sleep"`
	PauseOnLock  *bool    `toml:"pause_on_lock"`
}

type BlockingConfig struct {
	Enabled     *bool  `toml:"enabled"`
	RulesFile   string `toml:"rules_file"`
	RedirectURL string `toml:"redirect_url"`
}

type BlockpageConfig struct {
	Enabled *bool  `toml:"enabled"`
	Listen  string `toml:"listen"`
}

type NotifyConfig struct {
	Enabled  *bool  `toml:"enabled"`
	CacheDir string `toml:"cache_dir"`
}

type HistoryConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

type Config struct {
	Daemon    DaemonConfig    `toml:"daemon"`
	Blocking  BlockingConfig  `toml:"blocking"`
	Blockpage BlockpageConfig `toml:"blockpage"`
	Notify    NotifyConfig    `toml:"notify"`
	History   HistoryConfig   `toml:"history"`
}

func boolPtr(v bool) *bool { return &v }

// SetDefault fills every unset value. Paths that depend on state_dir are
// derived after state_dir itself is settled.
func (c *Config) SetDefault() {
	if c.Daemon.StateDir == "" {
		c.Daemon.StateDir = DefaultStateDir()
	}
	if c.Daemon.Bus == "" {
		c.Daemon.Bus = "session"
	}
	if c.Daemon.TickInterval.Duration <= 0 {
		c.Daemon.TickInterval = Duration{time.Second}
	}
	if c.Daemon.LogLevel == "" {
		c.Daemon.LogLevel = "info"
	}
	if c.Daemon.PauseOnSleep == nil {
		c.Daemon.PauseOnSleep = boolPtr(true)
	}
	if c.Daemon.PauseOnLock == nil {
		c.Daemon.PauseOnLock = boolPtr(false)
	}

	if c.Blockpage.Enabled == nil {
		c.Blockpage.Enabled = boolPtr(true)
	}
	if c.Blockpage.Listen == "" {
		c.Blockpage.Listen = "127.0.0.1:7425"
	}

	if c.Blocking.Enabled == nil {
		c.Blocking.Enabled = boolPtr(true)
	}
	if c.Blocking.RulesFile == "" {
		c.Blocking.RulesFile = filepath.Join(c.Daemon.StateDir, "rules.json")
	}
	if c.Blocking.RedirectURL == "" {
		c.Blocking.RedirectURL = "http://" + c.Blockpage.Listen + "/blocked"
	}

	if c.Notify.Enabled == nil {
		c.Notify.Enabled = boolPtr(true)
	}
	if c.Notify.CacheDir == "" {
		c.Notify.CacheDir = DefaultCacheDir()
	}

	if c.History.Enabled == nil {
		c.History.Enabled = boolPtr(true)
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.Daemon.StateDir, "history.db")
	}
}

// SlogLevel maps log_level to a slog level. Unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Daemon.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

var AppConfig Config

// LoadConfigFromFile loads path into AppConfig. A missing file leaves
// every value at its default.
func LoadConfigFromFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return err
	}
	return LoadConfigFromBytes(data)
}

func LoadConfigFromBytes(data []byte) error {
	var config Config
	err := toml.Unmarshal(data, &config)
	if err != nil {
		return err
	}
	AppConfig = config
	AppConfig.SetDefault()
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/focuswarden/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, appName, "config.toml")
}

// DefaultStateDir is $XDG_STATE_HOME/focuswarden.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".local", "state", appName)
}

// DefaultCacheDir is $XDG_CACHE_HOME/focuswarden.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = filepath.Join(homeDir(), ".cache")
	}
	return filepath.Join(dir, appName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

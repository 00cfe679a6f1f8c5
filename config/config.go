// Package config handles configuration loading and validation for ghostkeys.
//
// The configuration file is read, never written. Every field has a default,
// so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goGhostKeys/hook"
	"github.com/goGhostKeys/logging"
)

// Tick interval bounds. The accent timeout is 500ms, so the check has to
// run several times within it.
const (
	MinTickIntervalMs = 10
	MaxTickIntervalMs = 250
)

// Config is the complete configuration.
type Config struct {
	// StartPaused starts in Passthrough mode.
	StartPaused bool `toml:"start_paused" yaml:"start_paused" json:"start_paused"`

	Log   LogConfig   `toml:"log" yaml:"log" json:"log"`
	Hook  HookConfig  `toml:"hook" yaml:"hook" json:"hook"`
	Linux LinuxConfig `toml:"linux" yaml:"linux" json:"linux"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
	// Output is stdout, stderr, file or both.
	Output string `toml:"output" yaml:"output" json:"output"`
	// File is the log file path. Empty means the platform default.
	File string `toml:"file" yaml:"file" json:"file"`
}

// HookConfig configures the keyboard hook on every platform.
type HookConfig struct {
	TickIntervalMs int `toml:"tick_interval_ms" yaml:"tick_interval_ms" json:"tick_interval_ms"`
}

// LinuxConfig configures the evdev/uinput adapter.
type LinuxConfig struct {
	UinputPath   string   `toml:"uinput_path" yaml:"uinput_path" json:"uinput_path"`
	VirtualName  string   `toml:"virtual_name" yaml:"virtual_name" json:"virtual_name"`
	Devices      []string `toml:"devices" yaml:"devices" json:"devices"`
	WatchDevices bool     `toml:"watch_devices" yaml:"watch_devices" json:"watch_devices"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	hc := hook.DefaultConfig()
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Hook: HookConfig{
			TickIntervalMs: int(hc.TickInterval / time.Millisecond),
		},
		Linux: LinuxConfig{
			UinputPath:   hc.UinputPath,
			VirtualName:  hc.VirtualName,
			WatchDevices: hc.WatchDevices,
		},
	}
}

// ConfigPath returns the config file path: $GHOSTKEYS_CONFIG, or
// config.toml under the user config directory.
func ConfigPath() string {
	if p := os.Getenv("GHOSTKEYS_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "ghostkeys", "config.toml")
}

// Load reads, overrides and validates the config at path.
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// ApplyEnvOverrides applies GHOSTKEYS_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GHOSTKEYS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GHOSTKEYS_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("GHOSTKEYS_LOG_OUTPUT"); v != "" {
		c.Log.Output = v
	}
	if v := os.Getenv("GHOSTKEYS_START_PAUSED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StartPaused = b
		}
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "log.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, &ValidationError{Field: "log.format", Message: err.Error()})
	}
	switch strings.ToLower(c.Log.Output) {
	case "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, &ValidationError{
			Field:   "log.output",
			Message: fmt.Sprintf("must be stdout, stderr, file or both, got %q", c.Log.Output),
		})
	}
	if c.Hook.TickIntervalMs < MinTickIntervalMs || c.Hook.TickIntervalMs > MaxTickIntervalMs {
		errs = append(errs, &ValidationError{
			Field:   "hook.tick_interval_ms",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinTickIntervalMs, MaxTickIntervalMs, c.Hook.TickIntervalMs),
		})
	}
	if c.Linux.UinputPath == "" {
		errs = append(errs, &ValidationError{Field: "linux.uinput_path", Message: "required"})
	}
	if c.Linux.VirtualName == "" {
		errs = append(errs, &ValidationError{Field: "linux.virtual_name", Message: "required"})
	}

	return errors.Join(errs...)
}

// HookOptions converts the config into adapter settings.
func (c *Config) HookOptions() hook.Config {
	return hook.Config{
		TickInterval: time.Duration(c.Hook.TickIntervalMs) * time.Millisecond,
		UinputPath:   c.Linux.UinputPath,
		VirtualName:  c.Linux.VirtualName,
		Devices:      append([]string(nil), c.Linux.Devices...),
		WatchDevices: c.Linux.WatchDevices,
	}
}

// LoggingOptions converts the config into logger settings. Call Validate
// first; unparseable values fall back to defaults.
func (c *Config) LoggingOptions() *logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	if format, err := logging.ParseFormat(c.Log.Format); err == nil {
		lc.Format = format
	}
	lc.Output = strings.ToLower(c.Log.Output)
	if c.Log.File != "" {
		lc.FilePath = c.Log.File
	}
	return lc
}

// Package config provides configuration loading and defaults for the lottery.
//
// Configuration is loaded from a TOML file in the data directory. The package
// covers the registration window, backup and announcement cadence, the
// optional winner webhook, and logging, with defaults that reproduce the
// classic one-minute terminal lottery.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/lottery/internal/atomicfile"
	"tools.zach/dev/lottery/internal/paths"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Registration holds the registration window settings.
	Registration RegistrationConfig `toml:"registration"`
	// Backup holds participant backup settings.
	Backup BackupConfig `toml:"backup"`
	// Announce holds periodic status announcement settings.
	Announce AnnounceConfig `toml:"announce"`
	// Notify holds winner notification settings.
	Notify NotifyConfig `toml:"notify"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// RegistrationConfig holds the registration window settings.
type RegistrationConfig struct {
	// DurationSeconds is the length of the initial registration window.
	DurationSeconds int `toml:"duration_seconds"`
	// ExtensionSeconds is the length of the one-time extension, measured from
	// the moment the initial window expires.
	ExtensionSeconds int `toml:"extension_seconds"`
	// MinParticipants is the participant count below which the window is
	// extended once at first expiry.
	MinParticipants int `toml:"min_participants"`
	// Deny lists glob patterns of identifiers that are refused as invalid.
	Deny []string `toml:"deny"`
}

// BackupConfig holds participant backup settings.
type BackupConfig struct {
	// IntervalSeconds is the minimum time between opportunistic backups.
	IntervalSeconds int `toml:"interval_seconds"`
}

// AnnounceConfig holds periodic status announcement settings.
type AnnounceConfig struct {
	// IntervalSeconds is the period of the time-remaining announcement.
	IntervalSeconds int `toml:"interval_seconds"`
}

// NotifyConfig holds winner notification settings.
type NotifyConfig struct {
	// WebhookURL receives a JSON POST with the winner. Empty disables it.
	WebhookURL string `toml:"webhook_url,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Registration: RegistrationConfig{
			DurationSeconds:  60,
			ExtensionSeconds: 60,
			MinParticipants:  5,
			Deny:             []string{},
		},
		Backup: BackupConfig{
			IntervalSeconds: 30,
		},
		Announce: AnnounceConfig{
			IntervalSeconds: 30,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Durations
// ///////////////////////////////////////////////

// Duration returns the initial registration window length.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.Registration.DurationSeconds) * time.Second
}

// Extension returns the one-time extension length.
func (c *Config) Extension() time.Duration {
	return time.Duration(c.Registration.ExtensionSeconds) * time.Second
}

// BackupInterval returns the minimum time between opportunistic backups.
func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalSeconds) * time.Second
}

// AnnounceInterval returns the announcement period.
func (c *Config) AnnounceInterval() time.Duration {
	return time.Duration(c.Announce.IntervalSeconds) * time.Second
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if v := PeekVersion(data); v > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than supported version %d", v, CurrentVersion)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Registration.DurationSeconds <= 0 {
		return fmt.Errorf("registration.duration_seconds must be > 0, got %d", c.Registration.DurationSeconds)
	}
	if c.Registration.ExtensionSeconds <= 0 {
		return fmt.Errorf("registration.extension_seconds must be > 0, got %d", c.Registration.ExtensionSeconds)
	}
	if c.Registration.MinParticipants < 1 {
		return fmt.Errorf("registration.min_participants must be >= 1, got %d", c.Registration.MinParticipants)
	}
	for _, pattern := range c.Registration.Deny {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid registration.deny pattern %q", pattern)
		}
	}

	if c.Backup.IntervalSeconds <= 0 {
		return fmt.Errorf("backup.interval_seconds must be > 0, got %d", c.Backup.IntervalSeconds)
	}
	if c.Announce.IntervalSeconds <= 0 {
		return fmt.Errorf("announce.interval_seconds must be > 0, got %d", c.Announce.IntervalSeconds)
	}

	if c.Notify.WebhookURL != "" {
		u, err := url.Parse(c.Notify.WebhookURL)
		if err != nil {
			return fmt.Errorf("invalid notify.webhook_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid notify.webhook_url %q: scheme must be http or https", c.Notify.WebhookURL)
		}
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// Package config loads the server configuration from a TOML file with
// defaults suitable for a first run without any file at all.
package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `toml:"listen_addr"`

	// SettingsPath locates the JSON settings document holding account
	// credentials and the default path.
	SettingsPath string `toml:"settings_path"`

	// UploadDir is where multipart uploads are staged before transfer.
	UploadDir string `toml:"upload_dir"`

	// MaxUploadSize caps a single upload request body. Accepts SI and IEC
	// suffixes ("16GiB", "500MB") or raw bytes.
	MaxUploadSize string `toml:"max_upload_size"`

	// LedgerPath locates the SQLite operation ledger.
	LedgerPath string `toml:"ledger_path"`

	// BaseURL overrides the backend API endpoint. For testing.
	BaseURL string `toml:"base_url"`

	LogLevel string `toml:"log_level"`

	// WatchSettings reloads the session when the settings file changes
	// outside the process.
	WatchSettings bool `toml:"watch_settings"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    ":5000",
		SettingsPath:  "settings.json",
		UploadDir:     "./uploads",
		MaxUploadSize: "16GiB",
		LedgerPath:    "panbridge.db",
		LogLevel:      "info",
		WatchSettings: true,
	}
}

// Validate checks the configuration for values that cannot work.
func Validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}

	if cfg.SettingsPath == "" {
		return fmt.Errorf("settings_path must not be empty")
	}

	if _, err := ParseSize(cfg.MaxUploadSize); err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	return nil
}

// MaxUploadBytes returns the parsed upload cap in bytes. Call Validate first;
// an unparseable value here falls back to zero (no uploads).
func (c *Config) MaxUploadBytes() int64 {
	n, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return 0
	}

	return n
}

// ParseLogLevel maps a config string to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
}

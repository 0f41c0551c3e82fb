package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/panbridge/panbridge/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the effective configuration loaded by PersistentPreRunE.
var cfg *config.Config

// defaultConfigPath is where the server looks for its config file when
// --config is not given. A missing file falls back to built-in defaults.
const defaultConfigPath = "panbridge.toml"

// backendHTTPClient returns the client used for backend API calls. No
// request timeout: link resolution and uploads are bounded by the caller's
// context, and large transfers have no sensible fixed deadline.
func backendHTTPClient() *http.Client {
	return &http.Client{}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "panbridge",
		Short:   "HTTP bridge to a 123pan cloud account",
		Long:    "An HTTP JSON API exposing listing, download link resolution, upload, share, and folder management for a 123pan account.",
		Version: version,
		// Silence Cobra's default error/usage printing, handled in main instead.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration and stores it in cfg for
// use by subcommands.
func loadConfig() error {
	path := flagConfigPath
	if path == "" {
		path = defaultConfigPath
	}

	loaded, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg = loaded

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		if parsed, err := config.ParseLogLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// Package main is the entry point for the ummati CLI.
//
// The client core can be embedded as a library (SDK) or run as a standalone
// binary with YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	ummati serve -c ummati.yaml      # Serve the UI binding
//	ummati validate -c ummati.yaml   # Validate configuration
//	ummati login -e me@example.com   # Sign in and persist the session
//	ummati events --city Rabat       # Browse events
//	ummati version                   # Show version info
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spanow/ummati"
	"github.com/spanow/ummati/config"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultConfigFile = "ummati.yaml"

// newRootCmd builds the command tree. It just displays help when called
// without subcommands.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ummati",
		Short: "Volunteer marketplace client",
		Long: `ummati is the client core of the Ummati volunteer marketplace.

It keeps the session, notifications, preferences and the event and NGO
listings in sync with the marketplace API, and exposes them to a UI over
HTTP with Server-Sent Events for live updates.

Quick start:
  1. Create a config file (ummati.yaml)
  2. Run: ummati login -e you@example.com
  3. Run: ummati serve

Example config:
  api:
    base_url: https://api.ummati.ma/v1
  port: 8080
  collections:
    events:
      page_size: 12
      debounce: 300ms`,
	}

	root.PersistentFlags().StringP("config", "c", defaultConfigFile, "path to config file")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newValidateCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newEventsCmd(),
		newNGOsCmd(),
		newRegisterCmd(),
		newPrefsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already prints the error
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this ummati binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ummati %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig reads the file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newApp builds an App from the configuration file without any I/O beyond
// opening the state file.
func newApp(cmd *cobra.Command) (*ummati.App, *config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build options: %w", err)
	}

	app, err := ummati.New(opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create app: %w", err)
	}
	return app, cfg, logger, nil
}

// withApp runs fn against an opened App and closes it afterwards. Used by
// the one-shot commands.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *ummati.App) error) error {
	app, _, _, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Open(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}

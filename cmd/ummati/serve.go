package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the UI binding",
		Long: `Start the ummati client core and its UI binding server.

The server will:
  - Load configuration from the specified YAML file
  - Restore the persisted session and load the first page of each listing
  - Serve store snapshots and Server-Sent Events on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  ummati serve -c ummati.yaml
  ummati serve --config /etc/ummati/ummati.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	app, cfg, logger, err := newApp(cmd)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"base_url", cfg.API.BaseURL,
		"events", cfg.Collections.Events.Path,
		"ngos", cfg.Collections.NGOs.Path,
		"state_file", cfg.StateFile,
	)
	logger.Info("starting server", "port", cfg.Port)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled, closes the app on return
	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

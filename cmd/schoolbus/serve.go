package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/schoolbus"
	"github.com/jpalmerr/schoolbus/config"
	"github.com/jpalmerr/schoolbus/internal/telemetry"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the landing site server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the landing site server",
	Long: `Start the School Bus Tracker landing site.

The server will:
  - Load configuration from the specified YAML file
  - Render and self-check the landing page
  - Serve the page, the sign-in placeholder and the static assets

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  schoolbus serve -c config.yaml
  schoolbus serve --config /etc/schoolbus/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"features", len(cfg.LandingContent().Features),
		"login_path", cfg.LoginPath,
		"tracing", cfg.Tracing.Endpoint != "",
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing.Telemetry())
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	opts := append(config.BuildOptions(cfg),
		schoolbus.WithLogger(logger),
		schoolbus.WithTracerProvider(tp),
	)

	site, err := schoolbus.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	logger.Info("starting server",
		"port", site.Port(),
		"static_max_age", cfg.StaticMaxAge.Duration().String(),
	)

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- site.Start(ctx)
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

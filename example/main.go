package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/schoolbus"
	"github.com/jpalmerr/schoolbus/landing"
)

func main() {
	content := landing.DefaultContent()
	content.Hero.Headline = "Never miss the school bus again"
	content.CallToAction.Label = "Get it free"

	site, err := schoolbus.New(
		schoolbus.WithContent(content),
		schoolbus.WithTitle("School Bus Tracker | Demo"),
		schoolbus.WithPort(8080),
		schoolbus.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))),
	)
	if err != nil {
		slog.Error("failed to create site", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  School Bus Tracker demo")
	fmt.Println("  Open http://localhost:8080 in your browser, Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := site.Start(ctx); err != nil {
		slog.Error("site error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpalmerr/schoolbus"
	"github.com/jpalmerr/schoolbus/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a schoolbus configuration file without starting the server.

This command parses the YAML, expands environment variables, validates
all fields, checks that every referenced image is embedded, and renders
the landing page once to verify its links and footer. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  schoolbus validate -c config.yaml
  schoolbus validate --config /etc/schoolbus/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	site, err := schoolbus.New(append(config.BuildOptions(cfg), schoolbus.WithLogger(quiet))...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var page bytes.Buffer
	if err := site.Render(&page); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	content := site.Content()

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", site.Port())
	fmt.Printf("  Login path:    %s\n", site.LoginPath())
	fmt.Printf("  App store URL: %s\n", site.AppStoreURL())
	fmt.Printf("  Features:      %d\n", len(content.Features))
	fmt.Printf("  Gallery:       %d images\n", len(content.Gallery))

	return nil
}

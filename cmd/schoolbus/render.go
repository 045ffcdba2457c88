package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpalmerr/schoolbus"
	"github.com/jpalmerr/schoolbus/config"
	"github.com/spf13/cobra"
)

// renderCmd writes the landing page HTML without starting a server.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the landing page to a file or stdout",
	Long: `Render the landing page once and write the HTML document.

Without --config the shipped defaults are used. Assets are not copied;
the output references them under /assets/.

Example:
  schoolbus render > index.html
  schoolbus render -c config.yaml -o public/index.html`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("config", "c", "", "path to config file")
	renderCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")

	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	site, err := schoolbus.New(append(config.BuildOptions(cfg), schoolbus.WithLogger(quiet))...)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	if output == "" {
		return site.Render(cmd.OutOrStdout())
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := site.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Package main is the entry point for the schoolbus CLI.
//
// The landing site can be embedded as a library (SDK) or run as a
// standalone binary with YAML configuration. This CLI provides the
// standalone binary approach.
//
// Usage:
//
//	schoolbus serve -c config.yaml     # Start the site
//	schoolbus validate -c config.yaml  # Validate configuration
//	schoolbus render -o index.html     # Write the landing page to a file
//	schoolbus version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "schoolbus",
	Short: "Landing site for the School Bus Tracker app",
	Long: `schoolbus serves the public landing page of the School Bus Tracker app.

The page introduces the app, links visitors to the sign-in route and
to the app store listing, and shows the current year in its footer.

Quick start:
  1. Create a config file (schoolbus.yaml)
  2. Run: schoolbus serve -c schoolbus.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  login_path: /login
  app_store_url: https://apps.apple.com/app/school-bus-tracker/id6450000000`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this schoolbus binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("schoolbus %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

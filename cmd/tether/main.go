package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tether/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tether",
		Short: "Keep Go models and browser views in sync",
		Long: `Tether binds server-side Go model fields to browser views.

Changes made on the server reach every connected browser, and edits made
in one browser are applied to the model and reach every other browser.

Configuration is read from tether.yaml, a .env file next to it, and
TETHER_* environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to tether.yaml (default: ./tether.yaml if present)")

	root.AddCommand(
		serveCmd(&configPath),
		inspectCmd(),
		snapshotCmd(&configPath),
		configCmd(&configPath),
		versionCmd(),
	)
	return root
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

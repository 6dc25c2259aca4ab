// Visorctl is an operator tool for Visor VR headsets.
//
// It talks to the privileged local agent over a WebSocket channel and lets
// operators flip headset features (guardian pause, proximity sensor), enable
// the wireless bridge, and set up casting. Commands are fire-and-forget;
// results arrive as correlated events from the agent.
//
// Usage:
//
//	visorctl [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'visorctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/version"
)

func main() {
	_ = logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "visorctl",
	Short: "Visor Headset Operator Tool",
	Long: `An operator tool for Visor VR headsets.

Talks to the privileged local agent to control headset features:
guardian pause, proximity sensor, wireless bridge, and casting setup.

If no command is specified, the interactive dashboard will launch
automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("visorctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}

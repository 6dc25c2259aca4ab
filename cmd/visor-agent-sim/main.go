// Visor-agent-sim is a simulated headset agent for development and testing.
//
// It serves the same WebSocket channel the real privileged agent exposes,
// answering commands with correlated events over configurable delays. Use
// it to develop and demo visorctl without headset hardware:
//
//	visor-agent-sim serve --port 8815
//	visorctl --endpoint ws://127.0.0.1:8815/channel
//
// See 'visor-agent-sim serve --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/visorctl/internal/agentsim"
	"github.com/muurk/visorctl/internal/devices"
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
	Use:   "visor-agent-sim",
	Short: "Simulated Visor headset agent",
	Long: `A simulated headset agent for developing and testing visorctl.

The simulator accepts the same WebSocket channel the real agent serves and
answers commands with correlated events: feature toggles, the wireless
bridge, and the full casting install flow, with configurable delays.

No headset hardware is required.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	host            string
	port            int
	serial          string
	bundleInstalled bool
	toggleDelayMs   int
	bridgeDelayMs   int
	captureDir      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated agent",
	Long: `Start the simulated agent and serve the channel at /channel.

Each connection gets its own copy of the simulated headset state, so
parallel visorctl sessions do not interfere with each other.

To capture received commands for protocol analysis, use the --capture-dir
flag to specify a directory where JSON Lines logs will be written.`,
	Example: `  # Serve on the default endpoint visorctl expects
  visor-agent-sim serve

  # Simulate a headset with the casting bundle already installed
  visor-agent-sim serve --bundle-installed

  # Slow everything down to exercise spinners and progress bars
  visor-agent-sim serve --toggle-delay 2000 --bridge-delay 5000

  # Capture commands for analysis
  visor-agent-sim serve --capture-dir ./captures`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address")
	serveCmd.Flags().IntVar(&port, "port", 8815, "Listen port")
	serveCmd.Flags().StringVar(&serial, "serial", "1WMHH8SIM00001", "Simulated headset serial")
	serveCmd.Flags().BoolVar(&bundleInstalled, "bundle-installed", false, "Start with the casting bundle installed")
	serveCmd.Flags().IntVar(&toggleDelayMs, "toggle-delay", 300, "Toggle completion delay in milliseconds")
	serveCmd.Flags().IntVar(&bridgeDelayMs, "bridge-delay", 1000, "Bridge enable delay in milliseconds")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory to write command capture logs (disabled if not specified)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	cfg := agentsim.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.Devices = []devices.Descriptor{
		{
			Serial:     serial,
			TrueSerial: serial,
			Transport:  devices.TransportWired,
			State:      devices.StateDevice,
		},
	}
	cfg.BundleInstalled = bundleInstalled
	cfg.ToggleDelay = time.Duration(toggleDelayMs) * time.Millisecond
	cfg.BridgeDelay = time.Duration(bridgeDelayMs) * time.Millisecond
	cfg.CaptureDir = captureDir

	srv, err := agentsim.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	fmt.Printf("Simulated agent listening at ws://%s:%d/channel\n", host, port)
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("visor-agent-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}

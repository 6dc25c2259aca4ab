package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/visorctl/internal/bridge"
	"github.com/muurk/visorctl/internal/casting"
	"github.com/muurk/visorctl/internal/config"
	"github.com/muurk/visorctl/internal/control"
	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/discovery"
	"github.com/muurk/visorctl/internal/tui"
	"github.com/muurk/visorctl/internal/ui"
	"github.com/muurk/visorctl/internal/urls"
)

// Command flags
var (
	agentEndpoint string
	serialFlag    string
	waitSeconds   int
	assumeYes     bool
	scanTimeout   int
	noDiscover    bool
)

func init() {
	// Common flags for agent-backed commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&agentEndpoint, "endpoint", "", "Agent WebSocket endpoint (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&serialFlag, "serial", "", "Headset serial to select (skips auto-selection)")
	rootCmd.PersistentFlags().IntVar(&waitSeconds, "wait", 30, "Seconds to wait for the agent to report a result")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(guardianCmd)
	rootCmd.AddCommand(proximityCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(castCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(scanCmd)
}

// resolveEndpoint returns the agent endpoint from the flag or the config file
func resolveEndpoint() string {
	if agentEndpoint != "" {
		return agentEndpoint
	}
	reg, err := config.LoadRegistry()
	if err != nil {
		fmt.Printf("Warning: could not load config (%v), using default endpoint\n", err)
		return config.DefaultAgentEndpoint
	}
	return reg.AgentEndpoint()
}

// oneShot bundles the session plumbing used by run-once commands
type oneShot struct {
	backend *bridge.Bridge
	session *control.Session
	done    chan error
}

// openSession dials the agent and starts a session loop. Callers must call
// close when finished.
func openSession(gate casting.Gate, notifier control.Notifier) (*oneShot, error) {
	endpoint := resolveEndpoint()

	backend, err := bridge.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent at %s: %w", endpoint, err)
	}

	session := control.NewSession(backend, gate, notifier)
	done := make(chan error, 1)
	go func() { done <- session.Run() }()
	<-session.Ready()

	return &oneShot{
		backend: backend,
		session: session,
		done:    done,
	}, nil
}

// close stops the session loop and the connection
func (o *oneShot) close() {
	o.session.Close()
	<-o.done
}

// waitFor consumes session updates until pred reports done, the session
// fails, or the wait budget runs out. pred returns (finished, error).
func (o *oneShot) waitFor(pred func(control.Update) (bool, error)) error {
	timeout := time.Duration(waitSeconds) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case u := <-o.session.Updates():
			if fatal, ok := u.(control.FatalUpdate); ok {
				return fmt.Errorf("agent failed: %s", fatal.Message)
			}
			finished, err := pred(u)
			if err != nil {
				return err
			}
			if finished {
				return nil
			}

		case err := <-o.done:
			o.done <- err
			if err != nil {
				return err
			}
			return fmt.Errorf("session closed before the agent responded")

		case <-timer.C:
			return fmt.Errorf("timed out after %s waiting for the agent", timeout)
		}
	}
}

// selectHeadset waits for the first device snapshot and applies --serial
func (o *oneShot) selectHeadset() (*devices.Descriptor, error) {
	var current *devices.Descriptor

	err := o.waitFor(func(u control.Update) (bool, error) {
		du, ok := u.(control.DeviceUpdate)
		if !ok {
			return false, nil
		}
		if serialFlag != "" {
			o.session.SelectDevice(serialFlag)
			// The selection lands on the session loop; the resulting
			// snapshot arrives as the next DeviceUpdate.
			serialFlag = ""
			return false, nil
		}
		current = du.Current
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("no connected headset selected; plug one in or pass --serial")
	}
	return current, nil
}

// dashboardCmd launches the interactive dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive operator dashboard",
	Long: `Launch the full-screen dashboard for live headset control.

The dashboard shows the device list, feature toggles, wireless bridge
availability, and the casting workflow, all updating live from agent
events.

This is the recommended interface for most operators.`,
	Example: `  # Launch the dashboard
  visorctl dashboard
  # Or simply (dashboard is default):
  visorctl

  # Launch against a non-default agent
  visorctl dashboard --endpoint ws://10.0.0.5:8815/channel`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	gate := tui.NewConfirmGate()
	notifier := tui.NewChannelNotifier()

	o, err := openSession(gate, notifier)
	if err != nil {
		return err
	}
	defer o.close()

	if serialFlag != "" {
		o.session.SelectDevice(serialFlag)
	}

	if err := tui.Run(o.session, gate, notifier, o.done); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}

	return nil
}

// guardianCmd pauses or resumes the guardian boundary system
var guardianCmd = &cobra.Command{
	Use:   "guardian <pause|resume>",
	Short: "Pause or resume the guardian boundary system",
	Long: `Pause or resume the guardian boundary system on the headset.

The command is sent to the agent and the new state is confirmed by a
correlated completion event. While the change is in flight the toggle
cannot be flipped again.`,
	Example: `  # Pause guardian for a seated demo
  visorctl guardian pause

  # Restore the boundary system
  visorctl guardian resume`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"pause", "resume"},
	RunE:      runGuardian,
}

func runGuardian(cmd *cobra.Command, args []string) error {
	paused := args[0] == "pause"
	if !paused && args[0] != "resume" {
		return fmt.Errorf("invalid argument %q (use pause or resume)", args[0])
	}

	return runToggle(control.KeyGuardian, "Guardian", func(s *control.Session) {
		s.RequestGuardianPause(paused)
	})
}

// proximityCmd enables or disables the wear-detection sensor
var proximityCmd = &cobra.Command{
	Use:   "proximity <on|off>",
	Short: "Enable or disable the proximity (wear detection) sensor",
	Long: `Enable or disable the headset's proximity sensor.

With the sensor off the headset treats itself as always worn, which keeps
the display on while the headset sits on a desk.`,
	Example: `  # Keep the display on while the headset is off the head
  visorctl proximity off

  # Restore normal wear detection
  visorctl proximity on`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runProximity,
}

func runProximity(cmd *cobra.Command, args []string) error {
	enabled := args[0] == "on"
	if !enabled && args[0] != "off" {
		return fmt.Errorf("invalid argument %q (use on or off)", args[0])
	}

	return runToggle(control.KeyProximity, "Proximity sensor", func(s *control.Session) {
		s.RequestProximitySensor(enabled)
	})
}

// runToggle drives one feature toggle request to confirmation
func runToggle(key, label string, request func(*control.Session)) error {
	o, err := openSession(&ui.TerminalGate{}, &ui.TerminalNotifier{})
	if err != nil {
		return err
	}
	defer o.close()

	request(o.session)
	ui.PrintPleaseWait(label+" update sent, waiting for the agent", "")

	var confirmed control.ToggleState
	err = o.waitFor(func(u control.Update) (bool, error) {
		tu, ok := u.(control.ToggleUpdate)
		if !ok || tu.Key != key {
			return false, nil
		}
		if tu.State.Updating {
			return false, nil
		}
		confirmed = tu.State
		return true, nil
	})
	if err != nil {
		ui.PrintFailure(label+" update", err, []string{
			"Verify the agent is running and reachable",
			"Check the headset is connected and authorized",
			"Set VISORCTL_LOG_LEVEL=debug for full protocol logging",
		})
		return err
	}

	value, known := confirmed.Displayed()
	state := "unknown"
	if known {
		if value {
			state = "on"
		} else {
			state = "off"
		}
	}
	ui.PrintSuccess(label+" updated", map[string]string{
		"State": state,
	})
	return nil
}

// bridgeCmd enables the wireless bridge for the selected headset
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Enable the wireless bridge for the selected headset",
	Long: `Enable the wireless bridge for the currently selected headset.

The bridge is only offered for headsets connected over USB that do not
already have a wireless twin connected. Once the agent reports the bridge
is up, the headset's wireless endpoint is located via mDNS and recorded in
the config file (use --no-discover to skip that step).`,
	Example: `  # Enable the bridge for the auto-selected headset
  visorctl bridge

  # Enable the bridge for a specific headset and skip discovery
  visorctl bridge --serial 1WMHH812X90001 --no-discover`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().BoolVar(&noDiscover, "no-discover", false, "Skip mDNS discovery of the wireless endpoint")
	bridgeCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "mDNS discovery timeout in seconds")
}

func runBridge(cmd *cobra.Command, args []string) error {
	o, err := openSession(&ui.TerminalGate{}, &ui.TerminalNotifier{})
	if err != nil {
		return err
	}
	defer o.close()

	current, err := o.selectHeadset()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader("Wireless Bridge", "visorctl bridge", map[string]string{
		"Headset": current.Serial,
		"Agent":   o.backend.Endpoint(),
	})

	o.session.EnableWirelessBridge()

	var trueSerial string
	err = o.waitFor(func(u control.Update) (bool, error) {
		bu, ok := u.(control.BridgeUpdate)
		if !ok {
			return false, nil
		}
		trueSerial = bu.TrueSerial
		return !bu.Pending, nil
	})
	if err != nil {
		ui.PrintFailure("Wireless bridge", err, []string{
			"The bridge is only offered for USB-connected headsets",
			"A headset already bridged wirelessly is not offered again",
			"Run: visorctl devices",
			"See " + urls.WirelessBridge,
		})
		return err
	}

	details := map[string]string{
		"Headset": trueSerial,
	}

	if !noDiscover {
		ui.PrintPleaseWait("Locating wireless endpoint via mDNS", fmt.Sprintf("up to %ds", scanTimeout))

		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(scanTimeout) * time.Second
		endpoint, err := scanner.WaitForEndpoint(trueSerial)
		if err != nil {
			ui.PrintWarning("Bridge enabled, endpoint not found", map[string]string{
				"Headset": trueSerial,
				"Detail":  err.Error(),
			})
			return nil
		}

		details["Endpoint"] = endpoint.Address()

		if reg, err := config.LoadRegistry(); err == nil {
			reg.SetHeadsetWireless(trueSerial, endpoint.Address())
			reg.UpdateHeadsetLastSeen(trueSerial)
			if err := reg.Save(); err != nil {
				fmt.Printf("Warning: could not save config: %v\n", err)
			}
		}
	}

	ui.PrintSuccess("Wireless bridge enabled", details)
	return nil
}

// castCmd runs the casting setup workflow
var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "Set up and launch casting",
	Long: `Set up and launch casting from the headset.

Checks whether the casting bundle is installed, asks for confirmation
before downloading it when missing, streams download progress, and
launches casting once the bundle is in place.`,
	Example: `  # Interactive casting setup
  visorctl cast

  # Skip the download confirmation prompt
  visorctl cast --yes`,
	RunE: runCast,
}

func init() {
	castCmd.Flags().BoolVar(&assumeYes, "yes", false, "Confirm the bundle download without prompting")
}

func runCast(cmd *cobra.Command, args []string) error {
	gate := &ui.TerminalGate{AssumeYes: assumeYes}

	o, err := openSession(gate, &ui.TerminalNotifier{})
	if err != nil {
		return err
	}
	defer o.close()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:      "Casting Setup",
		Command:    "visorctl cast",
		Params:     map[string]string{"Agent": o.backend.Endpoint()},
		TotalSteps: 3,
		StepNames: []string{
			"Checking installation",
			"Downloading bundle",
			"Launching casting",
		},
	})

	return runner.Run(context.Background(), func(onStep ui.StepCallback) error {
		o.session.StartCasting()
		onStep(1, "", ui.StepRunning, "")

		bar := ui.NewDownloadBar("Downloading bundle")
		downloading := false

		return o.waitFor(func(u control.Update) (bool, error) {
			cu, ok := u.(control.CastingUpdate)
			if !ok {
				return false, nil
			}

			switch cu.State {
			case casting.StateAwaitingConfirmation:
				onStep(1, "", ui.StepComplete, "not installed")

			case casting.StateCancelled:
				onStep(2, "", ui.StepSkipped, "declined")
				return false, fmt.Errorf("download declined")

			case casting.StateDownloading:
				if !downloading {
					downloading = true
					onStep(1, "", ui.StepComplete, "")
				}
				bar.Set(cu.Percent, cu.Indeterminate)
				fmt.Print(bar.Render() + "\r")

			case casting.StateLaunched:
				if downloading {
					fmt.Println()
					onStep(2, "", ui.StepComplete, "")
				} else {
					onStep(1, "", ui.StepComplete, "already installed")
					onStep(2, "", ui.StepSkipped, "already installed")
				}
				onStep(3, "", ui.StepComplete, "")
				return true, nil
			}
			return false, nil
		})
	})
}

// devicesCmd lists headsets known to the agent
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List headsets known to the agent",
	Long: `List the headsets the agent currently reports, with transport,
connection state, and whether the wireless bridge is on offer for the
selected headset.`,
	Example: `  # List headsets
  visorctl devices`,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	o, err := openSession(&ui.TerminalGate{}, &ui.TerminalNotifier{})
	if err != nil {
		return err
	}
	defer o.close()

	var snapshot control.DeviceUpdate
	err = o.waitFor(func(u control.Update) (bool, error) {
		du, ok := u.(control.DeviceUpdate)
		if !ok {
			return false, nil
		}
		snapshot = du
		return true, nil
	})
	if err != nil {
		return err
	}

	if len(snapshot.Devices) == 0 {
		fmt.Println("No headsets detected.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Connect a headset over USB")
		fmt.Println("  - Accept the authorization prompt inside the headset")
		fmt.Println("  - Check the agent logs")
		fmt.Println("  - See " + urls.GettingStarted)
		return nil
	}

	reg, _ := config.LoadRegistry()

	fmt.Printf("Found %d headset(s):\n\n", len(snapshot.Devices))

	for i, d := range snapshot.Devices {
		marker := " "
		if snapshot.Current != nil && snapshot.Current.Serial == d.Serial {
			marker = "*"
		}
		fmt.Printf("%s %d. %s\n", marker, i+1, d.Serial)
		fmt.Printf("     Transport: %s\n", d.Transport)
		fmt.Printf("     State:     %s\n", d.State)
		if reg != nil {
			if h := reg.GetHeadset(d.TrueSerial); h != nil && h.Nickname != "" {
				fmt.Printf("     Nickname:  %s\n", h.Nickname)
			}
		}
		fmt.Println()
	}

	if snapshot.OfferBridge {
		fmt.Println("The selected headset can be bridged wirelessly: visorctl bridge")
	}

	return nil
}

// scanCmd discovers wireless bridge endpoints on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for headset wireless endpoints on the network",
	Long: `Scan for headset wireless bridge endpoints using mDNS/DNS-SD.

Headsets advertise an endpoint once their wireless bridge has been
enabled. Discovered endpoints are recorded in the config file so later
sessions can reuse them.`,
	Example: `  # Scan for 10 seconds (default)
  visorctl scan

  # Longer scan for busy networks
  visorctl scan --timeout 30`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for headset wireless endpoints (timeout: %ds)...\n\n", scanTimeout)

	endpoints, err := discovery.ScanForEndpoints(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(endpoints) == 0 {
		fmt.Println("No endpoints found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Enable the bridge first: visorctl bridge")
		fmt.Println("  - Check the headset is on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d endpoint(s):\n\n", len(endpoints))

	reg, regErr := config.LoadRegistry()

	for i, ep := range endpoints {
		fmt.Printf("%d. %s\n", i+1, ep.Hostname)
		fmt.Printf("   Serial:   %s\n", ep.TrueSerial)
		fmt.Printf("   Endpoint: %s\n", ep.Address())
		if len(ep.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", ep.Metadata)
		}
		fmt.Println()

		if regErr == nil {
			reg.SetHeadsetWireless(ep.TrueSerial, ep.Address())
			reg.UpdateHeadsetLastSeen(ep.TrueSerial)
		}
	}

	if regErr == nil {
		if err := reg.Save(); err != nil {
			fmt.Printf("Warning: could not save config: %v\n", err)
		}
	}

	return nil
}

// Package ui provides terminal UI components for visorctl's one-shot commands.
//
// This package uses Bubbles and Lipgloss to render polished terminal output
// for commands that run once and exit (toggles, bridge, cast, devices).
// The interactive dashboard lives in the tui package; the components here
// render output compellingly but don't take over the terminal.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - Progress / DownloadBar: Step list and casting download bar
//   - Result: Success/failure boxes with styled information
//   - TerminalGate: Terminal yes/no prompts for casting confirmation
//   - TerminalNotifier: Styled single-line session notifications
//
// These are orchestrated by the Runner, which manages the
// header → progress → result flow for multi-step commands.
//
// # Usage Pattern
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:      "Casting Setup",
//	    Command:    "visorctl cast",
//	    Params:     map[string]string{"Agent": endpoint},
//	    TotalSteps: 4,
//	})
//
//	err := runner.Run(ctx, func(onStep ui.StepCallback) error {
//	    onStep(1, "Checking installation", ui.StepRunning, "")
//	    // ... drive the session ...
//	    onStep(1, "Checking installation", ui.StepComplete, "")
//	    return nil
//	})
//
// # Logging Integration
//
// This package expects logging to be controlled via the VISORCTL_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui

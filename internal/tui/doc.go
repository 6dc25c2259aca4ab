// Package tui implements the interactive operator dashboard for visorctl.
//
// The dashboard is a full-screen Bubble Tea application showing live headset
// state: the device list, feature toggles, wireless bridge availability, and
// the casting workflow. It follows the Elm architecture with immutable state
// updates and a Model-Update-View pattern.
//
// # Relationship to the session
//
// The dashboard never owns feature state. It mirrors the control session's
// update stream and posts operator requests back to it:
//
//   - session updates (toggles, devices, bridge, casting) arrive as messages
//     pumped from the session's update channel
//   - notifications arrive through a ChannelNotifier
//   - casting confirmations arrive through a ConfirmGate and render as a
//     modal; the answer is reported back asynchronously
//   - key presses call the session's request methods and wait for the
//     resulting updates; nothing is toggled locally
//
// A fatal agent failure switches to a terminal failure screen. There is no
// reconnect: the operator quits and starts a new session.
//
// # Framework Components
//
//   - bubbles/spinner: updating toggles, pending bridge, casting check
//   - bubbles/progress: casting bundle download bar
//   - bubbles/help + bubbles/key: context-aware key bindings
//   - lipgloss: styling and layout
//
// # Usage Example
//
//	gate := tui.NewConfirmGate()
//	notifier := tui.NewChannelNotifier()
//	session := control.NewSession(backend, gate, notifier)
//
//	done := make(chan error, 1)
//	go func() { done <- session.Run() }()
//
//	if err := tui.Run(session, gate, notifier, done); err != nil {
//	    log.Fatal(err)
//	}
//
// # Key Bindings
//
//   - ↑/↓ or k/j: move the headset cursor, Enter: select headset
//   - g: toggle guardian pause, p: toggle proximity sensor
//   - w: enable the wireless bridge for the selected headset
//   - c: start the casting workflow
//   - ?: help overlay, q: quit
//
// # Thread Safety
//
// The Bubble Tea framework ensures thread safety through message passing.
// All model updates occur in a single goroutine; session callbacks hand off
// through channels only.
package tui

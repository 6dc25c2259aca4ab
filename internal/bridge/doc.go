// Package bridge implements the message channel to the privileged agent.
//
// The agent owns the actual device protocol; this tool only speaks to the
// agent over a local WebSocket. Traffic is strictly one-way in each
// direction: commands flow out through the Dispatcher, events flow in
// through the event bus. Nothing here is call/return.
//
// # Fire-and-Forget Commands
//
// Send never blocks and never reports delivery. A command, once sent, is
// owned by the agent until it emits the correlated commandCompleted event.
// There are no retries and no timeouts; a command that never completes is a
// recognized gap handled by the controllers' busy-state guards, not here.
//
// # Failure Model
//
// The only failure the bridge surfaces is a fatal one: when the connection
// is lost or writes fail, it synthesizes a fatalFailure event on the bus.
// The failure monitor consumes that event, stops all further dispatch, and
// calls Close. Recovery requires restarting the session.
package bridge

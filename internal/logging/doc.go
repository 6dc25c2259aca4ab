// Package logging provides structured logging for visorctl.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the tool. It provides both general logging functions
// and specialized functions for command/event correlation logging.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (command dispatch, event correlation)
//   - Info: Normal operations (connections, workflow transitions)
//   - Warn: Non-fatal issues (dropped events, decode failures)
//   - Error: Fatal issues (agent failure, startup errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Casting workflow started",
//	    zap.String("state", "checking"),
//	    zap.String("device", "1WMHH812345678"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogConnection(endpoint, "agent_connected")
//	logging.LogCommand("setGuardianPaused", "guardian")
//	logging.LogEvent("commandCompleted", "guardian")
//	logging.LogEventDropped("commandCompleted", "guardian", "no pending controller")
//
// # Configuration
//
// Logging is silent by default so command output stays clean. Set the
// VISORCTL_LOG_LEVEL environment variable to enable it:
//
//	VISORCTL_LOG_LEVEL=debug visorctl dashboard
//
// Logs are written to stderr in console format so they never interleave with
// rendered UI on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging

// Package protocol defines the wire model for the visorctl agent channel.
//
// The privileged agent and this tool exchange newline-free JSON messages
// over a WebSocket: outbound Command values and inbound Event envelopes.
// The package is split the same way the traffic flows:
//
//   - command.go constructs outbound commands
//   - parser.go parses inbound events
//
// # Correlation Contract
//
// Every command carries a caller-chosen CorrelationKey. The agent echoes the
// (kind, correlationKey) pair verbatim in the commandCompleted event for
// that command. Correlation is always done on that pair, never on arrival
// order: the agent guarantees per-kind FIFO delivery but nothing across
// kinds.
//
// # Events
//
// Inbound messages are parsed into an Event envelope with the payload kept
// raw. Consumers decode the payload through the typed accessors
// (CommandCompleted, DeviceList, CastingStatus, DownloadProgress,
// FatalFailure), which validate the event kind first.
package protocol

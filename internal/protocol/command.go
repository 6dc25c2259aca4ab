package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies the operation family a command belongs to.
type CommandKind string

const (
	// CmdSetProximitySensor enables or disables the wear-detection sensor
	CmdSetProximitySensor CommandKind = "setProximitySensor"

	// CmdSetGuardianPaused pauses or resumes the guardian boundary system
	CmdSetGuardianPaused CommandKind = "setGuardianPaused"

	// CmdEnableWirelessBridge switches the device to accept a wireless
	// connection alongside the wired one
	CmdEnableWirelessBridge CommandKind = "enableWirelessBridge"

	// CmdGetCastingStatus asks the agent whether the casting bundle is
	// installed; answered by an EvCastingStatus event
	CmdGetCastingStatus CommandKind = "getCastingStatus"

	// CmdDownloadCastingBundle starts the casting bundle download and
	// install on the headset
	CmdDownloadCastingBundle CommandKind = "downloadCastingBundle"

	// CmdStartCasting launches the casting feature on the headset
	CmdStartCasting CommandKind = "startCasting"
)

// Command is a single fire-and-forget instruction for the agent.
//
// CorrelationKey is chosen by the sender and echoed verbatim in the
// commandCompleted event for this command, so multiple in-flight commands of
// the same kind can be told apart. (Kind, CorrelationKey) identifies exactly
// one in-flight logical operation; issuing a second command with the same
// pair before completion is a caller error.
type Command struct {
	Kind           CommandKind     `json:"kind"`
	CorrelationKey string          `json:"correlationKey"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// NewToggleCommand builds a command that sets a boolean feature value.
// Used for the proximity sensor and guardian pause toggles.
func NewToggleCommand(kind CommandKind, correlationKey string, value bool) (Command, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return Command{}, fmt.Errorf("failed to encode toggle payload: %w", err)
	}
	return Command{
		Kind:           kind,
		CorrelationKey: correlationKey,
		Payload:        payload,
	}, nil
}

// NewCommand builds a command with no payload.
func NewCommand(kind CommandKind, correlationKey string) Command {
	return Command{
		Kind:           kind,
		CorrelationKey: correlationKey,
	}
}

// Encode serializes the command to its wire form.
func (c Command) Encode() ([]byte, error) {
	if c.Kind == "" {
		return nil, fmt.Errorf("command has no kind")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command %s: %w", c.Kind, err)
	}
	return data, nil
}

// BoolPayload decodes the command payload as a boolean toggle value.
func (c Command) BoolPayload() (bool, error) {
	var v bool
	if err := json.Unmarshal(c.Payload, &v); err != nil {
		return false, fmt.Errorf("command %s payload is not a bool: %w", c.Kind, err)
	}
	return v, nil
}

// String returns a short human-readable description of the command.
func (c Command) String() string {
	if c.CorrelationKey == "" {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s[%s]", c.Kind, c.CorrelationKey)
}

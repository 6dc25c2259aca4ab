package control

import (
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// Dispatcher is the slice of the agent boundary the controllers need.
// Satisfied by *bridge.Bridge.
type Dispatcher interface {
	Send(cmd protocol.Command)
}

// ToggleState is the externally visible state of one feature toggle.
type ToggleState struct {
	// Value is the last confirmed feature value, nil until first known
	Value *bool

	// Updating is true while a command for this feature is in flight.
	// The triggering affordance must be disabled while Updating.
	Updating bool

	// Pending is the requested value while Updating
	Pending bool
}

// Displayed returns the value the UI should show: the optimistic pending
// value while a command is in flight, the confirmed value otherwise.
// The second return is false when no value is known yet.
func (s ToggleState) Displayed() (bool, bool) {
	if s.Updating {
		return s.Pending, true
	}
	if s.Value == nil {
		return false, false
	}
	return *s.Value, true
}

// Toggle guards a single boolean device feature against re-entrant
// commands. It is a two-state machine:
//
//	Idle     -- Request(v) --> Updating(v)   (command sent)
//	Updating -- matching commandCompleted --> Idle(v)  (optimistic confirm)
//
// The completion event carries no value, so the controller adopts the
// requested value on confirm. Out-of-band state pushes overwrite the value
// when Idle and are ignored while Updating, so the optimistic value never
// flickers against a stale report.
//
// If no completion ever arrives the controller stays Updating indefinitely;
// there is deliberately no timeout (commands are owned by the agent once
// sent).
//
// Toggle is not safe for concurrent use; it is owned by the session loop.
type Toggle struct {
	kind       protocol.CommandKind
	key        string
	dispatcher Dispatcher

	value    *bool
	pending  bool
	updating bool
}

// NewToggle creates a controller for one feature. kind is the command
// family (e.g. setGuardianPaused) and key the correlation key echoed by the
// agent in completions.
func NewToggle(kind protocol.CommandKind, key string, d Dispatcher) *Toggle {
	return &Toggle{
		kind:       kind,
		key:        key,
		dispatcher: d,
	}
}

// Key returns the controller's correlation key.
func (t *Toggle) Key() string {
	return t.key
}

// Request asks the agent to set the feature to v. Returns false without
// sending anything when a command is already in flight: at most one
// command per (kind, key) pair may be pending.
func (t *Toggle) Request(v bool) bool {
	if t.updating {
		logging.Debug("Toggle request rejected while updating",
			zap.String("key", t.key),
			zap.Bool("value", v),
		)
		return false
	}

	cmd, err := protocol.NewToggleCommand(t.kind, t.key, v)
	if err != nil {
		logging.Error("Failed to build toggle command",
			zap.String("key", t.key),
			zap.Error(err),
		)
		return false
	}

	t.updating = true
	t.pending = v
	t.dispatcher.Send(cmd)
	return true
}

// HandleCompleted processes a command completion. Events whose (kind, key)
// pair does not match this controller, or that arrive while Idle, are
// ignored. Returns true when the event was consumed.
func (t *Toggle) HandleCompleted(done protocol.CommandCompleted) bool {
	if done.Kind != t.kind || done.CorrelationKey != t.key {
		return false
	}
	if !t.updating {
		logging.LogEventDropped(string(done.Kind), done.CorrelationKey, "controller not updating")
		return false
	}

	v := t.pending
	t.value = &v
	t.updating = false
	return true
}

// HandleStateUpdate processes an out-of-band value report from the device
// state stream. While Updating the report is dropped in favor of the
// optimistic pending value.
func (t *Toggle) HandleStateUpdate(v bool) {
	if t.updating {
		logging.LogEventDropped(string(t.kind), t.key, "ignored while updating")
		return
	}
	t.value = &v
}

// State returns a copy of the controller's visible state.
func (t *Toggle) State() ToggleState {
	var value *bool
	if t.value != nil {
		v := *t.value
		value = &v
	}
	return ToggleState{
		Value:    value,
		Updating: t.updating,
		Pending:  t.pending,
	}
}

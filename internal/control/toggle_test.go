package control

import (
	"testing"

	"github.com/muurk/visorctl/internal/protocol"
)

type fakeDispatcher struct {
	sent []protocol.Command
}

func (f *fakeDispatcher) Send(cmd protocol.Command) {
	f.sent = append(f.sent, cmd)
}

func TestToggle_RequestSendsCommand(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, d)

	if !tog.Request(true) {
		t.Fatal("Request() = false, want true")
	}

	if len(d.sent) != 1 {
		t.Fatalf("sent %d commands, want 1", len(d.sent))
	}
	cmd := d.sent[0]
	if cmd.Kind != protocol.CmdSetGuardianPaused {
		t.Errorf("Kind = %v, want %v", cmd.Kind, protocol.CmdSetGuardianPaused)
	}
	if cmd.CorrelationKey != KeyGuardian {
		t.Errorf("CorrelationKey = %q, want %q", cmd.CorrelationKey, KeyGuardian)
	}
	v, err := cmd.BoolPayload()
	if err != nil || !v {
		t.Errorf("BoolPayload() = %v, %v, want true", v, err)
	}

	st := tog.State()
	if !st.Updating {
		t.Error("State().Updating = false after request")
	}
	if shown, ok := st.Displayed(); !ok || !shown {
		t.Errorf("Displayed() = %v, %v, want optimistic true", shown, ok)
	}
}

func TestToggle_SecondRequestWhileUpdatingIsRejected(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetProximitySensor, KeyProximity, d)

	tog.Request(true)
	if tog.Request(false) {
		t.Error("Request() while updating = true, want false")
	}
	if tog.Request(true) {
		t.Error("repeat Request() while updating = true, want false")
	}

	if len(d.sent) != 1 {
		t.Errorf("sent %d commands, want exactly 1 in flight per (kind, key)", len(d.sent))
	}
}

func TestToggle_CompletionConfirmsRequestedValue(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, d)

	tog.Request(true)

	consumed := tog.HandleCompleted(protocol.CommandCompleted{
		Kind:           protocol.CmdSetGuardianPaused,
		CorrelationKey: KeyGuardian,
	})
	if !consumed {
		t.Fatal("HandleCompleted() = false for matching completion")
	}

	st := tog.State()
	if st.Updating {
		t.Error("still Updating after completion")
	}
	if st.Value == nil || !*st.Value {
		t.Errorf("Value = %v, want confirmed true", st.Value)
	}

	// New requests are allowed again
	if !tog.Request(false) {
		t.Error("Request() after completion = false, want true")
	}
}

func TestToggle_MismatchedCompletionIsIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, d)
	tog.Request(true)

	tests := []struct {
		name string
		done protocol.CommandCompleted
	}{
		{
			name: "wrong kind",
			done: protocol.CommandCompleted{Kind: protocol.CmdSetProximitySensor, CorrelationKey: KeyGuardian},
		},
		{
			name: "wrong key",
			done: protocol.CommandCompleted{Kind: protocol.CmdSetGuardianPaused, CorrelationKey: "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tog.HandleCompleted(tt.done) {
				t.Error("HandleCompleted() = true for mismatched completion")
			}
			if !tog.State().Updating {
				t.Error("mismatched completion changed controller state")
			}
		})
	}
}

func TestToggle_CompletionWhileIdleIsIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, d)

	if tog.HandleCompleted(protocol.CommandCompleted{
		Kind:           protocol.CmdSetGuardianPaused,
		CorrelationKey: KeyGuardian,
	}) {
		t.Error("HandleCompleted() = true while Idle")
	}
	if tog.State().Value != nil {
		t.Error("completion while Idle set a value")
	}
}

func TestToggle_OutOfBandUpdateWhileIdle(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetProximitySensor, KeyProximity, d)

	tog.HandleStateUpdate(true)
	if v, ok := tog.State().Displayed(); !ok || !v {
		t.Errorf("Displayed() = %v, %v after out-of-band true", v, ok)
	}

	tog.HandleStateUpdate(false)
	if v, ok := tog.State().Displayed(); !ok || v {
		t.Errorf("Displayed() = %v, %v after out-of-band false", v, ok)
	}
}

// A stale out-of-band report racing an in-flight request must not override
// the optimistic pending value; the completion confirms it afterwards.
func TestToggle_OutOfBandUpdateIgnoredWhileUpdating(t *testing.T) {
	d := &fakeDispatcher{}
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, d)

	tog.HandleStateUpdate(false) // Idle(false)
	tog.Request(true)            // Updating(true)

	tog.HandleStateUpdate(false) // stale report

	if v, ok := tog.State().Displayed(); !ok || !v {
		t.Errorf("Displayed() = %v, %v, want optimistic true despite stale report", v, ok)
	}

	tog.HandleCompleted(protocol.CommandCompleted{
		Kind:           protocol.CmdSetGuardianPaused,
		CorrelationKey: KeyGuardian,
	})

	st := tog.State()
	if st.Value == nil || !*st.Value {
		t.Errorf("Value = %v, want true confirmed by completion", st.Value)
	}
}

func TestToggle_NoValueKnownInitially(t *testing.T) {
	tog := NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, &fakeDispatcher{})

	st := tog.State()
	if st.Value != nil {
		t.Errorf("initial Value = %v, want nil", st.Value)
	}
	if _, ok := st.Displayed(); ok {
		t.Error("Displayed() ok = true before any value is known")
	}
}

func TestMonitor_FirstFailureWins(t *testing.T) {
	m := NewMonitor()

	if m.Failed() {
		t.Fatal("new monitor reports failed")
	}

	m.HandleFatal(protocol.FatalFailure{Message: "agent wedged"})
	if !m.Failed() {
		t.Fatal("Failed() = false after fatal event")
	}
	if m.Message() != "agent wedged" {
		t.Errorf("Message() = %q, want %q", m.Message(), "agent wedged")
	}

	m.HandleFatal(protocol.FatalFailure{Message: "second failure"})
	if m.Message() != "agent wedged" {
		t.Errorf("Message() = %q, first failure must be kept", m.Message())
	}
}

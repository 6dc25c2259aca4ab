package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewToggleCommand(t *testing.T) {
	tests := []struct {
		name  string
		kind  CommandKind
		key   string
		value bool
	}{
		{
			name:  "pause guardian",
			kind:  CmdSetGuardianPaused,
			key:   "guardian",
			value: true,
		},
		{
			name:  "enable proximity sensor",
			kind:  CmdSetProximitySensor,
			key:   "proximity",
			value: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewToggleCommand(tt.kind, tt.key, tt.value)
			if err != nil {
				t.Fatalf("NewToggleCommand() error = %v", err)
			}

			if cmd.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", cmd.Kind, tt.kind)
			}
			if cmd.CorrelationKey != tt.key {
				t.Errorf("CorrelationKey = %v, want %v", cmd.CorrelationKey, tt.key)
			}

			got, err := cmd.BoolPayload()
			if err != nil {
				t.Fatalf("BoolPayload() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("BoolPayload() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestCommand_EncodeRoundTrip(t *testing.T) {
	cmd, err := NewToggleCommand(CmdSetGuardianPaused, "guardian", true)
	if err != nil {
		t.Fatalf("NewToggleCommand() error = %v", err)
	}

	data, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded Command
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding wire form: %v", err)
	}

	if decoded.Kind != CmdSetGuardianPaused {
		t.Errorf("decoded Kind = %v, want %v", decoded.Kind, CmdSetGuardianPaused)
	}
	if decoded.CorrelationKey != "guardian" {
		t.Errorf("decoded CorrelationKey = %v, want guardian", decoded.CorrelationKey)
	}
}

func TestCommand_EncodeRejectsEmptyKind(t *testing.T) {
	cmd := Command{CorrelationKey: "x"}
	if _, err := cmd.Encode(); err == nil {
		t.Error("Encode() with empty kind should fail")
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{
			name:     "with correlation key",
			cmd:      NewCommand(CmdStartCasting, "casting"),
			expected: "startCasting[casting]",
		},
		{
			name:     "without correlation key",
			cmd:      Command{Kind: CmdGetCastingStatus},
			expected: "getCastingStatus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

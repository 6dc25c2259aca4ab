package devices

import "testing"

func TestDescriptor_String(t *testing.T) {
	d := Descriptor{
		Serial:     "1WMHH812345678",
		TrueSerial: "1WMHH812345678",
		Transport:  TransportWired,
		State:      StateDevice,
	}

	expected := "1WMHH812345678 (wired, device)"
	if d.String() != expected {
		t.Errorf("Descriptor.String() = %v, want %v", d.String(), expected)
	}
}

func TestDescriptor_Connected(t *testing.T) {
	tests := []struct {
		name     string
		state    ConnState
		expected bool
	}{
		{
			name:     "authorized device",
			state:    StateDevice,
			expected: true,
		},
		{
			name:     "offline",
			state:    StateOffline,
			expected: false,
		},
		{
			name:     "unauthorized",
			state:    StateUnauthorized,
			expected: false,
		},
		{
			name:     "unknown",
			state:    StateUnknown,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Descriptor{Serial: "x", State: tt.state}
			if got := d.Connected(); got != tt.expected {
				t.Errorf("Connected() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDescriptor_SamePhysical(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Descriptor
		expected bool
	}{
		{
			name:     "same hardware serial across transports",
			a:        Descriptor{Serial: "1WMHH8", TrueSerial: "1WMHH8", Transport: TransportWired},
			b:        Descriptor{Serial: "10.0.0.9:5555", TrueSerial: "1WMHH8", Transport: TransportWireless},
			expected: true,
		},
		{
			name:     "different hardware serial",
			a:        Descriptor{Serial: "1WMHH8", TrueSerial: "1WMHH8"},
			b:        Descriptor{Serial: "1WMHH9", TrueSerial: "1WMHH9"},
			expected: false,
		},
		{
			name:     "empty true serials never match",
			a:        Descriptor{Serial: "a"},
			b:        Descriptor{Serial: "b"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SamePhysical(tt.b); got != tt.expected {
				t.Errorf("SamePhysical() = %v, want %v", got, tt.expected)
			}
		})
	}
}

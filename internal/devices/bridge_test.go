package devices

import (
	"math/rand"
	"testing"
)

func TestShouldOfferWirelessBridge(t *testing.T) {
	wired := Descriptor{
		Serial:     "1WMHH812345678",
		TrueSerial: "1WMHH812345678",
		Transport:  TransportWired,
		State:      StateDevice,
	}

	tests := []struct {
		name     string
		current  Descriptor
		all      []Descriptor
		expected bool
	}{
		{
			name:     "wired device alone",
			current:  wired,
			all:      []Descriptor{wired},
			expected: true,
		},
		{
			name:    "authorized wireless peer exists",
			current: wired,
			all: []Descriptor{
				wired,
				{Serial: "10.0.0.9:5555", TrueSerial: "1WMHH812345678", Transport: TransportWireless, State: StateDevice},
			},
			expected: false,
		},
		{
			name:    "unauthorized wireless peer does not suppress",
			current: wired,
			all: []Descriptor{
				wired,
				{Serial: "10.0.0.9:5555", TrueSerial: "1WMHH812345678", Transport: TransportWireless, State: StateUnauthorized},
			},
			expected: true,
		},
		{
			name:    "offline wireless peer does not suppress",
			current: wired,
			all: []Descriptor{
				wired,
				{Serial: "10.0.0.9:5555", TrueSerial: "1WMHH812345678", Transport: TransportWireless, State: StateOffline},
			},
			expected: true,
		},
		{
			name:    "wireless peer of a different headset does not suppress",
			current: wired,
			all: []Descriptor{
				wired,
				{Serial: "10.0.0.7:5555", TrueSerial: "1WMHH899999999", Transport: TransportWireless, State: StateDevice},
			},
			expected: true,
		},
		{
			name:     "current device already wireless",
			current:  Descriptor{Serial: "10.0.0.9:5555", TrueSerial: "1WMHH812345678", Transport: TransportWireless, State: StateDevice},
			all:      []Descriptor{wired},
			expected: false,
		},
		{
			name:     "current device offline",
			current:  Descriptor{Serial: "1WMHH812345678", TrueSerial: "1WMHH812345678", Transport: TransportWired, State: StateOffline},
			all:      []Descriptor{wired},
			expected: false,
		},
		{
			name:     "current device unauthorized",
			current:  Descriptor{Serial: "1WMHH812345678", TrueSerial: "1WMHH812345678", Transport: TransportWired, State: StateUnauthorized},
			all:      []Descriptor{wired},
			expected: false,
		},
		{
			name:     "empty device list",
			current:  wired,
			all:      nil,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldOfferWirelessBridge(tt.current, tt.all); got != tt.expected {
				t.Errorf("ShouldOfferWirelessBridge() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestShouldOfferWirelessBridge_Generated checks the suppression rule across
// randomly generated device lists: the offer must be false exactly when the
// list contains an authorized wireless entry for the current headset (given
// a connected, wired current device).
func TestShouldOfferWirelessBridge_Generated(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	serials := []string{"HW-A", "HW-B", "HW-C"}
	transports := []Transport{TransportWired, TransportWireless}
	states := []ConnState{StateOffline, StateUnauthorized, StateDevice, StateUnknown}

	current := Descriptor{
		Serial:     "HW-A",
		TrueSerial: "HW-A",
		Transport:  TransportWired,
		State:      StateDevice,
	}

	for i := 0; i < 500; i++ {
		n := rng.Intn(6)
		list := make([]Descriptor, n)
		for j := range list {
			ts := serials[rng.Intn(len(serials))]
			list[j] = Descriptor{
				Serial:     ts,
				TrueSerial: ts,
				Transport:  transports[rng.Intn(len(transports))],
				State:      states[rng.Intn(len(states))],
			}
		}

		suppressed := false
		for _, d := range list {
			if d.Transport == TransportWireless && d.TrueSerial == current.TrueSerial && d.State == StateDevice {
				suppressed = true
			}
		}

		got := ShouldOfferWirelessBridge(current, list)
		if got == suppressed {
			t.Fatalf("iteration %d: ShouldOfferWirelessBridge() = %v with list %v", i, got, list)
		}
	}
}

func TestTracker_UpdateAndSelect(t *testing.T) {
	tr := NewTracker()

	if tr.Current() != nil {
		t.Error("empty tracker should have no current device")
	}

	wired := Descriptor{Serial: "HW-A", TrueSerial: "HW-A", Transport: TransportWired, State: StateDevice}
	offline := Descriptor{Serial: "HW-B", TrueSerial: "HW-B", Transport: TransportWired, State: StateOffline}

	// Single connected device is auto-selected
	tr.Update([]Descriptor{wired, offline})
	cur := tr.Current()
	if cur == nil || cur.Serial != "HW-A" {
		t.Fatalf("Current() = %v, want auto-selected HW-A", cur)
	}

	// Selection survives updates that still contain the serial
	tr.Update([]Descriptor{offline, wired})
	if cur := tr.Current(); cur == nil || cur.Serial != "HW-A" {
		t.Errorf("Current() after update = %v, want HW-A", cur)
	}

	// Selection is cleared when the serial disappears
	tr.Update([]Descriptor{offline})
	if cur := tr.Current(); cur != nil {
		t.Errorf("Current() after removal = %v, want nil", cur)
	}
}

func TestTracker_SelectUnknownSerial(t *testing.T) {
	tr := NewTracker()
	tr.Update([]Descriptor{{Serial: "HW-A", TrueSerial: "HW-A", State: StateDevice}})

	if tr.Select("HW-MISSING") {
		t.Error("Select() on unknown serial should return false")
	}
	if cur := tr.Current(); cur == nil || cur.Serial != "HW-A" {
		t.Errorf("selection changed by failed Select(), Current() = %v", cur)
	}
}

func TestTracker_NoAutoSelectWithTwoConnected(t *testing.T) {
	tr := NewTracker()
	tr.Update([]Descriptor{
		{Serial: "HW-A", TrueSerial: "HW-A", State: StateDevice},
		{Serial: "HW-B", TrueSerial: "HW-B", State: StateDevice},
	})

	if cur := tr.Current(); cur != nil {
		t.Errorf("Current() = %v, want nil when two devices are connected", cur)
	}

	if !tr.Select("HW-B") {
		t.Fatal("Select(HW-B) should succeed")
	}
	if cur := tr.Current(); cur == nil || cur.Serial != "HW-B" {
		t.Errorf("Current() = %v, want HW-B", cur)
	}
}

func TestTracker_OfferWirelessBridge(t *testing.T) {
	tr := NewTracker()

	wired := Descriptor{Serial: "HW-A", TrueSerial: "HW-A", Transport: TransportWired, State: StateDevice}
	tr.Update([]Descriptor{wired})

	if !tr.OfferWirelessBridge() {
		t.Error("OfferWirelessBridge() = false, want true for lone wired device")
	}

	wireless := Descriptor{Serial: "10.0.0.9:5555", TrueSerial: "HW-A", Transport: TransportWireless, State: StateDevice}
	tr.Update([]Descriptor{wired, wireless})

	if tr.OfferWirelessBridge() {
		t.Error("OfferWirelessBridge() = true, want false once wireless peer is authorized")
	}
}

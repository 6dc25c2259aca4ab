package devices

import "fmt"

// Transport identifies how a device connection is carried.
type Transport string

const (
	// TransportWired is a USB-attached connection
	TransportWired Transport = "wired"

	// TransportWireless is a TCP connection over the wireless bridge
	TransportWireless Transport = "wireless"
)

// ConnState represents the connection state reported by the agent for a
// single device entry. The values mirror the agent's device-list output.
type ConnState string

const (
	// StateOffline means the entry is known but not reachable
	StateOffline ConnState = "offline"

	// StateUnauthorized means the device is reachable but the operator has
	// not accepted the connection prompt on the headset yet
	StateUnauthorized ConnState = "unauthorized"

	// StateDevice means the connection is fully authorized and usable
	StateDevice ConnState = "device"

	// StateUnknown covers states this tool does not act on
	StateUnknown ConnState = "unknown"
)

// Descriptor describes one device entry in the agent's device list.
//
// A single physical headset can appear twice: once for its wired connection
// and once for its wireless bridge connection. The two entries carry
// different Serial values (the wireless one encodes an address) but share
// the same TrueSerial.
type Descriptor struct {
	// Serial is the transport-specific identifier the agent uses to address
	// this entry (e.g., "1WMHH812345678" or "192.168.1.24:5555")
	Serial string `json:"serial"`

	// TrueSerial is the transport-independent hardware serial. Two entries
	// with equal TrueSerial are the same physical device.
	TrueSerial string `json:"trueSerial"`

	// Transport is how this entry is connected
	Transport Transport `json:"transport"`

	// State is the entry's connection state
	State ConnState `json:"state"`
}

// String returns a human-readable string representation of the device entry
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s, %s)", d.Serial, d.Transport, d.State)
}

// Connected reports whether this entry is fully authorized and usable.
// Offline and unauthorized entries cannot accept commands.
func (d Descriptor) Connected() bool {
	return d.State == StateDevice
}

// SamePhysical reports whether two entries refer to the same physical
// headset, regardless of transport.
func (d Descriptor) SamePhysical(other Descriptor) bool {
	return d.TrueSerial != "" && d.TrueSerial == other.TrueSerial
}

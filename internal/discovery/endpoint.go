package discovery

import (
	"fmt"
	"net"
	"time"
)

// Endpoint represents a headset wireless bridge endpoint found on the network
type Endpoint struct {
	// TrueSerial is the headset hardware serial (e.g., "1WMHH812X90001")
	TrueSerial string

	// Hostname is the mDNS hostname (e.g., "visor-1WMHH812X90001.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.42")
	IP string

	// Port is the bridge port (typically 5555)
	Port int

	// Metadata contains additional mDNS TXT record data
	// Common fields: "model=visor2", "fw=57.0"
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("Visor %s (%s) at %s:%d", e.TrueSerial, e.Hostname, e.IP, e.Port)
}

// Address returns the host:port address to hand to the agent when connecting
// to the headset over the network.
func (e *Endpoint) Address() string {
	return net.JoinHostPort(e.IP, fmt.Sprintf("%d", e.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}

package discovery

import (
	"testing"
	"time"
)

func TestEndpoint_String(t *testing.T) {
	endpoint := &Endpoint{
		TrueSerial: "1WMHH812X90001",
		Hostname:   "visor-1WMHH812X90001.local",
		IP:         "192.168.1.42",
		Port:       5555,
	}

	expected := "Visor 1WMHH812X90001 (visor-1WMHH812X90001.local) at 192.168.1.42:5555"
	if endpoint.String() != expected {
		t.Errorf("Endpoint.String() = %v, want %v", endpoint.String(), expected)
	}
}

func TestEndpoint_Address(t *testing.T) {
	tests := []struct {
		name     string
		endpoint *Endpoint
		expected string
	}{
		{
			name: "standard bridge port",
			endpoint: &Endpoint{
				IP:   "192.168.1.42",
				Port: 5555,
			},
			expected: "192.168.1.42:5555",
		},
		{
			name: "custom port",
			endpoint: &Endpoint{
				IP:   "10.0.0.5",
				Port: 5556,
			},
			expected: "10.0.0.5:5556",
		},
		{
			name: "IPv6 address is bracketed",
			endpoint: &Endpoint{
				IP:   "fe80::1",
				Port: 5555,
			},
			expected: "[fe80::1]:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.endpoint.Address(); got != tt.expected {
				t.Errorf("Endpoint.Address() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEndpoint_GetMetadata(t *testing.T) {
	endpoint := &Endpoint{
		Metadata: map[string]string{
			"model": "visor2",
			"fw":    "57.0",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "existing key",
			key:      "model",
			expected: "visor2",
		},
		{
			name:     "another existing key",
			key:      "fw",
			expected: "57.0",
		},
		{
			name:     "non-existent key",
			key:      "missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := endpoint.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Endpoint.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestEndpoint_GetMetadata_NilMap(t *testing.T) {
	endpoint := &Endpoint{
		Metadata: nil,
	}

	if got := endpoint.GetMetadata("anything"); got != "" {
		t.Errorf("Endpoint.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestEndpoint_DiscoveredAt(t *testing.T) {
	now := time.Now()
	endpoint := &Endpoint{
		TrueSerial:   "1WMHH812X90001",
		DiscoveredAt: now,
	}

	if endpoint.DiscoveredAt != now {
		t.Errorf("Endpoint.DiscoveredAt = %v, want %v", endpoint.DiscoveredAt, now)
	}
}

package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name       string
		entry      *zeroconf.ServiceEntry
		wantNil    bool
		wantSerial string
		wantIP     string
		wantPort   int
	}{
		{
			name: "valid headset with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90001.local.",
				Port:     5555,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.42")},
				Text:     []string{"model=visor2", "fw=57.0"},
			},
			wantNil:    false,
			wantSerial: "1WMHH812X90001",
			wantIP:     "192.168.1.42",
			wantPort:   5555,
		},
		{
			name: "valid headset without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90002.local",
				Port:     5555,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{},
			},
			wantNil:    false,
			wantSerial: "1WMHH812X90002",
			wantIP:     "10.0.0.5",
			wantPort:   5555,
		},
		{
			name: "valid headset with custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-9KQRR455Y10003.local",
				Port:     5556,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantNil:    false,
			wantSerial: "9KQRR455Y10003",
			wantIP:     "192.168.1.100",
			wantPort:   5556,
		},
		{
			name: "no port specified (should default to 5555)",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90004.local",
				Port:     0,
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:    false,
			wantSerial: "1WMHH812X90004",
			wantIP:     "172.16.0.1",
			wantPort:   5555,
		},
		{
			name: "unrelated device (wrong hostname pattern)",
			entry: &zeroconf.ServiceEntry{
				HostName: "someotherdevice.local",
				Port:     5555,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "",
				Port:     5555,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90001.local",
				Port:     5555,
				AddrIPv4: []net.IP{},
				AddrIPv6: []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only headset",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90005.local",
				Port:     5555,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:    false,
			wantSerial: "1WMHH812X90005",
			wantIP:     "fe80::1",
			wantPort:   5555,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				HostName: "visor-1WMHH812X90006.local",
				Port:     5555,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:    false,
			wantSerial: "1WMHH812X90006",
			wantIP:     "192.168.1.50",
			wantPort:   5555,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if endpoint != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", endpoint)
				}
				return
			}

			if endpoint == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil endpoint")
			}

			if endpoint.TrueSerial != tt.wantSerial {
				t.Errorf("endpoint.TrueSerial = %v, want %v", endpoint.TrueSerial, tt.wantSerial)
			}

			if endpoint.IP != tt.wantIP {
				t.Errorf("endpoint.IP = %v, want %v", endpoint.IP, tt.wantIP)
			}

			if endpoint.Port != tt.wantPort {
				t.Errorf("endpoint.Port = %v, want %v", endpoint.Port, tt.wantPort)
			}

			if endpoint.Hostname != tt.entry.HostName {
				t.Errorf("endpoint.Hostname = %v, want %v", endpoint.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(endpoint.DiscoveredAt) > time.Second {
				t.Errorf("endpoint.DiscoveredAt is not recent: %v", endpoint.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		HostName: "visor-1WMHH812X90001.local",
		Port:     5555,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.42")},
		Text:     []string{"model=visor2", "fw=57.0", "flag", "channel=stable"},
	}

	endpoint := scanner.parseServiceEntry(entry)
	if endpoint == nil {
		t.Fatal("parseServiceEntry() = nil, want endpoint")
	}

	expectedMetadata := map[string]string{
		"model":   "visor2",
		"fw":      "57.0",
		"flag":    "", // Key without value
		"channel": "stable",
	}

	if len(endpoint.Metadata) != len(expectedMetadata) {
		t.Errorf("endpoint.Metadata has %d entries, want %d", len(endpoint.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := endpoint.Metadata[key]; !ok {
			t.Errorf("endpoint.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("endpoint.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestHostnamePattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
		serial      string
	}{
		{"visor-1WMHH812X90001.local", true, "1WMHH812X90001"},
		{"visor-1WMHH812X90001.local.", true, "1WMHH812X90001"},
		{"visor-9KQRR455Y10003.local", true, "9KQRR455Y10003"},
		{"visor-1.local", true, "1"},
		{"visor-1wmhh812x90001.local", false, ""}, // lowercase serial
		{"visor-.local", false, ""},               // no serial
		{"Visor-1WMHH812X90001.local", false, ""}, // wrong prefix case
		{"somedevice.local", false, ""},           // wrong prefix
		{"visor-1WMHH812X90001", false, ""},       // missing .local
		{"", false, ""},                           // empty
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			matches := hostnamePattern.FindStringSubmatch(tt.hostname)

			if tt.shouldMatch {
				if matches == nil || len(matches) < 2 {
					t.Errorf("hostnamePattern did not match %q", tt.hostname)
				} else if matches[1] != tt.serial {
					t.Errorf("hostnamePattern matched %q with serial %q, want %q", tt.hostname, matches[1], tt.serial)
				}
			} else {
				if matches != nil {
					t.Errorf("hostnamePattern matched %q, want no match", tt.hostname)
				}
			}
		})
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and multicast support; they are not part of the default test run.

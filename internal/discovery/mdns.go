package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type headsets advertise once their
	// wireless bridge is enabled
	ServiceType = "_visor-bridge._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for endpoint discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default wireless bridge port
	DefaultPort = 5555
)

// hostnamePattern matches headset hostnames (e.g., "visor-1WMHH812X90001.local")
var hostnamePattern = regexp.MustCompile(`^visor-([0-9A-Z]+)\.local\.?$`)

// Scanner handles mDNS endpoint discovery
type Scanner struct {
	// Timeout is the maximum time to wait for endpoint discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForEndpoints discovers all headset bridge endpoints on the local network
// Returns a list of discovered endpoints or an error
func (s *Scanner) ScanForEndpoints() ([]*Endpoint, error) {
	return s.ScanForEndpointsWithContext(context.Background())
}

// ScanForEndpointsWithContext discovers endpoints with a custom context
func (s *Scanner) ScanForEndpointsWithContext(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	endpoints := make([]*Endpoint, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine while the resolver browses
	go func() {
		for entry := range entries {
			endpoint := s.parseServiceEntry(entry)
			if endpoint != nil {
				endpoints = append(endpoints, endpoint)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	return endpoints, nil
}

// WaitForEndpoint waits for a specific headset by true serial
// Returns the endpoint or an error if not found within timeout
func (s *Scanner) WaitForEndpoint(trueSerial string) (*Endpoint, error) {
	return s.WaitForEndpointWithContext(context.Background(), trueSerial)
}

// WaitForEndpointWithContext waits for a specific headset with a custom context
func (s *Scanner) WaitForEndpointWithContext(ctx context.Context, trueSerial string) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	endpointChan := make(chan *Endpoint, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			endpoint := s.parseServiceEntry(entry)
			if endpoint != nil && endpoint.TrueSerial == trueSerial {
				endpointChan <- endpoint
				cancel() // Found the headset, stop browsing
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case endpoint := <-endpointChan:
		return endpoint, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("headset with serial %s not found within timeout", trueSerial)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint
// Returns nil if the entry is not a headset bridge advertisement
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := hostnamePattern.FindStringSubmatch(hostname)
	if len(matches) < 2 {
		return nil
	}

	trueSerial := matches[1]

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get port (default to the standard bridge port if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Endpoint{
		TrueSerial:   trueSerial,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForEndpoints is a convenience function to scan with a custom timeout
func ScanForEndpoints(timeout time.Duration) ([]*Endpoint, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForEndpoints()
}

// FindEndpoint searches for a specific headset by true serial with default timeout
func FindEndpoint(trueSerial string) (*Endpoint, error) {
	scanner := NewScanner()
	return scanner.WaitForEndpoint(trueSerial)
}

// Package discovery locates headset wireless bridge endpoints via mDNS.
//
// Once a headset's wireless bridge has been enabled by the agent, the
// headset advertises a "_visor-bridge._tcp" service on the local network.
// This package browses for those advertisements and resolves them into
// connectable host:port addresses.
//
// # Discovery Process
//
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for "_visor-bridge._tcp" service advertisements
//  3. Filters responses by the "visor-{serial}.local" hostname pattern
//  4. Collects endpoint information (hostname, IP, port, TXT metadata)
//  5. Returns discovered endpoints after the timeout period
//
// # Usage Example
//
//	// Discover endpoints with 10-second timeout
//	endpoints, err := discovery.ScanForEndpoints(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, ep := range endpoints {
//	    fmt.Printf("Found: %s at %s\n", ep.TrueSerial, ep.Address())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Headsets must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery

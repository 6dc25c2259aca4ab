// Package devices models the agent's device list for visorctl.
//
// The agent reports every connection it knows about as a separate entry, so
// a headset reachable over both USB and the wireless bridge shows up twice.
// Entries are correlated through TrueSerial, the transport-independent
// hardware serial.
//
// # Wireless Bridge Offer
//
// ShouldOfferWirelessBridge implements the dedup rule for the "go wireless"
// affordance: never offer a second bridge for a headset that already has an
// authorized wireless entry, and never offer one for a device that is not
// itself usable:
//
//	offer := devices.ShouldOfferWirelessBridge(current, all)
//
// # Snapshot Tracking
//
// Tracker keeps the latest device-list snapshot pushed by the agent plus the
// operator's selection. It is owned by the session event loop and is not
// safe for concurrent use.
package devices

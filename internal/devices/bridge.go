package devices

// ShouldOfferWirelessBridge decides whether the UI should offer to bridge the
// current device to the wireless transport.
//
// The offer is suppressed when:
//   - the current device is not fully connected (offline or unauthorized
//     entries cannot run the bridge setup commands), or
//   - the current device is already on the wireless transport, or
//   - the device list already contains an authorized wireless entry for the
//     same physical headset.
//
// Only a wireless peer in the fully-authorized "device" state suppresses the
// offer. A pending or unauthorized wireless entry does not count: it cannot
// be used yet, so offering to (re)create the bridge is still the right call.
func ShouldOfferWirelessBridge(current Descriptor, all []Descriptor) bool {
	if !current.Connected() {
		return false
	}
	if current.Transport == TransportWireless {
		return false
	}
	for _, d := range all {
		if d.Transport == TransportWireless && d.SamePhysical(current) && d.State == StateDevice {
			return false
		}
	}
	return true
}

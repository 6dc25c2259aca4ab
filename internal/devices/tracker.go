package devices

// Tracker maintains the latest device-list snapshot pushed by the agent and
// the operator's current device selection.
//
// Tracker is not safe for concurrent use; it is owned by the single event
// loop that consumes device-list-changed events.
type Tracker struct {
	devices  []Descriptor
	selected string
}

// NewTracker creates an empty tracker with no snapshot and no selection.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update replaces the tracked snapshot with a new device list.
//
// If the previously selected serial disappeared from the list, the selection
// is cleared. If nothing is selected and exactly one connected device is
// present, it becomes the selection, so the common single-headset setup
// needs no explicit select step.
func (t *Tracker) Update(list []Descriptor) {
	t.devices = make([]Descriptor, len(list))
	copy(t.devices, list)

	if t.selected != "" && t.find(t.selected) == nil {
		t.selected = ""
	}
	if t.selected == "" {
		if only := t.onlyConnected(); only != nil {
			t.selected = only.Serial
		}
	}
}

// Snapshot returns a copy of the current device list.
func (t *Tracker) Snapshot() []Descriptor {
	out := make([]Descriptor, len(t.devices))
	copy(out, t.devices)
	return out
}

// Select marks the device with the given serial as current.
// Returns false if no such serial exists in the snapshot.
func (t *Tracker) Select(serial string) bool {
	if t.find(serial) == nil {
		return false
	}
	t.selected = serial
	return true
}

// Current returns the currently selected device entry, or nil if there is
// no usable selection.
func (t *Tracker) Current() *Descriptor {
	return t.find(t.selected)
}

// OfferWirelessBridge reports whether the bridge affordance should be shown
// for the current selection.
func (t *Tracker) OfferWirelessBridge() bool {
	cur := t.Current()
	if cur == nil {
		return false
	}
	return ShouldOfferWirelessBridge(*cur, t.devices)
}

func (t *Tracker) find(serial string) *Descriptor {
	if serial == "" {
		return nil
	}
	for i := range t.devices {
		if t.devices[i].Serial == serial {
			return &t.devices[i]
		}
	}
	return nil
}

func (t *Tracker) onlyConnected() *Descriptor {
	var found *Descriptor
	for i := range t.devices {
		if !t.devices[i].Connected() {
			continue
		}
		if found != nil {
			return nil
		}
		found = &t.devices[i]
	}
	return found
}

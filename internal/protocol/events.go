package protocol

import (
	"github.com/muurk/visorctl/internal/devices"
)

// EventKind identifies the type of an inbound agent event.
type EventKind string

const (
	// EvCommandCompleted acknowledges that the command tagged with the
	// event's (kind, correlationKey) pair has finished
	EvCommandCompleted EventKind = "commandCompleted"

	// EvDeviceListChanged carries a full device-list snapshot
	EvDeviceListChanged EventKind = "deviceListChanged"

	// EvCastingStatus reports whether the casting bundle is installed
	EvCastingStatus EventKind = "castingStatus"

	// EvCastingDownloadProgress reports casting bundle download progress
	EvCastingDownloadProgress EventKind = "castingDownloadProgress"

	// EvFeatureState carries a backend-pushed current value for one
	// togglable feature, independent of any command
	EvFeatureState EventKind = "featureState"

	// EvFatalFailure signals that the agent is in an unrecoverable state
	EvFatalFailure EventKind = "fatalFailure"
)

// CommandCompleted is the payload of an EvCommandCompleted event. It carries
// no result value; success/failure detail, where it exists, arrives through
// a feature-specific status event.
type CommandCompleted struct {
	Kind           CommandKind `json:"kind"`
	CorrelationKey string      `json:"correlationKey"`
}

// DeviceListChanged is the payload of an EvDeviceListChanged event.
type DeviceListChanged struct {
	Devices []devices.Descriptor `json:"devices"`
}

// CastingStatus is the payload of an EvCastingStatus event.
//
// Installed is a pointer because the status is unknown until the agent has
// actually checked the headset; a nil value means "not yet determined".
type CastingStatus struct {
	Installed *bool `json:"installed"`
}

// IsInstalled reports whether the casting bundle is known to be installed.
func (s CastingStatus) IsInstalled() bool {
	return s.Installed != nil && *s.Installed
}

// CastingDownloadProgress is the payload of an EvCastingDownloadProgress
// event. Total is nil when the agent does not know the bundle size, in which
// case progress is indeterminate.
type CastingDownloadProgress struct {
	Received uint64  `json:"received"`
	Total    *uint64 `json:"total"`
}

// Percent returns the download percentage in [0,100] and true, or 0 and
// false when progress is indeterminate (total absent or zero).
func (p CastingDownloadProgress) Percent() (int, bool) {
	if p.Total == nil || *p.Total == 0 {
		return 0, false
	}
	pct := int((float64(p.Received)/float64(*p.Total))*100 + 0.5)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// FeatureState is the payload of an EvFeatureState event: the device's
// current value for the feature identified by Key. Key matches the
// correlation key the toggles use (e.g. "guardian", "proximity").
type FeatureState struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// FatalFailure is the payload of an EvFatalFailure event.
type FatalFailure struct {
	Message string `json:"message"`
}

package protocol

import (
	"encoding/json"
	"fmt"
)

// Event is the parsed envelope of one inbound agent message. The payload is
// left raw until a typed accessor decodes it, so the event bus can fan out
// envelopes without knowing every payload shape.
type Event struct {
	Kind           EventKind       `json:"kind"`
	CorrelationKey string          `json:"correlationKey,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// ParseEvent decodes one wire message into an event envelope.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Kind == "" {
		return nil, fmt.Errorf("event has no kind")
	}
	return &ev, nil
}

// CommandCompleted decodes the event as a command completion.
func (e *Event) CommandCompleted() (CommandCompleted, error) {
	if e.Kind != EvCommandCompleted {
		return CommandCompleted{}, fmt.Errorf("event is %s, not %s", e.Kind, EvCommandCompleted)
	}
	var c CommandCompleted
	if err := json.Unmarshal(e.Payload, &c); err != nil {
		return CommandCompleted{}, fmt.Errorf("bad commandCompleted payload: %w", err)
	}
	// The envelope key wins when the payload omits its own copy.
	if c.CorrelationKey == "" {
		c.CorrelationKey = e.CorrelationKey
	}
	return c, nil
}

// DeviceList decodes the event as a device-list snapshot.
func (e *Event) DeviceList() (DeviceListChanged, error) {
	if e.Kind != EvDeviceListChanged {
		return DeviceListChanged{}, fmt.Errorf("event is %s, not %s", e.Kind, EvDeviceListChanged)
	}
	var d DeviceListChanged
	if err := json.Unmarshal(e.Payload, &d); err != nil {
		return DeviceListChanged{}, fmt.Errorf("bad deviceListChanged payload: %w", err)
	}
	return d, nil
}

// CastingStatus decodes the event as a casting status report.
func (e *Event) CastingStatus() (CastingStatus, error) {
	if e.Kind != EvCastingStatus {
		return CastingStatus{}, fmt.Errorf("event is %s, not %s", e.Kind, EvCastingStatus)
	}
	var s CastingStatus
	if err := json.Unmarshal(e.Payload, &s); err != nil {
		return CastingStatus{}, fmt.Errorf("bad castingStatus payload: %w", err)
	}
	return s, nil
}

// DownloadProgress decodes the event as a casting download progress report.
func (e *Event) DownloadProgress() (CastingDownloadProgress, error) {
	if e.Kind != EvCastingDownloadProgress {
		return CastingDownloadProgress{}, fmt.Errorf("event is %s, not %s", e.Kind, EvCastingDownloadProgress)
	}
	var p CastingDownloadProgress
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return CastingDownloadProgress{}, fmt.Errorf("bad castingDownloadProgress payload: %w", err)
	}
	return p, nil
}

// FeatureState decodes the event as a backend-pushed feature value.
func (e *Event) FeatureState() (FeatureState, error) {
	if e.Kind != EvFeatureState {
		return FeatureState{}, fmt.Errorf("event is %s, not %s", e.Kind, EvFeatureState)
	}
	var f FeatureState
	if err := json.Unmarshal(e.Payload, &f); err != nil {
		return FeatureState{}, fmt.Errorf("bad featureState payload: %w", err)
	}
	if f.Key == "" {
		f.Key = e.CorrelationKey
	}
	return f, nil
}

// FatalFailure decodes the event as a fatal agent failure.
func (e *Event) FatalFailure() (FatalFailure, error) {
	if e.Kind != EvFatalFailure {
		return FatalFailure{}, fmt.Errorf("event is %s, not %s", e.Kind, EvFatalFailure)
	}
	var f FatalFailure
	if err := json.Unmarshal(e.Payload, &f); err != nil {
		return FatalFailure{}, fmt.Errorf("bad fatalFailure payload: %w", err)
	}
	return f, nil
}

// NewEvent builds an event envelope from a typed payload. Used by tests and
// by agent fakes; the production inbound path goes through ParseEvent.
func NewEvent(kind EventKind, correlationKey string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
		}
		raw = data
	}
	return &Event{
		Kind:           kind,
		CorrelationKey: correlationKey,
		Payload:        raw,
	}, nil
}

package config

import "time"

// DefaultAgentEndpoint is where the privileged agent listens when it is
// started with stock settings.
const DefaultAgentEndpoint = "ws://127.0.0.1:8815/channel"

// Registry represents the entire user configuration file.
// This stores the agent endpoint, known headsets, and application
// preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Agent       *AgentConfig        `yaml:"agent,omitempty"`
	Headsets    map[string]*Headset `yaml:"headsets,omitempty"` // Keyed by true serial
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// AgentConfig describes how to reach the privileged agent process.
type AgentConfig struct {
	Endpoint string `yaml:"endpoint"` // WebSocket endpoint (e.g. "ws://127.0.0.1:8815/channel")
}

// Headset represents user-defined metadata for a single headset.
// This is keyed by the headset's true (hardware) serial in the Registry.
type Headset struct {
	Nickname     string    `yaml:"nickname,omitempty"`      // User-friendly name
	LastWireless string    `yaml:"last_wireless,omitempty"` // Last known wireless address (ip:port)
	LastSeen     time.Time `yaml:"last_seen,omitempty"`     // Last time the headset appeared in the device list
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoSelect      bool `yaml:"auto_select"`      // Auto-select the only connected headset
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	ConfirmCasting  bool `yaml:"confirm_casting"`  // Ask before downloading the casting bundle
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Agent: &AgentConfig{
			Endpoint: DefaultAgentEndpoint,
		},
		Headsets: make(map[string]*Headset),
		Preferences: &Preferences{
			AutoSelect:      true,
			DiscoverTimeout: 10,
			ConfirmCasting:  true,
		},
	}
}

// AgentEndpoint returns the configured agent endpoint, falling back to the
// default when unset.
func (r *Registry) AgentEndpoint() string {
	if r.Agent == nil || r.Agent.Endpoint == "" {
		return DefaultAgentEndpoint
	}
	return r.Agent.Endpoint
}

// GetHeadset retrieves headset metadata by true serial.
// Returns nil if the headset doesn't exist in the registry.
func (r *Registry) GetHeadset(trueSerial string) *Headset {
	return r.Headsets[trueSerial]
}

// EnsureHeadset ensures a headset entry exists in the registry, creating a
// default one when missing. Returns the entry.
func (r *Registry) EnsureHeadset(trueSerial string) *Headset {
	if r.Headsets == nil {
		r.Headsets = make(map[string]*Headset)
	}
	if h, exists := r.Headsets[trueSerial]; exists {
		return h
	}
	h := &Headset{}
	r.Headsets[trueSerial] = h
	return h
}

// UpdateHeadsetLastSeen updates the last-seen timestamp for a headset.
func (r *Registry) UpdateHeadsetLastSeen(trueSerial string) {
	r.EnsureHeadset(trueSerial).LastSeen = time.Now()
}

// SetHeadsetWireless records the last known wireless address for a headset.
func (r *Registry) SetHeadsetWireless(trueSerial, address string) {
	r.EnsureHeadset(trueSerial).LastWireless = address
}

// SetHeadsetNickname sets a user-friendly nickname for a headset.
func (r *Registry) SetHeadsetNickname(trueSerial, nickname string) {
	r.EnsureHeadset(trueSerial).Nickname = nickname
}

// Package config manages the visorctl user configuration file.
//
// The configuration is a YAML file in the platform config directory
// (e.g. ~/.config/visorctl/config.yaml) holding the agent endpoint, known
// headsets keyed by hardware serial, and application preferences.
//
// Loading is lazy and cached: LoadRegistry reads the file once per process
// and returns the same instance afterwards. Saving is atomic (temp file +
// rename) so a crash mid-write never corrupts the config.
//
// Nothing sensitive is stored here; the agent handles all device
// authorization itself.
package config

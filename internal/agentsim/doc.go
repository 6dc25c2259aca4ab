// Package agentsim implements a simulated headset agent for development
// and testing.
//
// The simulator serves the same WebSocket channel the real privileged agent
// exposes: it accepts Command messages and answers with correlated events.
// It holds a small amount of per-connection state (device list, feature
// values, casting bundle install status) so multi-step flows like the
// casting setup behave like they do against real hardware.
//
// Commands are executed sequentially per connection, which preserves the
// per-kind FIFO ordering the channel guarantees. Completion events always
// follow the status events they relate to, matching the real agent.
//
// # Usage Example
//
//	cfg := agentsim.DefaultConfig()
//	cfg.Port = 8815
//	srv, err := agentsim.New(cfg)
//	if err != nil {
//	    return err
//	}
//	return srv.Start() // blocks until SIGINT/SIGTERM
//
// For tests, mount Handler on an httptest.Server instead of calling Start.
package agentsim

package agentsim

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/logging"
)

// Config holds the simulator configuration.
type Config struct {
	Host string
	Port int

	// Devices is the initial device list reported to every connection.
	Devices []devices.Descriptor

	// ToggleDelay is how long feature toggle commands take to complete.
	ToggleDelay time.Duration

	// BridgeDelay is how long enableWirelessBridge takes before the
	// wireless peer appears in the device list.
	BridgeDelay time.Duration

	// BundleInstalled is the initial casting bundle install status.
	BundleInstalled bool

	// BundleSize is the casting bundle size in bytes reported during
	// download. Zero makes download progress indeterminate.
	BundleSize uint64

	// DownloadTicks is the number of progress events emitted per download.
	DownloadTicks int

	// DownloadTickDelay is the pause between progress events.
	DownloadTickDelay time.Duration

	// CaptureDir, when non-empty, is a directory commands are logged to in
	// JSON Lines form for protocol analysis.
	CaptureDir string
}

// DefaultConfig returns a configuration with one authorized wired headset
// and timings short enough for interactive use.
func DefaultConfig() *Config {
	return &Config{
		Host: "127.0.0.1",
		Port: 8815,
		Devices: []devices.Descriptor{
			{
				Serial:     "1WMHH8SIM00001",
				TrueSerial: "1WMHH8SIM00001",
				Transport:  devices.TransportWired,
				State:      devices.StateDevice,
			},
		},
		ToggleDelay:       300 * time.Millisecond,
		BridgeDelay:       time.Second,
		BundleInstalled:   false,
		BundleSize:        48 * 1024 * 1024,
		DownloadTicks:     8,
		DownloadTickDelay: 400 * time.Millisecond,
	}
}

// Server is the simulated agent. Each WebSocket connection gets its own
// copy of the configured state, so parallel connections do not interfere.
type Server struct {
	config   *Config
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	capture  *capture

	mu    sync.Mutex
	conns map[string]*simConn
	wg    sync.WaitGroup
}

// New creates a simulator from the given configuration.
func New(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.Devices) == 0 {
		return nil, fmt.Errorf("simulator needs at least one device")
	}

	var cap *capture
	if config.CaptureDir != "" {
		c, err := newCapture(config.CaptureDir)
		if err != nil {
			return nil, fmt.Errorf("failed to set up capture: %w", err)
		}
		cap = c
	}

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The channel is local-only; no origin policy applies.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		capture: cap,
		conns:   make(map[string]*simConn),
	}, nil
}

// Handler returns the HTTP handler serving the agent channel. Tests mount
// this on an httptest.Server; Start wires it into a real listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/channel", s.handleChannel)
	return mux
}

// Start runs the simulator and blocks until SIGINT/SIGTERM or a listener
// error.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	logging.Info("Starting agent simulator",
		zap.String("addr", addr),
		zap.Int("devices", len(s.config.Devices)),
		zap.Bool("bundle_installed", s.config.BundleInstalled),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpSrv.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		logging.Info("Received shutdown signal", zap.String("signal", sig.String()))
		return s.Shutdown()
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("simulator listener failed: %w", err)
	}
}

// Shutdown stops the listener and closes all active connections.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("simulator shutdown: %w", err)
		}
	}

	s.wg.Wait()
	logging.Info("Agent simulator stopped")
	return nil
}

// handleChannel upgrades one HTTP request to the agent channel.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Channel upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.LogConnection(r.RemoteAddr, "operator_connected")

	c := newSimConn(ws, s.config, s.capture)

	s.mu.Lock()
	s.conns[r.RemoteAddr] = c
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.run()

		s.mu.Lock()
		delete(s.conns, r.RemoteAddr)
		s.mu.Unlock()

		logging.LogConnection(r.RemoteAddr, "operator_disconnected")
	}()
}

package agentsim

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

const (
	// Time allowed to write one event to the operator
	writeWait = 10 * time.Second

	// Time allowed between reads before the connection is dropped. The
	// operator side pings well inside this window.
	readWait = 90 * time.Second

	// Outbound event queue depth per connection
	eventQueueSize = 64

	// Inbound command queue depth per connection
	commandQueueSize = 16
)

// initialFeatures is the feature state a freshly connected headset
// reports: guardian active (not paused), proximity sensor on.
var initialFeatures = map[string]bool{
	"guardian":  false,
	"proximity": true,
}

// simConn simulates the agent side of one operator connection. Commands
// run on a single executor goroutine so completions for one kind are
// delivered in send order.
type simConn struct {
	ws      *websocket.Conn
	config  *Config
	capture *capture

	// Per-connection copies of the simulated headset state
	devices   []devices.Descriptor
	features  map[string]bool
	installed bool

	outbound chan *protocol.Event
	commands chan protocol.Command
	done     chan struct{}

	closeOnce sync.Once
}

func newSimConn(ws *websocket.Conn, config *Config, cap *capture) *simConn {
	devs := make([]devices.Descriptor, len(config.Devices))
	copy(devs, config.Devices)

	features := make(map[string]bool, len(initialFeatures))
	for k, v := range initialFeatures {
		features[k] = v
	}

	return &simConn{
		ws:        ws,
		config:    config,
		capture:   cap,
		devices:   devs,
		features:  features,
		installed: config.BundleInstalled,
		outbound:  make(chan *protocol.Event, eventQueueSize),
		commands:  make(chan protocol.Command, commandQueueSize),
		done:      make(chan struct{}),
	}
}

// run services the connection until it drops. Blocks.
func (c *simConn) run() {
	go c.writeLoop()
	go c.executeLoop()

	c.pushInitialState()
	c.readLoop()
	c.close()
}

func (c *simConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// pushInitialState sends the snapshot events a real agent pushes right
// after the channel opens.
func (c *simConn) pushInitialState() {
	c.emit(protocol.EvDeviceListChanged, "", protocol.DeviceListChanged{Devices: c.devices})
	for key, value := range c.features {
		c.emit(protocol.EvFeatureState, key, protocol.FeatureState{Key: key, Value: value})
	}
}

// readLoop decodes inbound commands and queues them for execution.
func (c *simConn) readLoop() {
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPingHandler(func(data string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))

		cmd, parseErr := parseCommand(data)
		if parseErr != nil {
			logging.Warn("Discarding undecodable operator message", zap.Error(parseErr))
			continue
		}

		c.capture.record(cmd, data)
		logging.LogCommand(string(cmd.Kind), cmd.CorrelationKey)

		select {
		case c.commands <- cmd:
		case <-c.done:
			return
		default:
			logging.Warn("Command queue full, dropping command",
				zap.String("kind", string(cmd.Kind)),
			)
		}
	}
}

// writeLoop serializes queued events onto the connection.
func (c *simConn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.outbound:
			data, err := json.Marshal(ev)
			if err != nil {
				logging.Warn("Dropping unencodable event",
					zap.String("kind", string(ev.Kind)),
					zap.Error(err),
				)
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
			logging.LogEvent(string(ev.Kind), ev.CorrelationKey)
		}
	}
}

// executeLoop runs queued commands one at a time.
func (c *simConn) executeLoop() {
	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.commands:
			c.execute(cmd)
		}
	}
}

func (c *simConn) execute(cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CmdSetGuardianPaused, protocol.CmdSetProximitySensor:
		c.executeToggle(cmd)

	case protocol.CmdEnableWirelessBridge:
		c.executeEnableBridge(cmd)

	case protocol.CmdGetCastingStatus:
		c.emit(protocol.EvCastingStatus, cmd.CorrelationKey,
			protocol.CastingStatus{Installed: &c.installed})
		c.completed(cmd)

	case protocol.CmdDownloadCastingBundle:
		c.executeDownload(cmd)

	case protocol.CmdStartCasting:
		if !c.sleep(c.config.ToggleDelay) {
			return
		}
		c.completed(cmd)

	default:
		logging.Warn("Ignoring unknown command kind",
			zap.String("kind", string(cmd.Kind)),
			zap.String("correlation_key", cmd.CorrelationKey),
		)
	}
}

func (c *simConn) executeToggle(cmd protocol.Command) {
	value, err := cmd.BoolPayload()
	if err != nil {
		logging.Warn("Toggle command with bad payload",
			zap.String("kind", string(cmd.Kind)),
			zap.Error(err),
		)
		return
	}

	if !c.sleep(c.config.ToggleDelay) {
		return
	}

	c.features[cmd.CorrelationKey] = value
	c.emit(protocol.EvFeatureState, cmd.CorrelationKey,
		protocol.FeatureState{Key: cmd.CorrelationKey, Value: value})
	c.completed(cmd)
}

func (c *simConn) executeEnableBridge(cmd protocol.Command) {
	if !c.sleep(c.config.BridgeDelay) {
		return
	}

	trueSerial := cmd.CorrelationKey
	for _, d := range c.devices {
		if d.Transport == devices.TransportWireless && d.TrueSerial == trueSerial {
			// Bridge already up; just acknowledge.
			c.completed(cmd)
			return
		}
	}

	c.devices = append(c.devices, devices.Descriptor{
		Serial:     "127.0.0.1:5555",
		TrueSerial: trueSerial,
		Transport:  devices.TransportWireless,
		State:      devices.StateDevice,
	})

	c.emit(protocol.EvDeviceListChanged, "", protocol.DeviceListChanged{Devices: c.devices})
	c.completed(cmd)
}

func (c *simConn) executeDownload(cmd protocol.Command) {
	ticks := c.config.DownloadTicks
	if ticks < 1 {
		ticks = 1
	}

	var total *uint64
	if c.config.BundleSize > 0 {
		t := c.config.BundleSize
		total = &t
	}

	for i := 1; i <= ticks; i++ {
		if !c.sleep(c.config.DownloadTickDelay) {
			return
		}
		received := c.config.BundleSize / uint64(ticks) * uint64(i)
		c.emit(protocol.EvCastingDownloadProgress, cmd.CorrelationKey,
			protocol.CastingDownloadProgress{Received: received, Total: total})
	}

	c.installed = true
	c.emit(protocol.EvCastingStatus, cmd.CorrelationKey,
		protocol.CastingStatus{Installed: &c.installed})
	c.completed(cmd)
}

// completed emits the commandCompleted event acknowledging cmd.
func (c *simConn) completed(cmd protocol.Command) {
	c.emit(protocol.EvCommandCompleted, cmd.CorrelationKey, protocol.CommandCompleted{
		Kind:           cmd.Kind,
		CorrelationKey: cmd.CorrelationKey,
	})
}

// emit queues one event for delivery. Events are dropped if the queue is
// full, which only happens when the peer stops reading.
func (c *simConn) emit(kind protocol.EventKind, correlationKey string, payload interface{}) {
	ev, err := protocol.NewEvent(kind, correlationKey, payload)
	if err != nil {
		logging.Warn("Failed to build event",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}

	select {
	case c.outbound <- ev:
	case <-c.done:
	default:
		logging.LogEventDropped(string(kind), correlationKey, "outbound queue full")
	}
}

// parseCommand decodes one wire message into a command.
func parseCommand(data []byte) (protocol.Command, error) {
	var cmd protocol.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return protocol.Command{}, fmt.Errorf("failed to parse command: %w", err)
	}
	if cmd.Kind == "" {
		return protocol.Command{}, fmt.Errorf("command has no kind")
	}
	return cmd, nil
}

// sleep pauses for d, returning false when the connection closed first.
func (c *simConn) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	}
}

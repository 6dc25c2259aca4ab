package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/events"
	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

const (
	// Time allowed to write a message to the agent
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the agent
	pongWait = 60 * time.Second

	// Send pings to the agent with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the agent
	maxMessageSize = 64 * 1024

	// Outbound command queue depth. Send is fire-and-forget: a full queue
	// drops the command, observable only through the fatal monitor.
	sendQueueSize = 64
)

// Dispatcher hands commands to the agent boundary. Send is fire-and-forget:
// it never blocks and never returns a result. Callers must subscribe for
// the matching completion/status events before (or immediately after)
// sending, since events may race the send.
type Dispatcher interface {
	Send(cmd protocol.Command)
}

// Bridge is the WebSocket channel to the privileged agent process. It owns
// the event bus for the session: the bus is created on Dial and closed on
// Close. If the connection becomes unusable the bridge synthesizes a
// fatalFailure event so the monitor can move the session to its terminal
// state; no per-command errors are ever surfaced.
type Bridge struct {
	endpoint string
	conn     *websocket.Conn
	bus      *events.Bus

	sendq chan protocol.Command
	done  chan struct{}

	closeOnce sync.Once
	failed    atomic.Bool
}

// Dial connects to the agent at the given WebSocket endpoint (e.g.
// "ws://127.0.0.1:8815/channel") and starts the read/write pumps.
func Dial(endpoint string) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, NewNetworkError("failed to connect to agent", endpoint, err)
	}

	logging.LogConnection(endpoint, "agent_connected")

	b := &Bridge{
		endpoint: endpoint,
		conn:     conn,
		bus:      events.NewBus(),
		sendq:    make(chan protocol.Command, sendQueueSize),
		done:     make(chan struct{}),
	}

	go b.readLoop()
	go b.writeLoop()

	return b, nil
}

// Bus returns the event bus carrying this connection's inbound events.
// Its lifecycle matches the bridge: closed when the bridge closes.
func (b *Bridge) Bus() *events.Bus {
	return b.bus
}

// Endpoint returns the agent endpoint this bridge is connected to.
func (b *Bridge) Endpoint() string {
	return b.endpoint
}

// Send queues a command for delivery to the agent. It never blocks: after a
// fatal failure, or when the outbound queue is full, the command is dropped
// and only logged.
func (b *Bridge) Send(cmd protocol.Command) {
	if b.failed.Load() {
		logging.LogEventDropped(string(cmd.Kind), cmd.CorrelationKey, "bridge failed")
		return
	}

	select {
	case b.sendq <- cmd:
		logging.LogCommand(string(cmd.Kind), cmd.CorrelationKey)
	case <-b.done:
		logging.LogEventDropped(string(cmd.Kind), cmd.CorrelationKey, "bridge closed")
	default:
		logging.Warn("Outbound queue full, dropping command",
			zap.String("kind", string(cmd.Kind)),
			zap.String("correlation_key", cmd.CorrelationKey),
		)
	}
}

// Close tears down the connection and the event bus. Safe to call more
// than once and from any goroutine.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		_ = b.conn.Close()
		b.bus.Close()
		logging.LogConnection(b.endpoint, "agent_disconnected")
	})
}

// fail marks the bridge unusable and publishes a synthesized fatalFailure
// event. The connection itself is left to Close, which the failure monitor
// calls during teardown.
func (b *Bridge) fail(reason string, cause error) {
	if b.failed.Swap(true) {
		return
	}

	logging.Error("Agent channel failed",
		zap.String("endpoint", b.endpoint),
		zap.String("reason", reason),
		zap.Error(cause),
	)

	msg := reason
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", reason, cause)
	}
	ev, err := protocol.NewEvent(protocol.EvFatalFailure, "", protocol.FatalFailure{Message: msg})
	if err != nil {
		return
	}
	b.bus.Publish(ev)
}

// readLoop decodes inbound messages and publishes them on the bus. An
// undecodable message is logged and skipped; a read error is fatal for the
// session.
func (b *Bridge) readLoop() {
	b.conn.SetReadLimit(maxMessageSize)
	_ = b.conn.SetReadDeadline(time.Now().Add(pongWait))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			select {
			case <-b.done:
				// Closed locally; not a failure.
			default:
				b.fail("agent connection lost", err)
			}
			return
		}

		ev, err := protocol.ParseEvent(data)
		if err != nil {
			logging.Warn("Discarding undecodable agent message",
				zap.String("endpoint", b.endpoint),
				zap.Error(err),
			)
			continue
		}

		logging.LogEvent(string(ev.Kind), ev.CorrelationKey)
		b.bus.Publish(ev)
	}
}

// writeLoop serializes queued commands onto the connection and keeps the
// ping/pong heartbeat going.
func (b *Bridge) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return

		case cmd := <-b.sendq:
			data, err := cmd.Encode()
			if err != nil {
				logging.Warn("Dropping unencodable command",
					zap.String("kind", string(cmd.Kind)),
					zap.Error(err),
				)
				continue
			}
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.fail("failed to write command", err)
				return
			}

		case <-ticker.C:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.fail("heartbeat write failed", err)
				return
			}
		}
	}
}

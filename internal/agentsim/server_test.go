package agentsim

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/protocol"
)

// testConfig returns a config with zero delays so tests run instantly.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ToggleDelay = 0
	cfg.BridgeDelay = 0
	cfg.DownloadTicks = 2
	cfg.DownloadTickDelay = 0
	return cfg
}

// dialSimulator starts a simulator on an httptest server and connects to
// its channel. Cleanup is registered on t.
func dialSimulator(t *testing.T, cfg *Config) *websocket.Conn {
	t.Helper()

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	endpoint := "ws" + strings.TrimPrefix(ts.URL, "http") + "/channel"
	ws, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", endpoint, err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

// readEvent reads and parses one event, failing the test on timeout.
func readEvent(t *testing.T, ws *websocket.Conn) *protocol.Event {
	t.Helper()

	if err := ws.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	ev, err := protocol.ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	return ev
}

// readUntil reads events until one of the wanted kind arrives.
func readUntil(t *testing.T, ws *websocket.Conn, kind protocol.EventKind) *protocol.Event {
	t.Helper()

	for i := 0; i < 20; i++ {
		ev := readEvent(t, ws)
		if ev.Kind == kind {
			return ev
		}
	}
	t.Fatalf("no %s event within 20 messages", kind)
	return nil
}

func sendCommand(t *testing.T, ws *websocket.Conn, cmd protocol.Command) {
	t.Helper()

	data, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func TestSimulatorInitialState(t *testing.T) {
	ws := dialSimulator(t, testConfig())

	ev := readUntil(t, ws, protocol.EvDeviceListChanged)
	list, err := ev.DeviceList()
	if err != nil {
		t.Fatalf("DeviceList() error = %v", err)
	}

	if len(list.Devices) != 1 {
		t.Fatalf("initial device count = %d, want 1", len(list.Devices))
	}
	d := list.Devices[0]
	if d.Transport != devices.TransportWired {
		t.Errorf("Transport = %v, want %v", d.Transport, devices.TransportWired)
	}
	if d.State != devices.StateDevice {
		t.Errorf("State = %v, want %v", d.State, devices.StateDevice)
	}

	// The initial feature snapshot follows the device list.
	seen := make(map[string]bool)
	for i := 0; i < len(initialFeatures); i++ {
		ev := readUntil(t, ws, protocol.EvFeatureState)
		fs, err := ev.FeatureState()
		if err != nil {
			t.Fatalf("FeatureState() error = %v", err)
		}
		seen[fs.Key] = fs.Value
	}
	if v, ok := seen["guardian"]; !ok || v {
		t.Errorf("initial guardian state = %v,%v, want false,true", v, ok)
	}
	if v, ok := seen["proximity"]; !ok || !v {
		t.Errorf("initial proximity state = %v,%v, want true,true", v, ok)
	}
}

func TestSimulatorToggleCommand(t *testing.T) {
	ws := dialSimulator(t, testConfig())
	readUntil(t, ws, protocol.EvDeviceListChanged)

	cmd, err := protocol.NewToggleCommand(protocol.CmdSetGuardianPaused, "guardian", true)
	if err != nil {
		t.Fatalf("NewToggleCommand() error = %v", err)
	}
	sendCommand(t, ws, cmd)

	// The confirmed value arrives before the completion.
	var gotValue, gotCompleted bool
	for i := 0; i < 20 && !gotCompleted; i++ {
		ev := readEvent(t, ws)
		switch ev.Kind {
		case protocol.EvFeatureState:
			fs, err := ev.FeatureState()
			if err != nil {
				t.Fatalf("FeatureState() error = %v", err)
			}
			if fs.Key == "guardian" {
				gotValue = fs.Value
			}
		case protocol.EvCommandCompleted:
			done, err := ev.CommandCompleted()
			if err != nil {
				t.Fatalf("CommandCompleted() error = %v", err)
			}
			if done.Kind != protocol.CmdSetGuardianPaused {
				t.Errorf("completed Kind = %v, want %v", done.Kind, protocol.CmdSetGuardianPaused)
			}
			if done.CorrelationKey != "guardian" {
				t.Errorf("completed CorrelationKey = %v, want guardian", done.CorrelationKey)
			}
			gotCompleted = true
		}
	}

	if !gotCompleted {
		t.Fatal("no commandCompleted for the toggle")
	}
	if !gotValue {
		t.Error("guardian featureState not confirmed true before completion")
	}
}

func TestSimulatorCastingFlow(t *testing.T) {
	cfg := testConfig()
	cfg.BundleInstalled = false
	ws := dialSimulator(t, cfg)
	readUntil(t, ws, protocol.EvDeviceListChanged)

	// Status query reports not installed.
	sendCommand(t, ws, protocol.NewCommand(protocol.CmdGetCastingStatus, "casting"))
	ev := readUntil(t, ws, protocol.EvCastingStatus)
	status, err := ev.CastingStatus()
	if err != nil {
		t.Fatalf("CastingStatus() error = %v", err)
	}
	if status.IsInstalled() {
		t.Fatal("bundle reported installed before download")
	}
	readUntil(t, ws, protocol.EvCommandCompleted)

	// Download emits progress, then the installed edge, then completion.
	sendCommand(t, ws, protocol.NewCommand(protocol.CmdDownloadCastingBundle, "casting"))

	progress := 0
	installed := false
	for !installed {
		ev := readEvent(t, ws)
		switch ev.Kind {
		case protocol.EvCastingDownloadProgress:
			p, err := ev.DownloadProgress()
			if err != nil {
				t.Fatalf("DownloadProgress() error = %v", err)
			}
			if pct, ok := p.Percent(); !ok || pct < 0 || pct > 100 {
				t.Errorf("Percent() = %d,%v, want determinate in [0,100]", pct, ok)
			}
			progress++
		case protocol.EvCastingStatus:
			s, err := ev.CastingStatus()
			if err != nil {
				t.Fatalf("CastingStatus() error = %v", err)
			}
			if !s.IsInstalled() {
				t.Error("post-download status not installed")
			}
			installed = true
		default:
			t.Fatalf("unexpected %s during download", ev.Kind)
		}
	}
	if progress != 2 {
		t.Errorf("progress events = %d, want 2", progress)
	}
	readUntil(t, ws, protocol.EvCommandCompleted)

	// Launch acknowledges.
	sendCommand(t, ws, protocol.NewCommand(protocol.CmdStartCasting, "casting"))
	ev = readUntil(t, ws, protocol.EvCommandCompleted)
	done, err := ev.CommandCompleted()
	if err != nil {
		t.Fatalf("CommandCompleted() error = %v", err)
	}
	if done.Kind != protocol.CmdStartCasting {
		t.Errorf("completed Kind = %v, want %v", done.Kind, protocol.CmdStartCasting)
	}
}

func TestSimulatorEnableBridge(t *testing.T) {
	cfg := testConfig()
	ws := dialSimulator(t, cfg)
	readUntil(t, ws, protocol.EvDeviceListChanged)

	serial := cfg.Devices[0].TrueSerial
	sendCommand(t, ws, protocol.NewCommand(protocol.CmdEnableWirelessBridge, serial))

	ev := readUntil(t, ws, protocol.EvDeviceListChanged)
	list, err := ev.DeviceList()
	if err != nil {
		t.Fatalf("DeviceList() error = %v", err)
	}

	if len(list.Devices) != 2 {
		t.Fatalf("device count after bridge = %d, want 2", len(list.Devices))
	}
	var wireless *devices.Descriptor
	for i := range list.Devices {
		if list.Devices[i].Transport == devices.TransportWireless {
			wireless = &list.Devices[i]
		}
	}
	if wireless == nil {
		t.Fatal("no wireless entry after bridge enable")
	}
	if wireless.TrueSerial != serial {
		t.Errorf("wireless TrueSerial = %v, want %v", wireless.TrueSerial, serial)
	}
	if !wireless.Connected() {
		t.Errorf("wireless entry state = %v, want connected", wireless.State)
	}

	readUntil(t, ws, protocol.EvCommandCompleted)
}

func TestNewRejectsEmptyDeviceList(t *testing.T) {
	if _, err := New(&Config{Port: 8815}); err == nil {
		t.Error("New() with no devices should fail")
	}
}

package control

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/visorctl/internal/casting"
	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/events"
	"github.com/muurk/visorctl/internal/protocol"
)

// fakeBackend satisfies Backend with a real bus and a recorded command log.
type fakeBackend struct {
	bus    *events.Bus
	sendCh chan protocol.Command

	mu   sync.Mutex
	sent []protocol.Command
	once sync.Once
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bus:    events.NewBus(),
		sendCh: make(chan protocol.Command, 64),
	}
}

func (f *fakeBackend) Send(cmd protocol.Command) {
	f.mu.Lock()
	f.sent = append(f.sent, cmd)
	f.mu.Unlock()
	f.sendCh <- cmd
}

func (f *fakeBackend) Bus() *events.Bus { return f.bus }

func (f *fakeBackend) Close() {
	f.once.Do(func() { f.bus.Close() })
}

func (f *fakeBackend) count(kind protocol.CommandKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.sent {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// publish pushes a typed event onto the fake backend's bus.
func (f *fakeBackend) publish(t *testing.T, kind protocol.EventKind, key string, payload interface{}) {
	t.Helper()
	ev, err := protocol.NewEvent(kind, key, payload)
	if err != nil {
		t.Fatalf("NewEvent(%s) error = %v", kind, err)
	}
	f.bus.Publish(ev)
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *fakeNotifier) Notify(note Notification) {
	n.mu.Lock()
	n.notes = append(n.notes, note)
	n.mu.Unlock()
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notes))
	for i, note := range n.notes {
		out[i] = note.Message
	}
	return out
}

// confirmGate answers every confirmation request with a fixed choice.
type confirmGate struct {
	answer bool
}

func (g *confirmGate) RequestConfirmation(prompt string, respond func(confirmed bool)) {
	respond(g.answer)
}

func waitCommand(t *testing.T, f *fakeBackend, kind protocol.CommandKind) protocol.Command {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cmd := <-f.sendCh:
			if cmd.Kind == kind {
				return cmd
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s command", kind)
		}
	}
}

// waitUpdate drains the update channel until pred accepts one.
func waitUpdate(t *testing.T, s *Session, pred func(Update) bool) Update {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-s.Updates():
			if pred(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for update")
			return nil
		}
	}
}

func startSession(t *testing.T, gate casting.Gate) (*Session, *fakeBackend, *fakeNotifier, chan error) {
	t.Helper()
	f := newFakeBackend()
	n := &fakeNotifier{}
	s := NewSession(f, gate, n)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run() }()
	t.Cleanup(s.Close)

	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session never became ready")
	}

	return s, f, n, errCh
}

func TestSession_GuardianToggleRoundTrip(t *testing.T) {
	s, f, _, _ := startSession(t, nil)

	s.RequestGuardianPause(true)
	cmd := waitCommand(t, f, protocol.CmdSetGuardianPaused)
	if cmd.CorrelationKey != KeyGuardian {
		t.Errorf("CorrelationKey = %q, want %q", cmd.CorrelationKey, KeyGuardian)
	}

	// Optimistic updating state is pushed first
	u := waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian
	}).(ToggleUpdate)
	if !u.State.Updating {
		t.Error("first update should show Updating")
	}

	// Completion confirms the requested value
	f.publish(t, protocol.EvCommandCompleted, KeyGuardian,
		protocol.CommandCompleted{Kind: protocol.CmdSetGuardianPaused, CorrelationKey: KeyGuardian})

	u = waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian && !tu.State.Updating
	}).(ToggleUpdate)
	if u.State.Value == nil || !*u.State.Value {
		t.Errorf("confirmed value = %v, want true", u.State.Value)
	}
}

func TestSession_SecondToggleRequestProducesNoCommand(t *testing.T) {
	s, f, _, _ := startSession(t, nil)

	s.RequestGuardianPause(true)
	waitCommand(t, f, protocol.CmdSetGuardianPaused)

	// Re-entrant requests while updating are rejected on the loop
	s.RequestGuardianPause(false)
	s.RequestGuardianPause(true)

	// Complete the first command and observe the confirmed state; by then
	// the rejected requests have been fully processed too.
	f.publish(t, protocol.EvCommandCompleted, KeyGuardian,
		protocol.CommandCompleted{Kind: protocol.CmdSetGuardianPaused, CorrelationKey: KeyGuardian})
	waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian && !tu.State.Updating
	})

	if got := f.count(protocol.CmdSetGuardianPaused); got != 1 {
		t.Errorf("guardian commands sent = %d, want 1", got)
	}
}

func TestSession_UnmatchedCompletionIsIgnored(t *testing.T) {
	s, f, _, _ := startSession(t, nil)

	// Completion for an operation nobody started
	f.publish(t, protocol.EvCommandCompleted, "mystery",
		protocol.CommandCompleted{Kind: protocol.CmdEnableWirelessBridge, CorrelationKey: "mystery"})

	// A proper flow afterwards still behaves normally (per-kind FIFO means
	// the unmatched event was processed before this one confirms).
	s.RequestProximitySensor(true)
	waitCommand(t, f, protocol.CmdSetProximitySensor)
	f.publish(t, protocol.EvCommandCompleted, KeyProximity,
		protocol.CommandCompleted{Kind: protocol.CmdSetProximitySensor, CorrelationKey: KeyProximity})

	u := waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyProximity && !tu.State.Updating
	}).(ToggleUpdate)
	if u.State.Value == nil || !*u.State.Value {
		t.Errorf("proximity value = %v, want true", u.State.Value)
	}
}

func TestSession_DeviceListDrivesBridgeOffer(t *testing.T) {
	s, f, _, _ := startSession(t, nil)

	wired := devices.Descriptor{
		Serial: "1WMHH8", TrueSerial: "1WMHH8",
		Transport: devices.TransportWired, State: devices.StateDevice,
	}

	f.publish(t, protocol.EvDeviceListChanged, "",
		protocol.DeviceListChanged{Devices: []devices.Descriptor{wired}})

	u := waitUpdate(t, s, func(u Update) bool {
		_, ok := u.(DeviceUpdate)
		return ok
	}).(DeviceUpdate)
	if u.Current == nil || u.Current.Serial != "1WMHH8" {
		t.Fatalf("Current = %v, want auto-selected 1WMHH8", u.Current)
	}
	if !u.OfferBridge {
		t.Error("OfferBridge = false for lone wired device, want true")
	}

	// An authorized wireless peer appears: the offer must disappear
	wireless := devices.Descriptor{
		Serial: "10.0.0.9:5555", TrueSerial: "1WMHH8",
		Transport: devices.TransportWireless, State: devices.StateDevice,
	}
	f.publish(t, protocol.EvDeviceListChanged, "",
		protocol.DeviceListChanged{Devices: []devices.Descriptor{wired, wireless}})

	u = waitUpdate(t, s, func(u Update) bool {
		du, ok := u.(DeviceUpdate)
		return ok && len(du.Devices) == 2
	}).(DeviceUpdate)
	if u.OfferBridge {
		t.Error("OfferBridge = true with authorized wireless peer, want false")
	}
}

func TestSession_EnableWirelessBridge(t *testing.T) {
	s, f, n, _ := startSession(t, nil)

	wired := devices.Descriptor{
		Serial: "1WMHH8", TrueSerial: "1WMHH8",
		Transport: devices.TransportWired, State: devices.StateDevice,
	}
	f.publish(t, protocol.EvDeviceListChanged, "",
		protocol.DeviceListChanged{Devices: []devices.Descriptor{wired}})
	waitUpdate(t, s, func(u Update) bool { _, ok := u.(DeviceUpdate); return ok })

	s.EnableWirelessBridge()
	cmd := waitCommand(t, f, protocol.CmdEnableWirelessBridge)
	if cmd.CorrelationKey != "1WMHH8" {
		t.Errorf("CorrelationKey = %q, want the headset's true serial", cmd.CorrelationKey)
	}

	// A second request before completion is swallowed by the pending guard
	s.EnableWirelessBridge()

	f.publish(t, protocol.EvCommandCompleted, "1WMHH8",
		protocol.CommandCompleted{Kind: protocol.CmdEnableWirelessBridge, CorrelationKey: "1WMHH8"})

	u := waitUpdate(t, s, func(u Update) bool {
		bu, ok := u.(BridgeUpdate)
		return ok && !bu.Pending
	}).(BridgeUpdate)
	if u.TrueSerial != "1WMHH8" {
		t.Errorf("TrueSerial = %q, want 1WMHH8", u.TrueSerial)
	}

	if got := f.count(protocol.CmdEnableWirelessBridge); got != 1 {
		t.Errorf("bridge commands sent = %d, want 1", got)
	}

	found := false
	for _, msg := range n.messages() {
		if strings.Contains(msg, "Wireless bridge enabled") {
			found = true
		}
	}
	if !found {
		t.Errorf("no bridge notification, got %v", n.messages())
	}
}

func TestSession_CastingAutoLaunch(t *testing.T) {
	s, f, _, _ := startSession(t, &confirmGate{answer: true})

	s.StartCasting()
	waitCommand(t, f, protocol.CmdGetCastingStatus)

	installedFalse := false
	f.publish(t, protocol.EvCastingStatus, "", protocol.CastingStatus{Installed: &installedFalse})

	// Gate auto-confirms, so the download starts
	waitCommand(t, f, protocol.CmdDownloadCastingBundle)

	total := uint64(1000)
	f.publish(t, protocol.EvCastingDownloadProgress, "",
		protocol.CastingDownloadProgress{Received: 400, Total: &total})

	u := waitUpdate(t, s, func(u Update) bool {
		cu, ok := u.(CastingUpdate)
		return ok && cu.State == casting.StateDownloading && cu.Percent == 40
	}).(CastingUpdate)
	if u.Indeterminate {
		t.Error("progress with total should be determinate")
	}

	// Install completes: exactly one automatic launch
	installedTrue := true
	f.publish(t, protocol.EvCastingStatus, "", protocol.CastingStatus{Installed: &installedTrue})
	waitCommand(t, f, protocol.CmdStartCasting)

	// Repeated installed reports must not relaunch. Publishing another
	// status and then observing a later update on the same kind proves the
	// repeats were processed.
	f.publish(t, protocol.EvCastingStatus, "", protocol.CastingStatus{Installed: &installedTrue})
	s.RequestGuardianPause(true)
	waitCommand(t, f, protocol.CmdSetGuardianPaused)
	f.publish(t, protocol.EvCommandCompleted, KeyGuardian,
		protocol.CommandCompleted{Kind: protocol.CmdSetGuardianPaused, CorrelationKey: KeyGuardian})
	waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian && !tu.State.Updating
	})

	if got := f.count(protocol.CmdStartCasting); got != 1 {
		t.Errorf("start casting commands = %d, want exactly 1", got)
	}
}

func TestSession_CastingDecline(t *testing.T) {
	s, f, _, _ := startSession(t, &confirmGate{answer: false})

	s.StartCasting()
	waitCommand(t, f, protocol.CmdGetCastingStatus)

	installedFalse := false
	f.publish(t, protocol.EvCastingStatus, "", protocol.CastingStatus{Installed: &installedFalse})

	waitUpdate(t, s, func(u Update) bool {
		cu, ok := u.(CastingUpdate)
		return ok && cu.State == casting.StateCancelled
	})

	if got := f.count(protocol.CmdDownloadCastingBundle); got != 0 {
		t.Errorf("download commands after decline = %d, want 0", got)
	}
}

func TestSession_FatalFailureIsTerminal(t *testing.T) {
	s, f, _, errCh := startSession(t, nil)

	f.publish(t, protocol.EvFatalFailure, "", protocol.FatalFailure{Message: "agent process wedged"})

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("Run() = nil, want error after fatal failure")
		}
		if !strings.Contains(err.Error(), "agent process wedged") {
			t.Errorf("Run() error = %v, want failure message included", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after fatal failure")
	}

	// No further commands may be dispatched
	s.RequestGuardianPause(true)
	time.Sleep(50 * time.Millisecond)
	if got := f.count(protocol.CmdSetGuardianPaused); got != 0 {
		t.Errorf("commands sent after fatal failure = %d, want 0", got)
	}
}

func TestSession_OutOfBandFeatureState(t *testing.T) {
	s, f, _, _ := startSession(t, nil)

	// While Idle: the pushed value is adopted
	f.publish(t, protocol.EvFeatureState, KeyGuardian, protocol.FeatureState{Key: KeyGuardian, Value: true})
	u := waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian
	}).(ToggleUpdate)
	if v, ok := u.State.Displayed(); !ok || !v {
		t.Errorf("Displayed() = %v, %v after out-of-band push, want true", v, ok)
	}

	// While Updating: a stale push must not disturb the optimistic value
	s.RequestGuardianPause(false)
	waitCommand(t, f, protocol.CmdSetGuardianPaused)
	f.publish(t, protocol.EvFeatureState, KeyGuardian, protocol.FeatureState{Key: KeyGuardian, Value: true})

	u = waitUpdate(t, s, func(u Update) bool {
		tu, ok := u.(ToggleUpdate)
		return ok && tu.Key == KeyGuardian && tu.State.Updating
	}).(ToggleUpdate)
	if v, ok := u.State.Displayed(); !ok || v {
		t.Errorf("Displayed() = %v, %v during update, want optimistic false", v, ok)
	}
}

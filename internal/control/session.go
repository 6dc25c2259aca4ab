package control

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/casting"
	"github.com/muurk/visorctl/internal/devices"
	"github.com/muurk/visorctl/internal/events"
	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// Correlation keys for the built-in feature toggles.
const (
	KeyGuardian  = "guardian"
	KeyProximity = "proximity"
)

// Severity classifies a transient notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Notification is a dismissible transient message for the operator.
type Notification struct {
	Severity Severity
	Message  string
	Duration time.Duration
}

// Notifier shows transient notifications. Implementations are provided by
// the presentation layer; a nil notifier silently drops them.
type Notifier interface {
	Notify(n Notification)
}

// Backend is the agent boundary the session drives: fire-and-forget
// command dispatch plus the event bus whose lifecycle it follows.
// Satisfied by *bridge.Bridge.
type Backend interface {
	Send(cmd protocol.Command)
	Bus() *events.Bus
	Close()
}

// Update is a state change pushed to the front-end. One of ToggleUpdate,
// DeviceUpdate, BridgeUpdate, CastingUpdate, or FatalUpdate.
type Update interface{}

// ToggleUpdate reports a feature toggle's new visible state.
type ToggleUpdate struct {
	Key   string
	State ToggleState
}

// DeviceUpdate reports a new device-list snapshot.
type DeviceUpdate struct {
	Devices     []devices.Descriptor
	Current     *devices.Descriptor
	OfferBridge bool
}

// BridgeUpdate reports progress of a wireless bridge enable operation.
type BridgeUpdate struct {
	TrueSerial string
	Pending    bool
}

// CastingUpdate wraps a casting workflow update.
type CastingUpdate struct {
	casting.Update
}

// FatalUpdate reports the terminal session failure.
type FatalUpdate struct {
	Message string
}

// pendingKey identifies one in-flight logical operation. Completions are
// matched against this pair, never against arrival order.
type pendingKey struct {
	kind protocol.CommandKind
	key  string
}

// Session wires the controllers to the event bus and runs them on a single
// event loop. All mutable state (toggles, device tracker, casting
// workflow, pending operations) is confined to that loop; external callers
// interact only through the request methods, which post onto the loop.
type Session struct {
	backend  Backend
	notifier Notifier

	guardian  *Toggle
	proximity *Toggle
	tracker   *devices.Tracker
	installer *casting.Installer
	monitor   *Monitor
	pending   map[pendingKey]func()

	ops     chan func()
	updates chan Update
	ready   chan struct{}
	done    chan struct{}
	once    sync.Once
}

// updateQueueSize bounds the UI update channel. A stalled front-end loses
// intermediate snapshots, never correctness: every update carries full
// state, not a delta.
const updateQueueSize = 128

// NewSession creates a session over an established backend. gate is the
// presentation-layer confirmation capability used by the casting workflow;
// its responses are marshalled back onto the session loop. notifier may be
// nil.
func NewSession(backend Backend, gate casting.Gate, notifier Notifier) *Session {
	s := &Session{
		backend:  backend,
		notifier: notifier,
		tracker:  devices.NewTracker(),
		monitor:  NewMonitor(),
		pending:  make(map[pendingKey]func()),
		ops:      make(chan func(), 16),
		updates:  make(chan Update, updateQueueSize),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}

	s.guardian = NewToggle(protocol.CmdSetGuardianPaused, KeyGuardian, backend)
	s.proximity = NewToggle(protocol.CmdSetProximitySensor, KeyProximity, backend)
	s.installer = casting.NewInstaller(backend, &loopGate{s: s, inner: gate}, func(u casting.Update) {
		s.handleCastingUpdate(u)
	})

	return s
}

// Updates returns the channel of state changes for the front-end.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Ready is closed once Run has registered all bus subscriptions. Events
// published before that are lost to this session (the bus does not
// replay), so callers that drive the agent themselves should wait for it.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Run processes events until Close is called or the session hits its
// terminal failure state. On fatal failure it tears down the backend and
// returns an error carrying the failure message. Run may be called at most
// once per session.
func (s *Session) Run() error {
	bus := s.backend.Bus()

	completed := bus.Subscribe(protocol.EvCommandCompleted)
	deviceList := bus.Subscribe(protocol.EvDeviceListChanged)
	feature := bus.Subscribe(protocol.EvFeatureState)
	status := bus.Subscribe(protocol.EvCastingStatus)
	progress := bus.Subscribe(protocol.EvCastingDownloadProgress)
	fatal := bus.Subscribe(protocol.EvFatalFailure)

	defer func() {
		completed.Cancel()
		deviceList.Cancel()
		feature.Cancel()
		status.Cancel()
		progress.Cancel()
		fatal.Cancel()
	}()

	completedCh := completed.Events()
	deviceCh := deviceList.Events()
	featureCh := feature.Events()
	statusCh := status.Events()
	progressCh := progress.Events()
	fatalCh := fatal.Events()

	close(s.ready)

	for {
		select {
		case <-s.done:
			return nil

		case op := <-s.ops:
			op()

		case ev, ok := <-completedCh:
			if !ok {
				completedCh = nil
				continue
			}
			s.handleCompleted(ev)

		case ev, ok := <-deviceCh:
			if !ok {
				deviceCh = nil
				continue
			}
			s.handleDeviceList(ev)

		case ev, ok := <-featureCh:
			if !ok {
				featureCh = nil
				continue
			}
			s.handleFeatureState(ev)

		case ev, ok := <-statusCh:
			if !ok {
				statusCh = nil
				continue
			}
			if st, err := ev.CastingStatus(); err == nil {
				s.installer.HandleStatus(st)
			} else {
				logging.Warn("Bad casting status event", zap.Error(err))
			}

		case ev, ok := <-progressCh:
			if !ok {
				progressCh = nil
				continue
			}
			if p, err := ev.DownloadProgress(); err == nil {
				s.installer.HandleProgress(p)
			} else {
				logging.Warn("Bad casting progress event", zap.Error(err))
			}

		case ev, ok := <-fatalCh:
			if !ok {
				fatalCh = nil
				continue
			}
			f, err := ev.FatalFailure()
			if err != nil {
				logging.Warn("Bad fatal event", zap.Error(err))
				continue
			}
			s.monitor.HandleFatal(f)
			s.notify(SeverityError, "Backend failed: "+f.Message)
			s.emit(FatalUpdate{Message: f.Message})
			s.backend.Close()
			return fmt.Errorf("agent failed: %s", f.Message)
		}
	}
}

// Close stops the session loop and tears down the backend. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.backend.Close()
	})
}

// RequestGuardianPause asks the agent to pause (true) or resume (false)
// the guardian boundary system.
func (s *Session) RequestGuardianPause(paused bool) {
	s.Do(func() { s.requestToggle(s.guardian, paused) })
}

// RequestProximitySensor asks the agent to enable or disable the
// wear-detection sensor.
func (s *Session) RequestProximitySensor(enabled bool) {
	s.Do(func() { s.requestToggle(s.proximity, enabled) })
}

// EnableWirelessBridge starts the wireless bridge for the current device.
func (s *Session) EnableWirelessBridge() {
	s.Do(s.enableWirelessBridge)
}

// StartCasting starts (or re-runs) the casting workflow.
func (s *Session) StartCasting() {
	s.Do(func() {
		if s.monitor.Failed() {
			return
		}
		s.installer.Start()
	})
}

// SelectDevice makes the device with the given serial current.
func (s *Session) SelectDevice(serial string) {
	s.Do(func() {
		if s.tracker.Select(serial) {
			s.emitDeviceUpdate()
		}
	})
}

// Do runs fn on the session loop. No-op once the session is closed.
func (s *Session) Do(fn func()) {
	select {
	case s.ops <- fn:
	case <-s.done:
	}
}

// requestToggle issues a toggle command unless the session already failed
// or the controller is busy.
func (s *Session) requestToggle(t *Toggle, v bool) {
	if s.monitor.Failed() {
		return
	}
	if t.Request(v) {
		s.emit(ToggleUpdate{Key: t.Key(), State: t.State()})
	}
}

func (s *Session) enableWirelessBridge() {
	if s.monitor.Failed() {
		return
	}
	cur := s.tracker.Current()
	if cur == nil {
		s.notify(SeverityWarning, "No device selected")
		return
	}
	if !s.tracker.OfferWirelessBridge() {
		s.notify(SeverityInfo, "Wireless bridge is already active for this headset")
		return
	}

	pk := pendingKey{kind: protocol.CmdEnableWirelessBridge, key: cur.TrueSerial}
	if _, inFlight := s.pending[pk]; inFlight {
		return
	}

	trueSerial := cur.TrueSerial
	s.pending[pk] = func() {
		s.notify(SeverityInfo, "Wireless bridge enabled for "+trueSerial)
		s.emit(BridgeUpdate{TrueSerial: trueSerial, Pending: false})
	}
	s.backend.Send(protocol.NewCommand(protocol.CmdEnableWirelessBridge, trueSerial))
	s.emit(BridgeUpdate{TrueSerial: trueSerial, Pending: true})
}

func (s *Session) handleCompleted(ev *protocol.Event) {
	done, err := ev.CommandCompleted()
	if err != nil {
		logging.Warn("Bad completion event", zap.Error(err))
		return
	}

	if s.guardian.HandleCompleted(done) {
		s.emit(ToggleUpdate{Key: KeyGuardian, State: s.guardian.State()})
		s.notify(SeverityInfo, guardianMessage(s.guardian.State()))
		return
	}
	if s.proximity.HandleCompleted(done) {
		s.emit(ToggleUpdate{Key: KeyProximity, State: s.proximity.State()})
		return
	}

	pk := pendingKey{kind: done.Kind, key: done.CorrelationKey}
	if cont, ok := s.pending[pk]; ok {
		delete(s.pending, pk)
		cont()
		return
	}

	// A completion nobody is waiting for must not change any state.
	logging.LogEventDropped(string(done.Kind), done.CorrelationKey, "no pending operation")
}

func (s *Session) handleDeviceList(ev *protocol.Event) {
	d, err := ev.DeviceList()
	if err != nil {
		logging.Warn("Bad device list event", zap.Error(err))
		return
	}
	s.tracker.Update(d.Devices)
	s.emitDeviceUpdate()
}

func (s *Session) handleFeatureState(ev *protocol.Event) {
	f, err := ev.FeatureState()
	if err != nil {
		logging.Warn("Bad feature state event", zap.Error(err))
		return
	}

	switch f.Key {
	case KeyGuardian:
		s.guardian.HandleStateUpdate(f.Value)
		s.emit(ToggleUpdate{Key: KeyGuardian, State: s.guardian.State()})
	case KeyProximity:
		s.proximity.HandleStateUpdate(f.Value)
		s.emit(ToggleUpdate{Key: KeyProximity, State: s.proximity.State()})
	default:
		logging.LogEventDropped(string(ev.Kind), f.Key, "unknown feature key")
	}
}

func (s *Session) handleCastingUpdate(u casting.Update) {
	s.emit(CastingUpdate{u})
	switch u.State {
	case casting.StateLaunched:
		s.notify(SeverityInfo, "Casting started")
	case casting.StateCancelled:
		s.notify(SeverityInfo, "Casting setup cancelled")
	}
}

func (s *Session) emitDeviceUpdate() {
	s.emit(DeviceUpdate{
		Devices:     s.tracker.Snapshot(),
		Current:     s.tracker.Current(),
		OfferBridge: s.tracker.OfferWirelessBridge(),
	})
}

// emit pushes an update to the front-end without ever blocking the loop.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
		logging.Debug("Dropping UI update, queue full")
	}
}

func (s *Session) notify(sev Severity, msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(Notification{
		Severity: sev,
		Message:  msg,
		Duration: 4 * time.Second,
	})
}

func guardianMessage(st ToggleState) string {
	if v, ok := st.Displayed(); ok && v {
		return "Guardian paused"
	}
	return "Guardian active"
}

// loopGate forwards confirmation requests to the presentation gate and
// marshals the response back onto the session loop, so the installer only
// ever runs on its owning goroutine.
type loopGate struct {
	s     *Session
	inner casting.Gate
}

func (g *loopGate) RequestConfirmation(prompt string, respond func(confirmed bool)) {
	if g.inner == nil {
		// No gate wired (headless use): treat as declined.
		g.s.Do(func() { respond(false) })
		return
	}
	g.inner.RequestConfirmation(prompt, func(confirmed bool) {
		g.s.Do(func() { respond(confirmed) })
	})
}

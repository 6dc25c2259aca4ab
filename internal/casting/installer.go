package casting

import (
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// CorrelationKey tags every casting command this workflow sends.
const CorrelationKey = "casting"

// State is the installer workflow state.
type State string

const (
	// StateUnknown is the initial state before any status query
	StateUnknown State = "unknown"

	// StateChecking means a status query is outstanding
	StateChecking State = "checking"

	// StateAwaitingConfirmation means the bundle is missing and the
	// operator is being asked whether to download it
	StateAwaitingConfirmation State = "awaitingConfirmation"

	// StateCancelled means the operator declined the download
	StateCancelled State = "cancelled"

	// StateDownloading means the bundle download is in progress
	StateDownloading State = "downloading"

	// StateLaunched means casting was started; terminal for the workflow
	// but re-enterable through Start
	StateLaunched State = "launched"
)

// Dispatcher is the slice of the agent boundary the installer needs.
// Satisfied by *bridge.Bridge.
type Dispatcher interface {
	Send(cmd protocol.Command)
}

// Gate presents a yes/no decision to the operator and reports the choice
// asynchronously through respond. Implementations must call respond exactly
// once, from any goroutine; the session loop marshals the call back onto
// the installer.
type Gate interface {
	RequestConfirmation(prompt string, respond func(confirmed bool))
}

// Update describes a user-visible change in the workflow, surfaced to the
// front-end after each transition or progress report.
type Update struct {
	State State

	// Percent is the download percentage when known
	Percent int

	// Indeterminate is true while downloading without a known total
	Indeterminate bool
}

// Installer coordinates the install-then-launch workflow for the casting
// feature:
//
//  1. Start queries the agent for the bundle's install status.
//  2. If installed, casting is launched immediately.
//  3. If not, the operator confirms the download; on confirm the download
//     command is sent and status events are watched for the first
//     not-installed -> installed transition, which auto-launches casting
//     exactly once. Declining parks the workflow at Cancelled.
//
// A failed or stalled download never produces the install transition, so
// the workflow stays parked at Downloading; there is deliberately no
// timeout or retry.
//
// At most one workflow may be active: Start while Checking, Awaiting
// Confirmation, or Downloading is a no-op. Installer is owned by the
// session loop and is not safe for concurrent use.
type Installer struct {
	dispatcher Dispatcher
	gate       Gate
	notify     func(Update)

	state State

	// confirmSeq invalidates gate responses that arrive after the
	// workflow moved on (e.g. after a fatal teardown and restart of the
	// prompt). Only the response matching the current sequence counts.
	confirmSeq int
}

// NewInstaller creates an idle installer. notify may be nil when no
// front-end cares about intermediate updates.
func NewInstaller(d Dispatcher, gate Gate, notify func(Update)) *Installer {
	return &Installer{
		dispatcher: d,
		gate:       gate,
		notify:     notify,
		state:      StateUnknown,
	}
}

// State returns the current workflow state.
func (i *Installer) State() State {
	return i.state
}

// Active reports whether a workflow run is in progress. While active, Start
// requests are no-ops.
func (i *Installer) Active() bool {
	switch i.state {
	case StateChecking, StateAwaitingConfirmation, StateDownloading:
		return true
	}
	return false
}

// Start begins (or restarts) the workflow with a status query. Returns
// false when a run is already active.
func (i *Installer) Start() bool {
	if i.Active() {
		logging.Debug("Casting start ignored, workflow already active",
			zap.String("state", string(i.state)),
		)
		return false
	}

	i.setState(StateChecking)
	i.dispatcher.Send(protocol.NewCommand(protocol.CmdGetCastingStatus, CorrelationKey))
	return true
}

// HandleStatus processes a castingStatus event. Status events drive two
// transitions: answering the initial check, and detecting the
// install-completed edge during a download. In any other state the event
// is dropped.
func (i *Installer) HandleStatus(s protocol.CastingStatus) {
	switch i.state {
	case StateChecking:
		if s.IsInstalled() {
			i.launch()
			return
		}
		i.askForDownload()

	case StateDownloading:
		if s.IsInstalled() {
			// The one automatic install -> launch edge. Further
			// installed reports find the state at Launched and are
			// ignored, so the launch fires exactly once per download.
			i.launch()
		}

	default:
		logging.LogEventDropped(string(protocol.EvCastingStatus), CorrelationKey,
			"installer not awaiting status")
	}
}

// HandleProgress processes a download progress event. Progress outside the
// Downloading state is stale and dropped.
func (i *Installer) HandleProgress(p protocol.CastingDownloadProgress) {
	if i.state != StateDownloading {
		logging.LogEventDropped(string(protocol.EvCastingDownloadProgress), CorrelationKey,
			"installer not downloading")
		return
	}

	if i.notify == nil {
		return
	}
	if pct, ok := p.Percent(); ok {
		i.notify(Update{State: i.state, Percent: pct})
	} else {
		i.notify(Update{State: i.state, Indeterminate: true})
	}
}

// HandleDecision processes the operator's answer to the download prompt.
// seq must be the value passed to the gate's respond callback; stale
// answers are dropped.
func (i *Installer) HandleDecision(seq int, confirmed bool) {
	if i.state != StateAwaitingConfirmation || seq != i.confirmSeq {
		logging.Debug("Dropping stale confirmation response",
			zap.Int("seq", seq),
			zap.Bool("confirmed", confirmed),
		)
		return
	}

	if !confirmed {
		i.setState(StateCancelled)
		return
	}

	i.setState(StateDownloading)
	i.dispatcher.Send(protocol.NewCommand(protocol.CmdDownloadCastingBundle, CorrelationKey))
}

func (i *Installer) askForDownload() {
	i.confirmSeq++
	seq := i.confirmSeq
	i.setState(StateAwaitingConfirmation)

	i.gate.RequestConfirmation(
		"The casting bundle is not installed on the headset. Download and install it now?",
		func(confirmed bool) {
			i.HandleDecision(seq, confirmed)
		},
	)
}

func (i *Installer) launch() {
	i.dispatcher.Send(protocol.NewCommand(protocol.CmdStartCasting, CorrelationKey))
	i.setState(StateLaunched)
}

func (i *Installer) setState(s State) {
	if i.state == s {
		return
	}
	logging.Debug("Casting workflow transition",
		zap.String("from", string(i.state)),
		zap.String("to", string(s)),
	)
	i.state = s
	if i.notify != nil {
		i.notify(Update{State: s})
	}
}

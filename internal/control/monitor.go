package control

import (
	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// Monitor tracks the one unrecoverable condition in a session: a fatal
// agent failure. The transition is one-way; once failed, the session must
// not dispatch any further commands and can only be restarted from scratch.
//
// Monitor is owned by the session loop and is not safe for concurrent use.
type Monitor struct {
	failed  bool
	message string
}

// NewMonitor creates a monitor in the healthy state.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// HandleFatal records a fatal failure. Only the first failure is kept;
// later ones are logged and dropped.
func (m *Monitor) HandleFatal(f protocol.FatalFailure) {
	if m.failed {
		logging.Debug("Ignoring fatal event after terminal transition",
			zap.String("message", f.Message),
		)
		return
	}
	m.failed = true
	m.message = f.Message
	logging.Error("Agent reported fatal failure", zap.String("message", f.Message))
}

// Failed reports whether the session has hit its terminal error state.
func (m *Monitor) Failed() bool {
	return m.failed
}

// Message returns the failure message, or "" while healthy.
func (m *Monitor) Message() string {
	return m.message
}

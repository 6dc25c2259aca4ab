package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/visorctl/internal/control"
)

// Messages delivered by the session pumps

// sessionUpdateMsg carries one state change from the session loop
type sessionUpdateMsg struct {
	update control.Update
}

// sessionDoneMsg reports that the session loop has stopped
type sessionDoneMsg struct {
	err error
}

// notificationMsg carries a transient operator notification
type notificationMsg struct {
	notification control.Notification
}

// confirmMsg carries a pending yes/no decision for the operator
type confirmMsg struct {
	request *ConfirmRequest
}

// noticeExpiredMsg clears a transient notification after its duration
type noticeExpiredMsg struct {
	seq int
}

// ConfirmRequest is a yes/no decision waiting for the operator. Answer
// must be called exactly once.
type ConfirmRequest struct {
	Prompt  string
	respond func(confirmed bool)
	done    bool
}

// Answer reports the operator's decision. Repeated calls are ignored.
func (r *ConfirmRequest) Answer(confirmed bool) {
	if r.done {
		return
	}
	r.done = true
	r.respond(confirmed)
}

// ConfirmGate surfaces casting confirmations as dashboard modals instead of
// terminal prompts. It satisfies the casting gate interface; requests are
// consumed by the Bubble Tea event loop.
type ConfirmGate struct {
	requests chan *ConfirmRequest
}

// NewConfirmGate creates a gate for the dashboard
func NewConfirmGate() *ConfirmGate {
	return &ConfirmGate{
		requests: make(chan *ConfirmRequest, 1),
	}
}

// RequestConfirmation queues the decision for the dashboard modal.
func (g *ConfirmGate) RequestConfirmation(prompt string, respond func(confirmed bool)) {
	g.requests <- &ConfirmRequest{Prompt: prompt, respond: respond}
}

// ChannelNotifier forwards session notifications into the Bubble Tea loop.
// A full queue drops the oldest pending notification rather than blocking
// the session.
type ChannelNotifier struct {
	notifications chan control.Notification
}

// NewChannelNotifier creates a notifier for the dashboard
func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{
		notifications: make(chan control.Notification, 8),
	}
}

// Notify implements the session notifier.
func (n *ChannelNotifier) Notify(notification control.Notification) {
	for {
		select {
		case n.notifications <- notification:
			return
		default:
			select {
			case <-n.notifications:
			default:
			}
		}
	}
}

// --- Pump commands feeding session channels into the Bubble Tea loop ---

// waitForUpdate waits for the next session state change
func waitForUpdate(ch <-chan control.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return sessionUpdateMsg{update: u}
	}
}

// waitForDone waits for the session loop to stop
func waitForDone(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return sessionDoneMsg{}
		}
		return sessionDoneMsg{err: err}
	}
}

// waitForNotification waits for the next transient notification
func waitForNotification(n *ChannelNotifier) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg{notification: <-n.notifications}
	}
}

// waitForConfirm waits for the next confirmation request
func waitForConfirm(g *ConfirmGate) tea.Cmd {
	return func() tea.Msg {
		return confirmMsg{request: <-g.requests}
	}
}

package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/visorctl/internal/control"
)

// TerminalNotifier prints session notifications as styled single lines.
// One-shot commands use this instead of the dashboard's notification area.
type TerminalNotifier struct {
	// Out is the writer notifications are printed to. Defaults to os.Stdout
	// when nil.
	Out io.Writer
}

// Notify implements the session notifier by printing one styled line.
func (n *TerminalNotifier) Notify(notification control.Notification) {
	out := n.Out
	if out == nil {
		out = os.Stdout
	}

	var line string
	switch notification.Severity {
	case control.SeverityError:
		line = NotifyErrorStyle.Render(FailureMarker + " " + notification.Message)
	case control.SeverityWarning:
		line = NotifyWarningStyle.Render("⚠ " + notification.Message)
	default:
		line = NotifyInfoStyle.Render("• " + notification.Message)
	}

	_, _ = fmt.Fprintln(out, line)
}

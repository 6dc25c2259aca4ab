package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/visorctl/internal/control"
	"github.com/muurk/visorctl/internal/urls"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDashboard Screen = "dashboard"
	ScreenFailure   Screen = "failure"
)

// failureKeyMap defines key bindings for the failure screen
type failureKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

// AppModel is the top-level coordinator model. It pumps session updates,
// notifications, and confirmation requests into the Bubble Tea loop and
// routes everything else to the dashboard. A fatal agent failure switches
// to the terminal failure screen; there is no recovery from it.
type AppModel struct {
	CurrentScreen Screen

	Dashboard DashboardModel

	session  *control.Session
	gate     *ConfirmGate
	notifier *ChannelNotifier
	done     <-chan error

	// Failure state
	FailureMessage string

	// UI state
	Width  int
	Height int

	Help        help.Model
	FailureKeys failureKeyMap
}

// NewAppModel creates the application model over a running session.
// gate and notifier must be the same instances the session was built with.
func NewAppModel(session *control.Session, gate *ConfirmGate, notifier *ChannelNotifier, done <-chan error) AppModel {
	keys := failureKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "enter", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	return AppModel{
		CurrentScreen: ScreenDashboard,
		Dashboard:     NewDashboardModel(session),
		session:       session,
		gate:          gate,
		notifier:      notifier,
		done:          done,
		Help:          help.New(),
		FailureKeys:   keys,
	}
}

// Init starts the dashboard and all session pumps
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.Dashboard.Init(),
		waitForUpdate(m.session.Updates()),
		waitForConfirm(m.gate),
	}
	if m.notifier != nil {
		cmds = append(cmds, waitForNotification(m.notifier))
	}
	if m.done != nil {
		cmds = append(cmds, waitForDone(m.done))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to the dashboard too
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.CurrentScreen == ScreenFailure {
			if key.Matches(msg, m.FailureKeys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case sessionUpdateMsg:
		// A fatal update is terminal: switch screens and stop pumping.
		if fatal, ok := msg.update.(control.FatalUpdate); ok {
			m.CurrentScreen = ScreenFailure
			m.FailureMessage = fatal.Message
			return m, nil
		}
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, tea.Batch(cmd, waitForUpdate(m.session.Updates()))

	case notificationMsg:
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, tea.Batch(cmd, waitForNotification(m.notifier))

	case confirmMsg:
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, tea.Batch(cmd, waitForConfirm(m.gate))

	case sessionDoneMsg:
		if msg.err != nil {
			m.CurrentScreen = ScreenFailure
			if m.FailureMessage == "" {
				m.FailureMessage = msg.err.Error()
			}
			return m, nil
		}
		return m, tea.Quit
	}

	// Route everything else (spinner ticks, notice expiry) to the dashboard
	if m.CurrentScreen == ScreenDashboard {
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenFailure:
		return m.renderFailureScreen()
	default:
		return m.Dashboard.View()
	}
}

// renderFailureScreen renders the terminal agent-failure screen
func (m AppModel) renderFailureScreen() string {
	var b strings.Builder

	b.WriteString(RenderTitle("✗ Agent Failed"))
	b.WriteString("\n\n")

	if m.FailureMessage != "" {
		b.WriteString(ErrorBoxStyle.Render(m.FailureMessage))
		b.WriteString("\n\n")
	}

	b.WriteString("The connection to the agent is gone and this session cannot recover.\n\n")

	b.WriteString("Troubleshooting:\n")
	b.WriteString("  • Check the agent process is still running\n")
	b.WriteString("  • Verify the endpoint in the visorctl config file\n")
	b.WriteString("  • Restart visorctl to open a new session\n")
	b.WriteString("  • See " + urls.TroubleshootingGuide + "\n")

	helpText := m.Help.View(m.FailureKeys)
	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

// Run starts the full-screen dashboard over a running session and blocks
// until the operator quits or the session fails. done should receive the
// session Run result.
func Run(session *control.Session, gate *ConfirmGate, notifier *ChannelNotifier, done <-chan error) error {
	app := NewAppModel(session, gate, notifier, done)
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/visorctl/internal/casting"
	"github.com/muurk/visorctl/internal/control"
	"github.com/muurk/visorctl/internal/devices"
)

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Guardian  key.Binding
	Proximity key.Binding
	Bridge    key.Binding
	Cast      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Guardian, k.Proximity, k.Bridge, k.Cast, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Guardian, k.Proximity, k.Bridge, k.Cast},
		{k.Help, k.Quit},
	}
}

// notice is a transient notification shown in the dashboard status area
type notice struct {
	text     string
	severity control.Severity
}

// DashboardModel is the live headset control screen. All state shown here
// mirrors the session's updates; key presses only post requests back to the
// session and never mutate feature state directly.
type DashboardModel struct {
	Session *control.Session

	// Device state (mirrors the last DeviceUpdate)
	Devices     []devices.Descriptor
	Current     *devices.Descriptor
	OfferBridge bool

	// Per-headset pending bridge enables, keyed by true serial
	BridgePending map[string]bool

	// Feature toggle states (mirror ToggleUpdate)
	Guardian  control.ToggleState
	Proximity control.ToggleState

	// Casting workflow state (mirrors CastingUpdate)
	Casting casting.Update

	// Pending yes/no decision, shown as a modal
	Confirm *ConfirmRequest

	// Transient notification
	Notice    *notice
	noticeSeq int

	// UI state
	Width       int
	Height      int
	Cursor      int // Selected row in the headset list
	ShowingHelp bool

	Spinner     spinner.Model
	DownloadBar progress.Model
	Help        help.Model
	Keys        dashboardKeyMap
}

// NewDashboardModel creates the dashboard bound to a running session
func NewDashboardModel(session *control.Session) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	h := help.New()

	keys := dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select headset"),
		),
		Guardian: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "guardian"),
		),
		Proximity: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "proximity"),
		),
		Bridge: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wireless bridge"),
		),
		Cast: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cast"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return DashboardModel{
		Session:       session,
		BridgePending: make(map[string]bool),
		Spinner:       s,
		DownloadBar:   bar,
		Help:          h,
		Keys:          keys,
	}
}

// Init starts the spinner
func (m DashboardModel) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case sessionUpdateMsg:
		m.applyUpdate(msg.update)
		return m, nil

	case notificationMsg:
		m.noticeSeq++
		m.Notice = &notice{
			text:     msg.notification.Message,
			severity: msg.notification.Severity,
		}
		duration := msg.notification.Duration
		if duration <= 0 {
			duration = 4 * time.Second
		}
		seq := m.noticeSeq
		return m, tea.Tick(duration, func(time.Time) tea.Msg {
			return noticeExpiredMsg{seq: seq}
		})

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.Notice = nil
		}
		return m, nil

	case confirmMsg:
		m.Confirm = msg.request
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyUpdate folds one session state change into the model
func (m *DashboardModel) applyUpdate(u control.Update) {
	switch u := u.(type) {
	case control.ToggleUpdate:
		switch u.Key {
		case control.KeyGuardian:
			m.Guardian = u.State
		case control.KeyProximity:
			m.Proximity = u.State
		}

	case control.DeviceUpdate:
		m.Devices = u.Devices
		m.Current = u.Current
		m.OfferBridge = u.OfferBridge
		if m.Cursor >= len(m.Devices) {
			m.Cursor = len(m.Devices) - 1
		}
		if m.Cursor < 0 {
			m.Cursor = 0
		}

	case control.BridgeUpdate:
		if u.Pending {
			m.BridgePending[u.TrueSerial] = true
		} else {
			delete(m.BridgePending, u.TrueSerial)
		}

	case control.CastingUpdate:
		m.Casting = u.Update
	}
}

// handleKey processes key presses
func (m DashboardModel) handleKey(msg tea.KeyMsg) (DashboardModel, tea.Cmd) {
	// A pending confirmation modal captures y/n/esc
	if m.Confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			m.Confirm.Answer(true)
			m.Confirm = nil
		case "n", "N", "esc":
			m.Confirm.Answer(false)
			m.Confirm = nil
		case "ctrl+c":
			m.Confirm.Answer(false)
			m.Confirm = nil
			return m, tea.Quit
		}
		return m, nil
	}

	if m.ShowingHelp {
		// Any key dismisses the help overlay
		if msg.String() != "ctrl+c" {
			m.ShowingHelp = false
			return m, nil
		}
		return m, tea.Quit
	}

	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Devices)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.Keys.Select):
		if m.Cursor >= 0 && m.Cursor < len(m.Devices) {
			m.Session.SelectDevice(m.Devices[m.Cursor].Serial)
		}

	case key.Matches(msg, m.Keys.Guardian):
		paused, _ := m.Guardian.Displayed()
		m.Session.RequestGuardianPause(!paused)

	case key.Matches(msg, m.Keys.Proximity):
		enabled, known := m.Proximity.Displayed()
		if !known {
			enabled = false
		}
		m.Session.RequestProximitySensor(!enabled)

	case key.Matches(msg, m.Keys.Bridge):
		m.Session.EnableWirelessBridge()

	case key.Matches(msg, m.Keys.Cast):
		m.Session.StartCasting()

	case key.Matches(msg, m.Keys.Help):
		m.ShowingHelp = true
	}

	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.ShowingHelp {
		helpContent := RenderTitle("Key Bindings") + "\n\n" + m.Help.FullHelpView(m.Keys.FullHelp())
		return RenderApplicationContainer(helpContent, "press any key to close", m.Width, m.Height)
	}

	content := m.buildContent()

	if m.Confirm != nil {
		modal := m.renderConfirmModal()
		return RenderModal(modal, m.Width, m.Height)
	}

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// buildContent builds the dashboard body
func (m DashboardModel) buildContent() string {
	var b strings.Builder

	b.WriteString(m.renderDeviceSection())
	b.WriteString("\n")
	b.WriteString(m.renderFeatureSection())
	b.WriteString("\n")
	b.WriteString(m.renderCastingSection())

	if m.Notice != nil {
		b.WriteString("\n\n")
		b.WriteString(m.renderNotice())
	}

	return b.String()
}

// renderDeviceSection renders the headset list
func (m DashboardModel) renderDeviceSection() string {
	var b strings.Builder

	b.WriteString(SectionTitleStyle.Render("HEADSETS"))
	b.WriteString("\n")

	if len(m.Devices) == 0 {
		b.WriteString(SubtitleStyle.Render("  No headsets detected. Connect one over USB."))
		b.WriteString("\n")
		return b.String()
	}

	for i, d := range m.Devices {
		line := m.renderDeviceLine(d)
		b.WriteString(RenderMenuItem(line, i == m.Cursor))
		b.WriteString("\n")
	}

	if m.OfferBridge {
		hint := fmt.Sprintf("  %s wireless bridge available — press w to enable", "⇅")
		b.WriteString(NoticeInfoStyle.Render(hint))
		b.WriteString("\n")
	}

	return b.String()
}

// renderDeviceLine renders one row of the headset list
func (m DashboardModel) renderDeviceLine(d devices.Descriptor) string {
	var stateStyle lipgloss.Style
	switch d.State {
	case devices.StateDevice:
		stateStyle = DeviceConnectedStyle
	case devices.StateUnauthorized:
		stateStyle = DeviceUnauthorizedStyle
	default:
		stateStyle = DeviceOfflineStyle
	}

	marker := " "
	if m.Current != nil && m.Current.Serial == d.Serial {
		marker = "*"
	}

	line := fmt.Sprintf("%s %s  [%s]  %s",
		marker,
		d.Serial,
		FormatTransport(string(d.Transport)),
		stateStyle.Render(string(d.State)),
	)

	if m.BridgePending[d.TrueSerial] {
		line += "  " + ToggleUpdatingStyle.Render(m.Spinner.View()+"enabling bridge…")
	}

	return line
}

// renderFeatureSection renders the toggle rows
func (m DashboardModel) renderFeatureSection() string {
	var b strings.Builder

	b.WriteString(SectionTitleStyle.Render("FEATURES"))
	b.WriteString("\n")

	b.WriteString(m.renderToggleLine("Guardian paused", "g", m.Guardian))
	b.WriteString("\n")
	b.WriteString(m.renderToggleLine("Proximity sensor", "p", m.Proximity))
	b.WriteString("\n")

	return b.String()
}

// renderToggleLine renders one feature toggle row
func (m DashboardModel) renderToggleLine(label, keyHint string, state control.ToggleState) string {
	value, known := state.Displayed()

	valueText := FormatToggle(value, known, state.Updating)
	if state.Updating {
		valueText = m.Spinner.View() + valueText
	}

	labelStyled := lipgloss.NewStyle().
		Foreground(TextColor).
		Width(22).
		Render(label)

	hint := SubtitleStyle.Render("(" + keyHint + ")")

	return fmt.Sprintf("  %s %s  %s", labelStyled, valueText, hint)
}

// renderCastingSection renders the casting workflow state
func (m DashboardModel) renderCastingSection() string {
	var b strings.Builder

	b.WriteString(SectionTitleStyle.Render("CASTING"))
	b.WriteString("\n")

	switch m.Casting.State {
	case casting.StateChecking:
		b.WriteString("  " + m.Spinner.View() + ToggleUpdatingStyle.Render("checking installation…"))

	case casting.StateAwaitingConfirmation:
		b.WriteString("  " + NoticeWarningStyle.Render("waiting for confirmation"))

	case casting.StateDownloading:
		if m.Casting.Indeterminate {
			b.WriteString("  " + m.Spinner.View() + ToggleUpdatingStyle.Render("downloading…"))
		} else {
			bar := m.DownloadBar.ViewAs(float64(m.Casting.Percent) / 100)
			b.WriteString(fmt.Sprintf("  downloading  %s %3d%%", bar, m.Casting.Percent))
		}

	case casting.StateLaunched:
		b.WriteString("  " + ToggleOnStyle.Render("✓ launched"))

	case casting.StateCancelled:
		b.WriteString("  " + SubtitleStyle.Render("cancelled — press c to retry"))

	default:
		b.WriteString("  " + SubtitleStyle.Render("not started — press c to begin"))
	}

	b.WriteString("\n")
	return b.String()
}

// renderNotice renders the transient notification line
func (m DashboardModel) renderNotice() string {
	var style lipgloss.Style
	var marker string

	switch m.Notice.severity {
	case control.SeverityError:
		style = NoticeErrorStyle
		marker = "✗"
	case control.SeverityWarning:
		style = NoticeWarningStyle
		marker = "⚠"
	default:
		style = NoticeInfoStyle
		marker = "•"
	}

	return style.Render(fmt.Sprintf("  %s %s", marker, m.Notice.text))
}

// renderConfirmModal renders the pending yes/no decision
func (m DashboardModel) renderConfirmModal() string {
	width := SafeModalWidth(64, m.Width)

	var b strings.Builder
	b.WriteString(NoticeWarningStyle.Render("Confirmation required"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(TextColor).Width(width - 8).Render(m.Confirm.Prompt))
	b.WriteString("\n\n")
	b.WriteString(SubtitleStyle.Render("y/enter confirm · n/esc decline"))

	return WarningBoxStyle.Width(width).Render(b.String())
}

package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a styled yes/no prompt and reads the answer from in.
// Returns true only when the user answers "y" or "yes" (case-insensitive).
func Confirm(prompt string, in io.Reader) bool {
	if in == nil {
		in = os.Stdin
	}

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Print(promptStyle.Render(prompt + " [y/N]: "))

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	fmt.Println()
	return input == "y" || input == "yes"
}

// ConfirmBoxed displays a warning box with bullet points before the prompt.
// Used for decisions the operator should read carefully, such as agreeing to
// a large download.
func ConfirmBoxed(title string, points []string, prompt string, in io.Reader) bool {
	width := GetTerminalWidth()
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  %s", title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	for _, point := range points {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+point))
	}
	lines = append(lines, "")

	content := strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(content)

	fmt.Println(box)
	fmt.Println()

	if !Confirm(prompt, in) {
		cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
		fmt.Println(cancelStyle.Render("  Cancelled."))
		fmt.Println()
		return false
	}
	return true
}

// TerminalGate asks casting confirmation questions on the terminal. It reads
// the answer synchronously and reports it through the respond callback, which
// matches the decision flow used by the casting installer.
type TerminalGate struct {
	// In is the reader used for answers. Defaults to os.Stdin when nil.
	In io.Reader

	// AssumeYes skips the prompt and confirms immediately. Set by the
	// --yes flag on one-shot commands.
	AssumeYes bool
}

// RequestConfirmation prompts the operator and reports the decision.
func (g *TerminalGate) RequestConfirmation(prompt string, respond func(confirmed bool)) {
	if g.AssumeYes {
		respond(true)
		return
	}
	respond(Confirm(prompt, g.In))
}

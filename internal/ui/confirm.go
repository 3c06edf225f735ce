package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmAnswer is what the user must type to proceed
const ConfirmAnswer = "yes"

// Confirm shows a warning box listing the changes and reads one line from
// in. It returns true only when the line is "yes".
func Confirm(in io.Reader, out io.Writer, title string, changes []string, warnings []string) bool {
	width := GetTerminalWidth()

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   %s  CONFIRM  ─  %s", WarningMarker, title))
	lines := []string{"", titleLine, ""}

	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, c := range changes {
		lines = append(lines, bullet.Render("   • "+c))
	}
	if len(warnings) > 0 {
		lines = append(lines, "")
		note := lipgloss.NewStyle().Foreground(WarningColor).Italic(true)
		for _, w := range warnings {
			lines = append(lines, note.Render("   "+w))
		}
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Fprintln(out, box)
	fmt.Fprintln(out)

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	fmt.Fprint(out, prompt.Render(fmt.Sprintf("Type %q to apply: ", ConfirmAnswer)))

	input, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}
	if strings.TrimSpace(input) == ConfirmAnswer {
		return true
	}

	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}

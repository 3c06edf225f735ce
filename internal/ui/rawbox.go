package ui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RawBox shows a raw telegram, pretty-printed when it is JSON
type RawBox struct {
	Title    string
	Lines    []string
	Width    int
	MaxLines int // 0 is unlimited
}

// NewRawBox creates a box for content
func NewRawBox(title, content string) *RawBox {
	return &RawBox{
		Title: title,
		Lines: strings.Split(PrettyJSON(content), "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the width for responsive rendering
func (b *RawBox) SetWidth(width int) *RawBox {
	b.Width = width
	return b
}

// SetMaxLines limits the number of lines shown
func (b *RawBox) SetMaxLines(n int) *RawBox {
	b.MaxLines = n
	return b
}

// Render returns the styled box
func (b *RawBox) Render() string {
	lines := b.Lines
	if b.MaxLines > 0 && len(lines) > b.MaxLines {
		lines = append(lines[:b.MaxLines:b.MaxLines], "... (truncated)")
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		RawTitleStyle.Render(b.Title),
		"",
		RawContentStyle.Render(strings.Join(lines, "\n")),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(max(b.Width, MinTerminalWidth)-4, 40)).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}

// PrettyJSON indents text when it is valid JSON and returns it unchanged
// otherwise
func PrettyJSON(text string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
		return text
	}
	return buf.String()
}

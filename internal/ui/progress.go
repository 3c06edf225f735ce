package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step of an operation
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is a single step of a multi-step operation
type Step struct {
	Number  int // 1-based
	Name    string
	Status  StepStatus
	Message string // optional note, e.g. "412ms"
}

// Progress tracks the steps of an operation and renders a bar and step list
type Progress struct {
	Steps   []Step
	Current int
	Percent float64
	Width   int
	bar     progress.Model
}

// NewProgress creates a tracker for the named steps
func NewProgress(names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	p := &Progress{Steps: steps}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sizes the bar for the given terminal width
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(min(max(width-20, 20), 50)),
	)
	return p
}

// UpdateStep sets the status and note of a step. Out of range steps are
// ignored.
func (p *Progress) UpdateStep(number int, status StepStatus, message string) {
	if number < 1 || number > len(p.Steps) {
		return
	}
	p.Steps[number-1].Status = status
	p.Steps[number-1].Message = message

	if status == StepRunning {
		p.Current = number
		return
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	p.Percent = float64(done) / float64(len(p.Steps))
}

// Render returns the bar followed by the step list
func (p *Progress) Render() string {
	lines := []string{p.renderBar(), ""}
	for _, s := range p.Steps {
		lines = append(lines, p.renderStepLine(s))
	}
	return strings.Join(lines, "\n")
}

func (p *Progress) renderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  [%d/%d]", p.bar.ViewAs(p.Percent), p.Current, len(p.Steps)))
}

func (p *Progress) renderStepLine(s Step) string {
	var (
		marker string
		style  lipgloss.Style
	)
	switch s.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = "-", StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", s.Number, len(p.Steps))
	b.WriteString(style.Render(padRight(s.Name, 40)))
	b.WriteString(" ")
	b.WriteString(style.Render(marker))
	if s.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + s.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback reports progress of a running operation
type StepCallback func(number int, status StepStatus, message string)

package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes an operation run under a Runner
type RunnerConfig struct {
	Title     string  // e.g., "Configure interface"
	Command   string  // full command line for the header
	Params    []Param // shown in the header
	StepNames []string
	Verbose   bool      // show the raw box after the result
	Output    io.Writer // default os.Stdout

	// Troubleshoot maps an error to tips for the failure box. Nil shows none.
	Troubleshoot func(error) []string
}

// Runner prints header, step lines and a result box around an operation
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	out      io.Writer
	raw      string
	rawTitle string
	width    int
}

// Operation is the work done under a Runner. It reports progress through
// onStep and returns details for the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Param, error)

// NewRunner creates a runner sized to the terminal
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()
	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		progress: NewProgress(config.StepNames...).SetWidth(width),
		out:      config.Output,
		width:    width,
	}
}

// SetRaw stores raw protocol text shown in verbose mode
func (r *Runner) SetRaw(title, raw string) {
	r.rawTitle = title
	r.raw = raw
}

// Run prints the header, runs op and prints the result. It returns op's
// error.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()
	fmt.Fprintln(r.out, r.header.Render())
	fmt.Fprintln(r.out)

	details, err := op(ctx, r.onStep)
	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Fprintln(r.out)

	var result *Result
	if err != nil {
		var tips []string
		if r.config.Troubleshoot != nil {
			tips = r.config.Troubleshoot(err)
		}
		result = NewFailureResult(r.config.Title+" failed", err, tips)
		result.AddDetail("Duration", elapsed.String())
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details...)
		result.AddDetail("Duration", elapsed.String())
	}
	fmt.Fprintln(r.out, result.SetWidth(r.width).Render())

	if r.config.Verbose && r.raw != "" {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, NewRawBox(r.rawTitle, r.raw).SetWidth(r.width).Render())
	}
	return err
}

func (r *Runner) onStep(number int, status StepStatus, message string) {
	r.progress.UpdateStep(number, status, message)
	if number < 1 || number > len(r.progress.Steps) {
		return
	}
	line := r.progress.renderStepLine(r.progress.Steps[number-1])
	if status == StepRunning {
		// overwritten when the step finishes
		fmt.Fprint(r.out, line+"\r")
		return
	}
	fmt.Fprintln(r.out, line)
}

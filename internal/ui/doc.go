// Package ui renders the run-once terminal output of the devscan commands:
// command headers, step progress, result boxes, confirmation prompts and
// device and adapter tables.
//
// Everything is drawn with Lipgloss and written to an io.Writer, so
// machine-readable output (compact, print) stays on stdout untouched while
// these components are used for human output. Widths follow the terminal
// via x/term and are clamped between MinTerminalWidth and MaxContentWidth.
//
// A configure run looks like this:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Configure interface",
//	    Command:   "devscan configure 0009E5001C49 eth0 dhcp",
//	    StepNames: []string{"Send request", "Wait for response"},
//	})
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// Logging stays silent unless DEVSCAN_LOG_LEVEL or --log-level is set, so
// the curated output is not interleaved with log lines.
package ui

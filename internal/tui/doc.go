// Package tui implements the full-screen live device table behind
// "devscan watch".
//
// The screen is a Bubble Tea program following the Model-Update-View
// pattern. Receiver callbacks run on the receiver's event loop goroutine and
// are turned into messages with Attach, so all model state is only touched
// by the program.
//
// # Framework Components
//
//   - bubbles/table: the device table with cursor navigation
//   - bubbles/spinner: the listening indicator
//   - bubbles/help and bubbles/key: key bindings and the footer
//   - lipgloss: styling and the application container
//
// # Usage Example
//
//	r, err := receiver.New()
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	return tui.Run(r, registry.Nickname)
package tui

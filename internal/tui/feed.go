package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/logging"
	"go.uber.org/zap"
)

// Source is the part of a receiver the watch screen listens to
type Source interface {
	SetAnnounceCb(cb discovery.AnnounceFunc)
	SetExpireCb(cb discovery.ExpireFunc)
	SetErrorCb(cb discovery.ErrorFunc)
	Start() error
	Stop()
}

// Attach routes the callbacks of src into send. Announcements that cannot
// be summarised are dropped.
func Attach(src Source, send func(tea.Msg)) {
	src.SetAnnounceCb(func(path discovery.Path, payload string) {
		d, err := discovery.NewDevice(path, payload, time.Now())
		if err != nil {
			logging.Debug("Dropping announcement", zap.String("path", path.Key()), zap.Error(err))
			return
		}
		send(announceMsg{device: d})
	})
	src.SetExpireCb(func(path discovery.Path) {
		send(expireMsg{path: path})
	})
	src.SetErrorCb(func(code discovery.ErrorCode, message string, _ string) {
		send(errorMsg{code: code, message: message})
	})
}

// Run shows the live table until the user quits or src fails
func Run(src Source, nickname func(uuid string) string) error {
	p := tea.NewProgram(NewWatchModel(nickname), tea.WithAltScreen())
	Attach(src, p.Send)

	done := make(chan error, 1)
	go func() {
		err := src.Start()
		if err != nil {
			p.Send(stoppedMsg{err: err})
		}
		done <- err
	}()

	final, err := p.Run()
	src.Stop()
	recvErr := <-done
	if err != nil {
		return err
	}
	if m, ok := final.(WatchModel); ok && m.Err() != nil {
		return m.Err()
	}
	return recvErr
}

package eventloop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/muurk/devscan/internal/logging"
)

// maxEvents bounds the readiness events fetched per epoll_wait.
const maxEvents = 64

var (
	// ErrRemove may be returned by a Handler to deregister itself quietly.
	ErrRemove = errors.New("remove handler")

	// ErrRunning is returned when Execute is entered while the loop is
	// already running on another goroutine.
	ErrRunning = errors.New("event loop already running")
)

// Handler is invoked on the loop goroutine when its Waitable is readable.
// A non-nil error deregisters the handler; the loop keeps running.
type Handler func() error

// Status tells why Execute or ExecuteFor returned.
type Status int

const (
	// StatusStopped means Stop was called.
	StatusStopped Status = iota
	// StatusTimedOut means the ExecuteFor duration elapsed.
	StatusTimedOut
	// StatusFailed means the multiplexer itself failed.
	StatusFailed
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusTimedOut:
		return "timed out"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type change struct {
	fd      int
	handler Handler
}

// Loop is a single-goroutine reactor over epoll. Registrations may be
// changed from any goroutine; they are queued and applied by the loop
// goroutine itself.
type Loop struct {
	epfd    *FD
	stop    *Notifier
	changed *Notifier

	mu      sync.Mutex
	pending []change
	erased  map[int]struct{}

	// owned by the loop goroutine
	handlers map[int]Handler

	running atomic.Bool
}

// New creates a loop. An error here means the process cannot run a reactor
// at all and should be treated as fatal.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	l := &Loop{
		epfd:     NewFD(epfd),
		erased:   make(map[int]struct{}),
		handlers: make(map[int]Handler),
	}

	if l.stop, err = NewNotifier(); err != nil {
		l.epfd.Close()
		return nil, fmt.Errorf("stop notifier: %w", err)
	}
	if l.changed, err = NewNotifier(); err != nil {
		l.stop.Close()
		l.epfd.Close()
		return nil, fmt.Errorf("change notifier: %w", err)
	}

	for _, n := range []*Notifier{l.stop, l.changed} {
		if err := l.ctl(unix.EPOLL_CTL_ADD, n.Fd()); err != nil {
			l.Close()
			return nil, err
		}
	}
	return l, nil
}

// AddEvent registers h for w, replacing any previous handler. A nil handler
// is the same as EraseEvent. Safe from any goroutine.
func (l *Loop) AddEvent(w Waitable, h Handler) {
	fd := w.Fd()
	if fd < 0 {
		logging.Warn("Ignoring registration of closed descriptor")
		return
	}

	l.mu.Lock()
	l.pending = append(l.pending, change{fd: fd, handler: h})
	if h == nil {
		l.erased[fd] = struct{}{}
	} else {
		delete(l.erased, fd)
	}
	l.mu.Unlock()

	if err := l.changed.Notify(); err != nil {
		logging.Error("Failed to wake event loop", zap.Error(err))
	}
}

// EraseEvent deregisters w. Safe from any goroutine, including from inside
// a handler. A handle erased during a dispatch pass is not dispatched again.
func (l *Loop) EraseEvent(w Waitable) {
	fd := w.Fd()
	if fd < 0 {
		return
	}
	l.AddEvent(w, nil)
}

// Stop makes Execute return StatusStopped. Idempotent and safe from any
// goroutine.
func (l *Loop) Stop() {
	if err := l.stop.Notify(); err != nil {
		logging.Error("Failed to signal event loop stop", zap.Error(err))
	}
}

// Execute runs until Stop is called or the multiplexer fails.
func (l *Loop) Execute() (Status, error) {
	return l.run(time.Time{})
}

// ExecuteFor runs until d elapses, Stop is called or the multiplexer fails.
// A zero duration runs forever.
func (l *Loop) ExecuteFor(d time.Duration) (Status, error) {
	if d == 0 {
		return l.Execute()
	}
	return l.run(time.Now().Add(d))
}

func (l *Loop) run(deadline time.Time) (Status, error) {
	if !l.running.CompareAndSwap(false, true) {
		return StatusFailed, ErrRunning
	}
	defer l.running.Store(false)

	l.applyChanges()

	stopFd := l.stop.Fd()
	changedFd := l.changed.Fd()
	events := make([]unix.EpollEvent, maxEvents)

	for {
		timeout := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return StatusTimedOut, nil
			}
			timeout = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		n, err := unix.EpollWait(l.epfd.Fd(), events, timeout)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return StatusFailed, fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			if int(events[i].Fd) == stopFd {
				if _, err := l.stop.Drain(); err != nil {
					logging.Warn("Failed to drain stop notifier", zap.Error(err))
				}
				return StatusStopped, nil
			}
		}

		changed := false
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == changedFd {
				changed = true
				continue
			}
			l.dispatch(fd)
		}

		if changed {
			if _, err := l.changed.Drain(); err != nil {
				logging.Warn("Failed to drain change notifier", zap.Error(err))
			}
			l.applyChanges()
		}
	}
}

func (l *Loop) dispatch(fd int) {
	h, ok := l.handlers[fd]
	if !ok {
		return
	}

	l.mu.Lock()
	_, gone := l.erased[fd]
	l.mu.Unlock()
	if gone {
		return
	}

	err := invoke(h)
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrRemove):
		logging.Debug("Handler requested removal", zap.Int("fd", fd))
	default:
		logging.Warn("Removing failed event handler", zap.Int("fd", fd), zap.Error(err))
	}
	l.remove(fd)
}

func invoke(h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h()
}

func (l *Loop) applyChanges() {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	clear(l.erased)
	l.mu.Unlock()

	for _, c := range pending {
		l.remove(c.fd)
		if c.handler == nil {
			continue
		}
		if err := l.ctl(unix.EPOLL_CTL_ADD, c.fd); err != nil {
			logging.Error("Failed to register event", zap.Int("fd", c.fd), zap.Error(err))
			continue
		}
		l.handlers[c.fd] = c.handler
	}
}

func (l *Loop) remove(fd int) {
	if _, ok := l.handlers[fd]; !ok {
		return
	}
	delete(l.handlers, fd)
	if err := l.ctl(unix.EPOLL_CTL_DEL, fd); err != nil {
		// closed descriptors leave the epoll set on their own
		logging.Debug("epoll_ctl del", zap.Int("fd", fd), zap.Error(err))
	}
}

func (l *Loop) ctl(op int, fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if op == unix.EPOLL_CTL_DEL {
		if err := unix.EpollCtl(l.epfd.Fd(), op, fd, nil); err != nil {
			return fmt.Errorf("epoll_ctl: %w", err)
		}
		return nil
	}
	if err := unix.EpollCtl(l.epfd.Fd(), op, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl: %w", err)
	}
	return nil
}

// Close releases the epoll descriptor and the built-in notifiers. It must
// not be called while Execute is running.
func (l *Loop) Close() error {
	var errs []error
	if l.changed != nil {
		errs = append(errs, l.changed.Close())
	}
	if l.stop != nil {
		errs = append(errs, l.stop.Close())
	}
	errs = append(errs, l.epfd.Close())
	return errors.Join(errs...)
}

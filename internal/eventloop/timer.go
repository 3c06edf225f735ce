package eventloop

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ErrInvalidPeriod is returned by Timer.Set for a non-positive period.
var ErrInvalidPeriod = errors.New("timer period must be positive")

// Timer is a one-shot or periodic timer backed by a timerfd and driven by a
// Loop. Its handler runs on the loop goroutine with fired=true on expiry.
// Cancel invokes the handler once with fired=false if the timer was armed.
type Timer struct {
	loop *Loop
	fd   *FD

	mu       sync.Mutex
	handler  func(fired bool)
	armed    bool
	repeated bool
}

// NewTimer creates a disarmed timer owned by loop.
func NewTimer(loop *Loop) (*Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("timerfd_create: %w", err)
	}
	return &Timer{loop: loop, fd: NewFD(fd)}, nil
}

// Fd implements Waitable.
func (t *Timer) Fd() int {
	return t.fd.Fd()
}

// Set arms the timer. A timer that is already armed is canceled first, so
// the previous handler receives its cancel notice.
func (t *Timer) Set(period time.Duration, repeated bool, handler func(fired bool)) error {
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if err := t.Cancel(); err != nil {
		return err
	}

	its := unix.ItimerSpec{Value: unix.NsecToTimespec(period.Nanoseconds())}
	if repeated {
		its.Interval = its.Value
	}

	t.mu.Lock()
	t.handler = handler
	t.repeated = repeated
	t.armed = true
	t.mu.Unlock()

	if err := unix.TimerfdSettime(t.fd.Fd(), 0, &its, nil); err != nil {
		t.mu.Lock()
		t.armed = false
		t.mu.Unlock()
		return fmt.Errorf("timerfd_settime: %w", err)
	}

	t.loop.AddEvent(t, t.process)
	return nil
}

// Armed reports whether the timer is waiting to fire.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Cancel disarms the timer. If it was armed, the handler is called once with
// fired=false on the calling goroutine. Canceling a disarmed timer does
// nothing.
func (t *Timer) Cancel() error {
	t.mu.Lock()
	wasArmed := t.armed
	handler := t.handler
	t.armed = false
	t.mu.Unlock()

	if !wasArmed {
		return nil
	}

	var disarm unix.ItimerSpec
	err := unix.TimerfdSettime(t.fd.Fd(), 0, &disarm, nil)
	t.loop.EraseEvent(t)

	if handler != nil {
		handler(false)
	}
	if err != nil {
		return fmt.Errorf("timerfd_settime: %w", err)
	}
	return nil
}

// Close cancels the timer, removes it from the loop and releases the
// timerfd. The handler is never called with fired=true after Close starts.
func (t *Timer) Close() error {
	cancelErr := t.Cancel()
	t.loop.EraseEvent(t)
	if err := t.fd.Close(); err != nil {
		return err
	}
	return cancelErr
}

func (t *Timer) process() error {
	var buf [8]byte
	_, err := unix.Read(t.fd.Fd(), buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// disarmed between wakeup and read
		return nil
	}
	if err != nil {
		return fmt.Errorf("timer read: %w", err)
	}

	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return nil
	}
	if !t.repeated {
		t.armed = false
	}
	handler := t.handler
	t.mu.Unlock()

	// Several missed expirations are reported as one.
	if handler != nil {
		handler(true)
	}
	return nil
}

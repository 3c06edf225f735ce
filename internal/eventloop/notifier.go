package eventloop

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Notifier is a wakeup signal backed by an eventfd. Any number of Notify
// calls made before a Drain collapse into one readiness event.
type Notifier struct {
	fd *FD
}

// NewNotifier creates a notifier. The descriptor is non-blocking.
func NewNotifier() (*Notifier, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Notifier{fd: NewFD(fd)}, nil
}

// Fd implements Waitable.
func (n *Notifier) Fd() int {
	return n.fd.Fd()
}

// Notify marks the notifier ready. Safe from any goroutine.
func (n *Notifier) Notify() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(n.fd.Fd(), buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// counter saturated, already pending
		return nil
	}
	return err
}

// Drain consumes all pending notifications and returns how many were
// coalesced. It returns 0 when none were pending.
func (n *Notifier) Drain() (uint64, error) {
	var buf [8]byte
	_, err := unix.Read(n.fd.Fd(), buf[:])
	if errors.Is(err, unix.EAGAIN) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

// Close releases the eventfd.
func (n *Notifier) Close() error {
	return n.fd.Close()
}

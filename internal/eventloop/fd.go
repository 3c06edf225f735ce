package eventloop

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Waitable is anything the loop can poll for readability.
type Waitable interface {
	Fd() int
}

// FD owns a file descriptor. Close releases it exactly once; afterwards Fd
// reports -1. An FD must not be copied after first use.
type FD struct {
	mu sync.Mutex
	fd int
}

// NewFD takes ownership of fd.
func NewFD(fd int) *FD {
	return &FD{fd: fd}
}

// Fd returns the descriptor, or -1 once closed.
func (f *FD) Fd() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fd
}

// Close closes the descriptor. Subsequent calls are no-ops.
func (f *FD) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	return err
}

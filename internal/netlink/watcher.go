package netlink

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/muurk/devscan/internal/eventloop"
	"github.com/muurk/devscan/internal/logging"
)

const receiveBufferSize = 65536

// Handler receives interface events on the loop goroutine.
type Handler func(Event)

// Watcher listens for rtnetlink address and link notifications and reports
// them as Events through the event loop.
type Watcher struct {
	loop    *eventloop.Loop
	sock    *eventloop.FD
	handler Handler
	buf     []byte
	seq     atomic.Uint32
}

// NewWatcher creates a stopped watcher.
func NewWatcher(loop *eventloop.Loop) *Watcher {
	return &Watcher{loop: loop}
}

// Start opens the netlink socket, asks the kernel for the current IPv4
// addresses and registers with the loop. The dump shows up as Added events
// followed by a Reset.
func (w *Watcher) Start(handler Handler) error {
	if w.sock != nil {
		w.Stop()
	}

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return fmt.Errorf("open netlink socket: %w", err)
	}
	sock := eventloop.NewFD(fd)

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR,
	}
	if err := unix.Bind(fd, addr); err != nil {
		sock.Close()
		return fmt.Errorf("bind netlink socket: %w", err)
	}

	req := dumpRequest(w.seq.Add(1))
	if err := unix.Sendto(fd, req, 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		sock.Close()
		return fmt.Errorf("request address dump: %w", err)
	}

	w.sock = sock
	w.handler = handler
	w.buf = make([]byte, receiveBufferSize)
	w.loop.AddEvent(sock, w.process)
	return nil
}

// Stop deregisters and closes the socket. Safe to call more than once.
func (w *Watcher) Stop() {
	if w.sock == nil {
		return
	}
	w.loop.EraseEvent(w.sock)
	if err := w.sock.Close(); err != nil {
		logging.Debug("Failed to close netlink socket", zap.Error(err))
	}
	w.sock = nil
}

func (w *Watcher) process() error {
	for {
		n, _, err := unix.Recvfrom(w.sock.Fd(), w.buf, 0)
		switch {
		case errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.ENOBUFS):
			// the kernel dropped notifications, start over
			logging.Warn("Netlink receive buffer overrun")
			w.emit(Event{Kind: Reset})
			continue
		case err != nil:
			return fmt.Errorf("netlink receive: %w", err)
		}

		events, err := ParseMessages(w.buf[:n])
		if err != nil {
			logging.Warn("Malformed netlink message", zap.Error(err))
		}
		for _, ev := range events {
			w.emit(ev)
		}
	}
}

func (w *Watcher) emit(ev Event) {
	if ev.Kind != Reset {
		logging.LogInterfaceEvent(ev.Kind.String(), ev.Index, ev.Address.String())
	}
	if w.handler != nil {
		w.handler(ev)
	}
}

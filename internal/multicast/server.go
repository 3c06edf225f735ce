package multicast

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/muurk/devscan/internal/eventloop"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/netadapter"
)

// MaxDatagramSize is the largest datagram the protocols carry.
const MaxDatagramSize = 65536

// DefaultTTL keeps datagrams on the local segment.
const DefaultTTL = 1

// DataHandler is called on the loop goroutine when the receive socket is
// readable. It should call ReceiveTelegram until it reports no data.
type DataHandler func(s *Server) error

// Server owns one receive and one send socket for a multicast group and
// port. It is not safe for concurrent use except for the send methods;
// everything else belongs to the loop goroutine.
type Server struct {
	adapters *netadapter.List
	loop     *eventloop.Loop

	group   netip.Addr
	port    int
	handler DataHandler

	recv *eventloop.FD

	sendMu sync.Mutex
	send   *ipv4.PacketConn

	// loopback delivers our own datagrams to local listeners. Only tests
	// turn it on.
	loopback bool

	oobSize int
}

// NewServer creates a stopped server.
func NewServer(adapters *netadapter.List, loop *eventloop.Loop) *Server {
	return &Server{
		adapters: adapters,
		loop:     loop,
		oobSize:  len(ipv4.NewControlMessage(ipv4.FlagInterface | ipv4.FlagTTL)),
	}
}

// Group returns the multicast group the server was started with.
func (s *Server) Group() netip.Addr {
	return s.group
}

// Port returns the UDP port the server was started with.
func (s *Server) Port() int {
	return s.port
}

// Start opens both sockets and registers the receive socket with the loop.
// Group membership is added separately with AddInterface or
// AddAllInterfaces.
func (s *Server) Start(group string, port int, handler DataHandler) error {
	addr, err := netip.ParseAddr(group)
	if err != nil || !addr.Is4() || !addr.IsMulticast() {
		return fmt.Errorf("%w: %s", ErrInvalidGroup, group)
	}
	if s.recv != nil {
		s.Stop()
	}

	s.group = addr
	s.port = port
	s.handler = handler

	recv, err := openReceiveSocket(port)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		recv.Close()
		return ClassifySocketError(ErrTypeSocket, "open send socket", "", err)
	}
	send := ipv4.NewPacketConn(conn)
	if err := send.SetMulticastLoopback(s.loopback); err != nil {
		conn.Close()
		recv.Close()
		return ClassifySocketError(ErrTypeSocket, "setsockopt IP_MULTICAST_LOOP", "", err)
	}

	s.recv = recv
	s.sendMu.Lock()
	s.send = send
	s.sendMu.Unlock()

	s.loop.AddEvent(recv, s.process)

	logging.Debug("Multicast server started",
		zap.String("group", group),
		zap.Int("port", port),
	)
	return nil
}

func (s *Server) process() error {
	if s.handler == nil {
		return eventloop.ErrRemove
	}
	return s.handler(s)
}

// Stop leaves the group on every interface, deregisters from the loop and
// closes both sockets. Stopping a stopped server does nothing.
func (s *Server) Stop() {
	if s.recv == nil {
		return
	}
	s.DropAllInterfaces()

	s.loop.EraseEvent(s.recv)
	if err := s.recv.Close(); err != nil {
		logging.Debug("Failed to close receive socket", zap.Error(err))
	}
	s.recv = nil

	s.sendMu.Lock()
	if s.send != nil {
		if err := s.send.Close(); err != nil {
			logging.Debug("Failed to close send socket", zap.Error(err))
		}
		s.send = nil
	}
	s.sendMu.Unlock()

	logging.Debug("Multicast server stopped",
		zap.String("group", s.group.String()),
		zap.Int("port", s.port),
	)
}

// AddInterface joins the group on the interface with the given local IPv4
// address. Joining twice is not an error.
func (s *Server) AddInterface(local netip.Addr) error {
	return s.membership(local, true)
}

// DropInterface leaves the group on the interface with the given local IPv4
// address. Leaving twice is not an error.
func (s *Server) DropInterface(local netip.Addr) error {
	return s.membership(local, false)
}

func (s *Server) membership(local netip.Addr, join bool) error {
	if s.recv == nil {
		return ErrNotStarted
	}
	op := "leave"
	if join {
		op = "join"
	}
	if !local.Is4() {
		return &SocketError{Type: ErrTypeMembership, Op: op, Interface: local.String(), Err: ErrInvalidAdapter}
	}

	err := setMembership(s.recv.Fd(), s.group, local, join)
	switch {
	case err == nil:
		logging.Debug("Multicast membership changed",
			zap.String("op", op),
			zap.String("group", s.group.String()),
			zap.String("interface", local.String()),
		)
		return nil
	case join && errors.Is(err, unix.EADDRINUSE):
		// already a member
		return nil
	case !join && errors.Is(err, unix.EADDRNOTAVAIL):
		// not a member
		return nil
	}
	return ClassifySocketError(ErrTypeMembership, op, local.String(), err)
}

// AddAllInterfaces joins the group on the first IPv4 address of every
// adapter. Failures are logged and the remaining adapters are still joined.
func (s *Server) AddAllInterfaces() {
	s.forEachAdapter(s.AddInterface, "join")
}

// DropAllInterfaces leaves the group on the first IPv4 address of every
// adapter.
func (s *Server) DropAllInterfaces() {
	s.forEachAdapter(s.DropInterface, "leave")
}

func (s *Server) forEachAdapter(fn func(netip.Addr) error, op string) {
	for _, a := range s.adapters.Array() {
		local, ok := a.FirstIPv4()
		if !ok {
			continue
		}
		if err := fn(local); err != nil {
			logging.Warn("Multicast membership failed",
				zap.String("op", op),
				zap.String("interface", a.Name),
				zap.Error(err),
			)
		}
	}
}

// Send transmits data once over every adapter with an IPv4 address and
// returns the last error seen.
func (s *Server) Send(data []byte, ttl int) error {
	var lastErr error
	for _, a := range s.adapters.Array() {
		if err := s.SendOverAdapter(a, data, ttl); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// SendOverInterfaceIndex transmits data via the adapter with the given index.
func (s *Server) SendOverInterfaceIndex(index int, data []byte, ttl int) error {
	a, err := s.adapters.ByIndex(index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAdapter, err)
	}
	return s.SendOverAdapter(a, data, ttl)
}

// SendOverAdapter transmits data via the first IPv4 address of a.
func (s *Server) SendOverAdapter(a netadapter.Adapter, data []byte, ttl int) error {
	local, ok := a.FirstIPv4()
	if !ok {
		return fmt.Errorf("%w: %s has no IPv4 address", ErrInvalidAdapter, a.Name)
	}
	return s.sendVia(a, local, data, ttl)
}

// SendOverInterfaceAddress transmits data via the adapter owning the local
// IPv4 address.
func (s *Server) SendOverInterfaceAddress(local netip.Addr, data []byte, ttl int) error {
	for _, a := range s.adapters.Array() {
		for _, v4 := range a.IPv4 {
			if v4.Address == local {
				return s.sendVia(a, local, data, ttl)
			}
		}
	}
	return fmt.Errorf("%w: no adapter with address %s", ErrInvalidAdapter, local)
}

func (s *Server) sendVia(a netadapter.Adapter, local netip.Addr, data []byte, ttl int) error {
	if len(data) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.send == nil {
		return ErrNotStarted
	}

	ifi := &net.Interface{Index: a.Index, Name: a.Name}
	if err := s.send.SetMulticastInterface(ifi); err != nil {
		return ClassifySocketError(ErrTypeSend, "setsockopt IP_MULTICAST_IF", local.String(), err)
	}
	if err := s.send.SetMulticastTTL(ttl); err != nil {
		return ClassifySocketError(ErrTypeSend, "setsockopt IP_MULTICAST_TTL", local.String(), err)
	}

	dst := &net.UDPAddr{IP: s.group.AsSlice(), Port: s.port}
	if _, err := s.send.WriteTo(data, nil, dst); err != nil {
		return ClassifySocketError(ErrTypeSend, "sendto "+net.JoinHostPort(s.group.String(), strconv.Itoa(s.port)), local.String(), err)
	}
	logging.LogDatagram("sent", a.Name, ttl, data)
	return nil
}

// ReceiveTelegram reads one datagram without blocking. It reports the index
// of the interface the datagram arrived on and the TTL from its IP header
// (1 if the kernel did not report one). n is 0 with a nil error when no
// datagram is pending.
func (s *Server) ReceiveTelegram(buf []byte) (n int, ifIndex int, ttl int, err error) {
	if s.recv == nil {
		return 0, 0, 0, ErrNotStarted
	}

	oob := make([]byte, s.oobSize)
	n, oobn, _, _, err := unix.Recvmsg(s.recv.Fd(), buf, oob, 0)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return 0, 0, 0, nil
	}
	if err != nil {
		return 0, 0, 0, ClassifySocketError(ErrTypeReceive, "recvmsg", "", err)
	}

	ttl = DefaultTTL
	var cm ipv4.ControlMessage
	if err := cm.Parse(oob[:oobn]); err == nil {
		ifIndex = cm.IfIndex
		if cm.TTL > 0 {
			ttl = cm.TTL
		}
	}
	return n, ifIndex, ttl, nil
}

// ReceiveTelegramAdapter is ReceiveTelegram with the interface resolved to
// an adapter. If the interface vanished, the datagram is still returned
// together with ErrNoMatchingInterface.
func (s *Server) ReceiveTelegramAdapter(buf []byte) (int, netadapter.Adapter, int, error) {
	n, idx, ttl, err := s.ReceiveTelegram(buf)
	if err != nil || n == 0 {
		return n, netadapter.Adapter{}, ttl, err
	}
	a, err := s.adapters.ByIndex(idx)
	if err != nil {
		return n, netadapter.Adapter{Index: idx}, ttl, fmt.Errorf("%w: index %d", ErrNoMatchingInterface, idx)
	}
	logging.LogDatagram("received", a.Name, ttl, buf[:n])
	return n, a, ttl, nil
}

// ReceiveTelegramName is ReceiveTelegramAdapter returning only the
// interface name.
func (s *Server) ReceiveTelegramName(buf []byte) (int, string, int, error) {
	n, a, ttl, err := s.ReceiveTelegramAdapter(buf)
	return n, a.Name, ttl, err
}

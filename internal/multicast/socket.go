package multicast

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/muurk/devscan/internal/eventloop"
)

// receiveBufferSize holds several maximum sized datagrams.
const receiveBufferSize = 128000

// openReceiveSocket creates the non-blocking receive socket bound to port on
// all addresses. Several processes may bind the same port.
func openReceiveSocket(port int) (*eventloop.FD, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, ClassifySocketError(ErrTypeSocket, "socket", "", err)
	}
	sock := eventloop.NewFD(fd)

	opts := []struct {
		name  string
		level int
		opt   int
	}{
		{"SO_REUSEADDR", unix.SOL_SOCKET, unix.SO_REUSEADDR},
		{"IP_PKTINFO", unix.IPPROTO_IP, unix.IP_PKTINFO},
		{"IP_RECVTTL", unix.IPPROTO_IP, unix.IP_RECVTTL},
	}
	for _, o := range opts {
		if err := unix.SetsockoptInt(fd, o.level, o.opt, 1); err != nil {
			sock.Close()
			return nil, ClassifySocketError(ErrTypeSocket, "setsockopt "+o.name, "", err)
		}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBufferSize); err != nil {
		sock.Close()
		return nil, ClassifySocketError(ErrTypeSocket, "setsockopt SO_RCVBUF", "", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		sock.Close()
		return nil, ClassifySocketError(ErrTypeBind, fmt.Sprintf("bind port %d", port), "", err)
	}
	return sock, nil
}

// setMembership joins or leaves group on the interface owning local.
func setMembership(fd int, group, local netip.Addr, join bool) error {
	mreq := &unix.IPMreqn{
		Multiaddr: group.As4(),
		Address:   local.As4(),
	}
	opt := unix.IP_DROP_MEMBERSHIP
	if join {
		opt = unix.IP_ADD_MEMBERSHIP
	}
	return unix.SetsockoptIPMreqn(fd, unix.IPPROTO_IP, opt, mreq)
}

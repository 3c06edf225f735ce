// Package multicast sends and receives UDP datagrams on an IPv4 multicast
// group across every local interface.
//
// A Server owns two sockets. The receive socket is bound to the group's
// port with SO_REUSEADDR, so several listeners on one host can share it,
// and asks the kernel for IP_PKTINFO and IP_RECVTTL so each datagram
// reports the interface it arrived on and the TTL left in its IP header.
// The send socket has multicast loopback switched off; a host never hears
// its own traffic.
//
// Membership is per interface and keyed by the interface's first IPv4
// address. Joining an interface twice, or leaving one that was never
// joined, is not an error:
//
//	s := multicast.NewServer(adapters, loop)
//	if err := s.Start("239.255.77.76", 31416, onReadable); err != nil {
//	    return err
//	}
//	defer s.Stop()
//	s.AddAllInterfaces()
//
// Send fans out over every adapter, because a multi-homed host must reach
// every attached segment. SendOverAdapter and friends pick exactly one.
//
// # Thread Safety
//
// Start, Stop, membership changes and receiving belong to the goroutine
// running the event loop. The Send methods may be called from any
// goroutine.
package multicast

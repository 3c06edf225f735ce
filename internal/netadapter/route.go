package netadapter

import (
	"net"
	"net/netip"

	"github.com/jackpal/gateway"
)

// discoverGateway finds the default route gateway; replaced in tests
var discoverGateway = gateway.DiscoverGateway

// IPv4DefaultGateway returns the gateway of the default route, or 0.0.0.0
// if there is none or the routing table cannot be read.
func IPv4DefaultGateway() netip.Addr {
	ip, err := discoverGateway()
	if err != nil {
		return netip.IPv4Unspecified()
	}
	return ipv4Addr(ip)
}

// ipv4Addr converts ip to a netip.Addr, or 0.0.0.0 when ip is not IPv4
func ipv4Addr(ip net.IP) netip.Addr {
	v4 := ip.To4()
	if v4 == nil {
		return netip.IPv4Unspecified()
	}
	return netip.AddrFrom4([4]byte(v4))
}

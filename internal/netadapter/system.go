package netadapter

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// sysClassNet is where Linux exposes per-interface link attributes.
var sysClassNet = "/sys/class/net"

// SystemAdapters enumerates the interfaces that are up, broadcast capable
// and not loopback.
func SystemAdapters() ([]Adapter, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	adapters := make([]Adapter, 0, len(ifaces))
	for _, ifi := range ifaces {
		if !usable(ifi.Flags) {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			return nil, fmt.Errorf("addresses of %s: %w", ifi.Name, err)
		}
		adapters = append(adapters, newAdapter(ifi, addrs, linkType(ifi.Name)))
	}
	return adapters, nil
}

func usable(flags net.Flags) bool {
	return flags&net.FlagUp != 0 &&
		flags&net.FlagBroadcast != 0 &&
		flags&net.FlagLoopback == 0
}

func newAdapter(ifi net.Interface, addrs []net.Addr, arphrd int) Adapter {
	a := Adapter{
		Name:  ifi.Name,
		Index: ifi.Index,
		MAC:   FormatMAC(ifi.HardwareAddr),
	}
	if arphrd == unix.ARPHRD_IEEE1394 {
		a.FirewireGUID = FirewireGUID(ifi.HardwareAddr)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		if ip.Is4() || ip.Is4In6() {
			mask, ok := netip.AddrFromSlice(net.IP(ipNet.Mask).To4())
			if !ok {
				continue
			}
			a.IPv4 = append(a.IPv4, IPv4Address{Address: ip.Unmap(), Netmask: mask})
			continue
		}
		prefix := PrefixLength(ipNet.Mask)
		if prefix < 0 {
			continue
		}
		a.IPv6 = append(a.IPv6, IPv6Address{Address: ip, Prefix: prefix})
	}
	return a
}

// linkType reads the ARPHRD link type of an interface, -1 if unknown.
func linkType(name string) int {
	data, err := os.ReadFile(filepath.Join(sysClassNet, name, "type"))
	if err != nil {
		return -1
	}
	t, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1
	}
	return t
}

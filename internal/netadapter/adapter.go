package netadapter

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net"
	"net/netip"
	"strings"
)

// IPv4Address is an IPv4 address assigned to an adapter.
type IPv4Address struct {
	Address netip.Addr
	Netmask netip.Addr
}

// IPv6Address is an IPv6 address assigned to an adapter.
type IPv6Address struct {
	Address netip.Addr
	Prefix  int
}

// Adapter is an immutable snapshot of one network interface.
type Adapter struct {
	// Name is the OS interface name (e.g., "eth0")
	Name string

	// Index is the OS interface index
	Index int

	// MAC is the hardware address as uppercase hex with colons
	MAC string

	// FirewireGUID is the EUI-64 of a FireWire link, 0 for anything else
	FirewireGUID uint64

	IPv4 []IPv4Address
	IPv6 []IPv6Address
}

// String returns a human-readable representation of the adapter
func (a Adapter) String() string {
	addrs := make([]string, 0, len(a.IPv4)+len(a.IPv6))
	for _, v4 := range a.IPv4 {
		addrs = append(addrs, v4.Address.String())
	}
	for _, v6 := range a.IPv6 {
		addrs = append(addrs, fmt.Sprintf("%s/%d", v6.Address, v6.Prefix))
	}
	return fmt.Sprintf("%s (index %d, %s) [%s]", a.Name, a.Index, a.MAC, strings.Join(addrs, ", "))
}

// FirstIPv4 returns the first IPv4 address of the adapter. Multicast
// membership and sending are always bound to this address.
func (a Adapter) FirstIPv4() (netip.Addr, bool) {
	if len(a.IPv4) == 0 {
		return netip.Addr{}, false
	}
	return a.IPv4[0].Address, true
}

// clone returns a deep copy so callers never share address slices with the
// list snapshot.
func (a Adapter) clone() Adapter {
	a.IPv4 = append([]IPv4Address(nil), a.IPv4...)
	a.IPv6 = append([]IPv6Address(nil), a.IPv6...)
	return a
}

// PrefixLength counts the leading one-bits of a netmask. It returns -1 if
// the mask has a one-bit following a zero-bit.
func PrefixLength(mask []byte) int {
	prefix := 0
	zeroSeen := false
	for _, b := range mask {
		ones := bits.LeadingZeros8(^b)
		if zeroSeen && b != 0 {
			return -1
		}
		if ones < 8 {
			if b<<ones != 0 {
				return -1
			}
			zeroSeen = true
		}
		prefix += ones
	}
	return prefix
}

// FormatMAC formats a hardware address as uppercase hex separated by colons.
func FormatMAC(hw net.HardwareAddr) string {
	parts := make([]string, len(hw))
	for i, b := range hw {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

// FirewireGUID decodes the 64-bit GUID carried in the first eight bytes of
// a FireWire link-layer address.
func FirewireGUID(hw net.HardwareAddr) uint64 {
	if len(hw) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(hw[:8])
}

package netadapter

import (
	"net/netip"
	"strings"
)

// IsApipaAddress reports whether address is a link-local (169.254/16)
// auto-configured address.
func IsApipaAddress(address string) bool {
	return strings.HasPrefix(address, "169.254")
}

// IsValidManualIPv4Address reports whether address may be assigned to an
// interface manually. Addresses whose first octet is 0, 24 to 26 (internal
// FireWire links), 127 or 224 and above are refused, as are link-local ones.
func IsValidManualIPv4Address(address string) bool {
	ip, err := netip.ParseAddr(address)
	if err != nil || !ip.Is4() {
		return false
	}

	switch upper := ip.As4()[0]; {
	case upper == 0:
		return false
	case upper == 24, upper == 25, upper == 26:
		return false
	case upper == 127:
		return false
	case upper >= 224:
		return false
	}

	return !IsApipaAddress(address)
}

// IsValidIPv4Netmask reports whether mask is a usable contiguous IPv4
// netmask other than 0.0.0.0 and 255.255.255.255.
func IsValidIPv4Netmask(mask string) bool {
	ip, err := netip.ParseAddr(mask)
	if err != nil || !ip.Is4() {
		return false
	}
	b := ip.As4()
	prefix := PrefixLength(b[:])
	return prefix > 0 && prefix < 32
}

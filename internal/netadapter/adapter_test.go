package netadapter

import (
	"net"
	"net/netip"
	"testing"

	"golang.org/x/sys/unix"
)

func TestPrefixLength(t *testing.T) {
	tests := []struct {
		name string
		mask []byte
		want int
	}{
		{"ipv4 /24", []byte{255, 255, 255, 0}, 24},
		{"ipv4 /0", []byte{0, 0, 0, 0}, 0},
		{"ipv4 /32", []byte{255, 255, 255, 255}, 32},
		{"ipv4 /23", []byte{255, 255, 254, 0}, 23},
		{"ipv6 /64", net.CIDRMask(64, 128), 64},
		{"ipv6 /127", net.CIDRMask(127, 128), 127},
		{"hole in byte", []byte{255, 253, 0, 0}, -1},
		{"one after zero byte", []byte{255, 0, 255, 0}, -1},
		{"one after partial byte", []byte{255, 128, 1, 0}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrefixLength(tt.mask); got != tt.want {
				t.Errorf("PrefixLength(%v) = %d, want %d", tt.mask, got, tt.want)
			}
		})
	}
}

func TestFormatMAC(t *testing.T) {
	hw := net.HardwareAddr{0x00, 0x1a, 0x2b, 0xfc, 0xde, 0x0f}
	if got, want := FormatMAC(hw), "00:1A:2B:FC:DE:0F"; got != want {
		t.Errorf("FormatMAC() = %q, want %q", got, want)
	}
	if got := FormatMAC(nil); got != "" {
		t.Errorf("FormatMAC(nil) = %q, want empty", got)
	}
}

func TestFirewireGUID(t *testing.T) {
	hw := net.HardwareAddr{0x00, 0x0a, 0x35, 0x00, 0x01, 0x02, 0x03, 0x04, 0x0a, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x00, 0x00}
	if got, want := FirewireGUID(hw), uint64(0x000a350001020304); got != want {
		t.Errorf("FirewireGUID() = %#x, want %#x", got, want)
	}
	if got := FirewireGUID(net.HardwareAddr{1, 2, 3}); got != 0 {
		t.Errorf("FirewireGUID(short) = %#x, want 0", got)
	}
}

func TestNewAdapter(t *testing.T) {
	ifi := net.Interface{
		Index:        3,
		Name:         "eth0",
		HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
	}
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("10.0.0.5").To4(), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("fe80::2"), Mask: net.IPMask{0xff, 0, 0xff, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		&net.IPAddr{IP: net.ParseIP("192.168.9.9")},
	}

	a := newAdapter(ifi, addrs, unix.ARPHRD_ETHER)

	if a.Name != "eth0" || a.Index != 3 {
		t.Errorf("adapter = %s/%d, want eth0/3", a.Name, a.Index)
	}
	if a.MAC != "DE:AD:BE:EF:00:01" {
		t.Errorf("MAC = %q", a.MAC)
	}
	if a.FirewireGUID != 0 {
		t.Errorf("FirewireGUID = %#x, want 0 for ethernet", a.FirewireGUID)
	}
	if len(a.IPv4) != 2 {
		t.Fatalf("len(IPv4) = %d, want 2", len(a.IPv4))
	}
	if a.IPv4[0].Address != netip.MustParseAddr("192.168.1.20") || a.IPv4[0].Netmask != netip.MustParseAddr("255.255.255.0") {
		t.Errorf("IPv4[0] = %+v", a.IPv4[0])
	}
	if len(a.IPv6) != 1 || a.IPv6[0].Prefix != 64 {
		t.Errorf("IPv6 = %+v, want one /64 (non-contiguous mask dropped)", a.IPv6)
	}

	first, ok := a.FirstIPv4()
	if !ok || first.String() != "192.168.1.20" {
		t.Errorf("FirstIPv4() = %v, %v", first, ok)
	}
}

func TestNewAdapterFirewire(t *testing.T) {
	ifi := net.Interface{
		Index:        7,
		Name:         "firewire0",
		HardwareAddr: net.HardwareAddr{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	a := newAdapter(ifi, nil, unix.ARPHRD_IEEE1394)
	if a.FirewireGUID != 0x0001020304050607 {
		t.Errorf("FirewireGUID = %#x, want 0x0001020304050607", a.FirewireGUID)
	}
	if _, ok := a.FirstIPv4(); ok {
		t.Error("FirstIPv4() should fail without addresses")
	}
}

func TestUsable(t *testing.T) {
	tests := []struct {
		flags net.Flags
		want  bool
	}{
		{net.FlagUp | net.FlagBroadcast | net.FlagMulticast, true},
		{net.FlagBroadcast, false},
		{net.FlagUp, false},
		{net.FlagUp | net.FlagBroadcast | net.FlagLoopback, false},
	}
	for _, tt := range tests {
		if got := usable(tt.flags); got != tt.want {
			t.Errorf("usable(%v) = %v, want %v", tt.flags, got, tt.want)
		}
	}
}

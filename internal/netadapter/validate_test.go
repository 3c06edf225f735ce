package netadapter

import (
	"errors"
	"net"
	"testing"
)

func TestIsValidManualIPv4Address(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"172.19.2.4", true},
		{"172.169.254.0", true},
		{"192.168.1.10", true},
		{"not an address", false},
		{"0.0.0.0", false},
		{"24.1.2.3", false},
		{"26.255.0.1", false},
		{"127.0.0.1", false},
		{"169.254.0.1", false},
		{"224.4.7.1", false},
		{"254.4.7.1", false},
		{"fe80::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			if got := IsValidManualIPv4Address(tt.address); got != tt.want {
				t.Errorf("IsValidManualIPv4Address(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestIsValidIPv4Netmask(t *testing.T) {
	tests := []struct {
		mask string
		want bool
	}{
		{"255.255.255.0", true},
		{"255.255.0.0", true},
		{"255.255.255.252", true},
		{"0.0.0.0", false},
		{"255.255.255.255", false},
		{"255.0.255.0", false},
		{"netmask", false},
	}

	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			if got := IsValidIPv4Netmask(tt.mask); got != tt.want {
				t.Errorf("IsValidIPv4Netmask(%q) = %v, want %v", tt.mask, got, tt.want)
			}
		})
	}
}

func TestIsApipaAddress(t *testing.T) {
	if !IsApipaAddress("169.254.12.1") {
		t.Error("169.254.12.1 should be APIPA")
	}
	if IsApipaAddress("172.169.254.1") {
		t.Error("172.169.254.1 should not be APIPA")
	}
}

func TestIPv4DefaultGateway(t *testing.T) {
	old := discoverGateway
	defer func() { discoverGateway = old }()

	tests := []struct {
		name string
		ip   net.IP
		err  error
		want string
	}{
		{"ipv4", net.IPv4(192, 168, 1, 1), nil, "192.168.1.1"},
		{"four byte form", net.IP{10, 0, 0, 1}, nil, "10.0.0.1"},
		{"ipv6 only", net.ParseIP("fe80::1"), nil, "0.0.0.0"},
		{"no default route", nil, errors.New("no gateway found"), "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discoverGateway = func() (net.IP, error) { return tt.ip, tt.err }
			if got := IPv4DefaultGateway(); got.String() != tt.want {
				t.Errorf("IPv4DefaultGateway() = %v, want %v", got, tt.want)
			}
		})
	}
}

package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantURL  string
	}{
		{
			name: "bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lab-pc"},
				HostName:      "lab-pc.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"version=1.0.0"},
			},
			wantIP:   "192.168.4.16",
			wantPort: 8080,
			wantURL:  "http://192.168.4.16:8080",
		},
		{
			name: "no port specified",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab-pc.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: DefaultBridgePort,
			wantURL:  "http://172.16.0.1:8080",
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab-pc.local.",
				Port:     8080,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab-pc.local.",
				Port:     9000,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 9000,
			wantURL:  "http://[fe80::1]:9000",
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab-pc.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 8080,
			wantURL:  "http://192.168.1.50:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}
			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil bridge")
			}
			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %v, want %v", bridge.IP, tt.wantIP)
			}
			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %v, want %v", bridge.Port, tt.wantPort)
			}
			if bridge.BaseURL() != tt.wantURL {
				t.Errorf("bridge.BaseURL() = %v, want %v", bridge.BaseURL(), tt.wantURL)
			}
			if bridge.Hostname != tt.entry.HostName {
				t.Errorf("bridge.Hostname = %v, want %v", bridge.Hostname, tt.entry.HostName)
			}
			if time.Since(bridge.DiscoveredAt) > time.Second {
				t.Errorf("bridge.DiscoveredAt is not recent: %v", bridge.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "lab-pc.local.",
		Port:     8080,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"version=1.0.0", "interfaces=eth0,eth1", "flag"},
	}

	bridge := parseServiceEntry(entry)
	if bridge == nil {
		t.Fatal("parseServiceEntry() = nil, want bridge")
	}

	expected := map[string]string{
		"version":    "1.0.0",
		"interfaces": "eth0,eth1",
		"flag":       "",
	}
	if len(bridge.Metadata) != len(expected) {
		t.Errorf("bridge.Metadata has %d entries, want %d", len(bridge.Metadata), len(expected))
	}
	for key, want := range expected {
		if got := bridge.GetMetadata(key); got != want {
			t.Errorf("GetMetadata(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestBridge_GetMetadata_NilMap(t *testing.T) {
	b := &Bridge{}
	if got := b.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestBridge_String(t *testing.T) {
	b := &Bridge{Instance: "lab-pc", Hostname: "lab-pc.local.", IP: "10.0.0.2", Port: 8080}
	want := "devscan-bridge lab-pc (lab-pc.local.) at 10.0.0.2:8080"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// BridgeServiceType is the mDNS service type advertised by devscan-bridge
	BridgeServiceType = "_devscan._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default browse duration
	DefaultScanTimeout = 3 * time.Second

	// DefaultBridgePort is the bridge's default HTTP port
	DefaultBridgePort = 8080
)

// Bridge is a devscan-bridge found over mDNS
type Bridge struct {
	// Instance is the advertised instance name, usually the host name
	Instance string

	// Hostname is the mDNS hostname (e.g., "lab-pc.local.")
	Hostname string

	// IP is the first IPv4 address, falling back to IPv6
	IP string

	// Port is the bridge HTTP port
	Port int

	// Metadata holds the TXT records ("version", "interfaces")
	Metadata map[string]string

	// DiscoveredAt is when the bridge was found
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("devscan-bridge %s (%s) at %s:%d", b.Instance, b.Hostname, b.IP, b.Port)
}

// BaseURL returns the HTTP base URL of the bridge
func (b *Bridge) BaseURL() string {
	if strings.Contains(b.IP, ":") {
		return fmt.Sprintf("http://[%s]:%d", b.IP, b.Port)
	}
	return fmt.Sprintf("http://%s:%d", b.IP, b.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

// Scanner browses for bridges over mDNS
type Scanner struct {
	// Timeout is how long to browse
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForBridges browses for the scanner's timeout and returns every bridge
// that answered.
func (s *Scanner) ScanForBridges(ctx context.Context) ([]*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		bridges []*Bridge
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		for entry := range entries {
			if b := parseServiceEntry(entry); b != nil {
				mu.Lock()
				bridges = append(bridges, b)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, BridgeServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// the resolver closes entries once the context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return bridges, nil
}

// parseServiceEntry converts a zeroconf entry to a Bridge, or nil when the
// entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultBridgePort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Bridge{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

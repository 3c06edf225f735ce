package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/devscan/internal/protocol"
)

// Device is a display summary of one live announcement
type Device struct {
	Path Path

	// Name, Type and FamilyType come from params.device
	Name       string
	Type       string
	FamilyType string

	// Firmware is the announced firmware version
	Firmware string

	// IP and Netmask are the first announced IPv4 address, empty when the
	// device announces none
	IP      string
	Netmask string

	// HTTPPort is 0 when no http service is announced
	HTTPPort int

	// Expiration is the announced validity window
	Expiration time.Duration

	// Payload is the raw announcement
	Payload string

	// DiscoveredAt is when this payload was first seen
	DiscoveredAt time.Time
}

// NewDevice decodes payload into a summary for path.
func NewDevice(path Path, payload string, seen time.Time) (*Device, error) {
	a, err := protocol.DecodeAnnouncement([]byte(payload))
	if err != nil {
		return nil, err
	}

	d := &Device{
		Path:         path,
		Name:         a.Device.Name,
		Type:         a.Device.Type,
		FamilyType:   a.Device.FamilyType,
		Firmware:     a.Device.FirmwareVersion,
		HTTPPort:     a.HTTPPort(),
		Expiration:   time.Duration(a.Expiration) * time.Second,
		Payload:      payload,
		DiscoveredAt: seen,
	}
	if addr, ok := a.FirstIPv4(); ok {
		d.IP = addr.Address
		d.Netmask = addr.Netmask
	}
	return d, nil
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	s := fmt.Sprintf("%s %s (%s)", d.Type, d.Name, d.Path.UUID)
	if d.IP != "" {
		s += " at " + d.IP
	}
	s += " via " + d.Path.ReceivingInterface
	if d.Routed() {
		s += " through router " + d.Path.Router
	}
	return s
}

// Routed reports whether the announcement was forwarded by a router
func (d *Device) Routed() bool {
	return d.Path.Router != ""
}

// BaseURL returns the device's web interface URL, or "" without an address.
func (d *Device) BaseURL() string {
	if d.IP == "" {
		return ""
	}
	port := d.HTTPPort
	if port == 0 {
		port = 80
	}
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(port))
}

// CompactLine formats the device as tab-separated
// "family uuid type name address netmask httpPort firmware".
func (d *Device) CompactLine() string {
	port := ""
	if d.HTTPPort != 0 {
		port = strconv.Itoa(d.HTTPPort)
	}
	return strings.Join([]string{
		d.FamilyType,
		d.Path.UUID,
		d.Type,
		d.Name,
		d.IP,
		d.Netmask,
		port,
		d.Firmware,
	}, "\t")
}

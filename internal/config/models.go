package config

import (
	"time"

	"github.com/muurk/devscan/internal/netadapter"
)

// Defaults applied to missing preferences
const (
	DefaultCollectSeconds = 10
	DefaultTTL            = 1
	DefaultBridgeListen   = ":8080"
)

// Registry represents the entire user configuration file.
// It stores user-defined metadata for devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device uuid
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single announced device.
type Device struct {
	Nickname      string    `yaml:"nickname,omitempty"`       // User-friendly name
	LastInterface string    `yaml:"last_interface,omitempty"` // Receiving interface it was last seen on
	LastAddress   string    `yaml:"last_address,omitempty"`   // Last announced IPv4 address
	LastSeen      time.Time `yaml:"last_seen,omitempty"`      // Last announcement time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	InterfaceFilter []string     `yaml:"interface_filter,omitempty"` // Receiving interface name patterns to report; empty means all
	CollectSeconds  int          `yaml:"collect_seconds"`            // Collection time for compact and print
	TTL             int          `yaml:"ttl"`                        // Multicast TTL for configure requests and announcements
	LogLevel        string       `yaml:"log_level,omitempty"`        // debug, info, warn or error
	Bridge          *BridgePrefs `yaml:"bridge,omitempty"`
}

// BridgePrefs configures devscan-bridge.
type BridgePrefs struct {
	Listen    string `yaml:"listen"`    // HTTP listen address
	Advertise bool   `yaml:"advertise"` // Advertise over mDNS
}

func defaultPreferences() *Preferences {
	return &Preferences{
		CollectSeconds: DefaultCollectSeconds,
		TTL:            DefaultTTL,
		Bridge: &BridgePrefs{
			Listen:    DefaultBridgeListen,
			Advertise: true,
		},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// normalize fills in what an older or hand-edited file left out.
func (r *Registry) normalize() {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
		return
	}
	p := r.Preferences
	if p.CollectSeconds <= 0 {
		p.CollectSeconds = DefaultCollectSeconds
	}
	if p.TTL <= 0 || p.TTL > 255 {
		p.TTL = DefaultTTL
	}
	if p.Bridge == nil {
		p.Bridge = &BridgePrefs{Listen: DefaultBridgeListen, Advertise: true}
	}
	if p.Bridge.Listen == "" {
		p.Bridge.Listen = DefaultBridgeListen
	}
}

// GetDevice retrieves device metadata by uuid.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(uuid string) *Device {
	return r.Devices[uuid]
}

// EnsureDevice returns the entry for uuid, creating it if needed.
func (r *Registry) EnsureDevice(uuid string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device, exists := r.Devices[uuid]; exists {
		return device
	}
	device := &Device{}
	r.Devices[uuid] = device
	return device
}

// UpdateDeviceLastSeen records where and when a device was last heard.
func (r *Registry) UpdateDeviceLastSeen(uuid, iface, address string, when time.Time) {
	device := r.EnsureDevice(uuid)
	device.LastSeen = when
	device.LastInterface = iface
	if address != "" {
		device.LastAddress = address
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(uuid, nickname string) {
	device := r.EnsureDevice(uuid)
	device.Nickname = nickname
}

// Nickname returns the nickname of uuid, or "" if none is set.
func (r *Registry) Nickname(uuid string) string {
	if d := r.Devices[uuid]; d != nil {
		return d.Nickname
	}
	return ""
}

// AcceptsInterface reports whether announcements received on iface pass
// the interface filter.
func (r *Registry) AcceptsInterface(iface string) bool {
	if r.Preferences == nil || len(r.Preferences.InterfaceFilter) == 0 {
		return true
	}
	return netadapter.MatchName(r.Preferences.InterfaceFilter, iface)
}

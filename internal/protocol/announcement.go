package protocol

import (
	"encoding/json"
	"fmt"
)

// Announcement is the decoded params section of an announce telegram.
// The monitor works on raw payloads; this view is for presentation and for
// building announcements.
type Announcement struct {
	APIVersion  string      `json:"apiVersion,omitempty"`
	Device      Device      `json:"device"`
	NetSettings NetSettings `json:"netSettings"`
	Router      *RouterRef  `json:"router,omitempty"`
	Services    []Service   `json:"services,omitempty"`
	Expiration  int         `json:"expiration"`
}

// Device identifies the announcing device
type Device struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name,omitempty"`
	Type            string `json:"type,omitempty"`
	FamilyType      string `json:"familyType,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	HardwareID      string `json:"hardwareId,omitempty"`
	Label           string `json:"label,omitempty"`
	IsRouter        bool   `json:"isRouter,omitempty"`
}

// NetSettings is shared by announcements and configure requests.
type NetSettings struct {
	DefaultGateway *Gateway           `json:"defaultGateway,omitempty"`
	Interface      *InterfaceSettings `json:"interface,omitempty"`
}

// Gateway holds the default gateway addresses
type Gateway struct {
	IPv4Address string `json:"ipv4Address,omitempty"`
	IPv6Address string `json:"ipv6Address,omitempty"`
}

// InterfaceSettings describes the sending interface of an announcement,
// or the target interface of a configure request.
type InterfaceSettings struct {
	Name                string        `json:"name"`
	Type                string        `json:"type,omitempty"`
	Description         string        `json:"description,omitempty"`
	ConfigurationMethod string        `json:"configurationMethod,omitempty"`
	IPv4                []IPv4Address `json:"ipv4,omitempty"`
	IPv6                []IPv6Address `json:"ipv6,omitempty"`
}

// IPv4Address is one announced IPv4 address
type IPv4Address struct {
	Address string `json:"address"`
	Netmask string `json:"netmask"`
}

// IPv6Address is one announced IPv6 address
type IPv6Address struct {
	Address string `json:"address"`
	Prefix  int    `json:"prefix"`
}

// RouterRef names the router that forwarded an announcement
type RouterRef struct {
	UUID string `json:"uuid"`
}

// Service is a TCP service offered by the device
type Service struct {
	Type string `json:"type"`
	Port int    `json:"port"`
}

type announceEnvelope struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  *Announcement `json:"params"`
}

// DecodeAnnouncement decodes an announce telegram into its params view.
func DecodeAnnouncement(text []byte) (*Announcement, error) {
	var env announceEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		return nil, fmt.Errorf("failed to decode announcement: %w", err)
	}
	if env.Method != MethodAnnounce {
		return nil, fmt.Errorf("method is %q, not %q", env.Method, MethodAnnounce)
	}
	if env.Params == nil {
		return nil, fmt.Errorf("announcement has no %s", TagParams)
	}
	return env.Params, nil
}

// BuildAnnouncement encodes a into a complete announce telegram.
func BuildAnnouncement(a *Announcement) ([]byte, error) {
	if a.Device.UUID == "" {
		return nil, fmt.Errorf("announcement needs a device uuid")
	}
	if a.NetSettings.Interface == nil || a.NetSettings.Interface.Name == "" {
		return nil, fmt.Errorf("announcement needs an interface name")
	}
	if a.Expiration <= 0 {
		return nil, fmt.Errorf("invalid expiration: %d", a.Expiration)
	}
	return json.Marshal(announceEnvelope{
		JSONRPC: Version2,
		Method:  MethodAnnounce,
		Params:  a,
	})
}

// InterfaceName returns the name of the sending interface
func (a *Announcement) InterfaceName() string {
	if a.NetSettings.Interface == nil {
		return ""
	}
	return a.NetSettings.Interface.Name
}

// IPv4 returns the announced IPv4 addresses of the sending interface
func (a *Announcement) IPv4() []IPv4Address {
	if a.NetSettings.Interface == nil {
		return nil
	}
	return a.NetSettings.Interface.IPv4
}

// FirstIPv4 returns the first announced IPv4 address, if any
func (a *Announcement) FirstIPv4() (IPv4Address, bool) {
	addrs := a.IPv4()
	if len(addrs) == 0 {
		return IPv4Address{}, false
	}
	return addrs[0], true
}

// RouterUUID returns the forwarding router's uuid, or "" for a direct path
func (a *Announcement) RouterUUID() string {
	if a.Router == nil {
		return ""
	}
	return a.Router.UUID
}

// ServicePort returns the port of the first service of the given type
func (a *Announcement) ServicePort(serviceType string) (int, bool) {
	for _, s := range a.Services {
		if s.Type == serviceType {
			return s.Port, true
		}
	}
	return 0, false
}

// HTTPPort returns the http service port, or 0 when none is announced.
func (a *Announcement) HTTPPort() int {
	port, _ := a.ServicePort(ServiceHTTP)
	return port
}

package deviceconfig

import (
	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/protocol"
)

// ConfigBuilder provides a fluent API for building configure requests.
// Settings are validated in Build.
//
// Example usage:
//
//	req, err := NewConfigBuilder("0009E5001C49").
//	    Interface("eth0").
//	    Manual("172.19.10.5", "255.255.0.0").
//	    Gateway("172.19.0.1").
//	    Build()
type ConfigBuilder struct {
	uuid     string
	ttl      int
	id       string
	settings Settings
}

// NewConfigBuilder starts a request for the device with the given uuid.
func NewConfigBuilder(uuid string) *ConfigBuilder {
	return &ConfigBuilder{uuid: uuid, ttl: multicast.DefaultTTL}
}

// Interface selects the device side interface.
func (b *ConfigBuilder) Interface(name string) *ConfigBuilder {
	b.settings.Interface = name
	return b
}

// Method sets the configuration method without touching the address.
func (b *ConfigBuilder) Method(method string) *ConfigBuilder {
	b.settings.Method = method
	return b
}

// DHCP switches the interface to DHCP.
func (b *ConfigBuilder) DHCP() *ConfigBuilder {
	b.settings.Method = protocol.ConfigMethodDHCP
	b.settings.Address = ""
	b.settings.Netmask = ""
	return b
}

// Manual switches the interface to a static address.
func (b *ConfigBuilder) Manual(address, netmask string) *ConfigBuilder {
	b.settings.Method = protocol.ConfigMethodManual
	return b.Address(address, netmask)
}

// Address sets the manual address without sending a method.
func (b *ConfigBuilder) Address(address, netmask string) *ConfigBuilder {
	b.settings.Address = address
	b.settings.Netmask = netmask
	return b
}

// Gateway sets the default IPv4 gateway.
func (b *ConfigBuilder) Gateway(address string) *ConfigBuilder {
	b.settings.Gateway = address
	return b
}

// TTL sets the TTL echoed in the request params.
func (b *ConfigBuilder) TTL(ttl int) *ConfigBuilder {
	b.ttl = ttl
	return b
}

// ID overrides the generated correlation id.
func (b *ConfigBuilder) ID(id string) *ConfigBuilder {
	b.id = id
	return b
}

// Settings returns the change set built so far.
func (b *ConfigBuilder) Settings() Settings {
	return b.settings
}

// HasChanges returns true if any setting has been made.
func (b *ConfigBuilder) HasChanges() bool {
	return b.settings.HasInterfaceChange() || b.settings.Gateway != ""
}

// Validate returns the first critical validation error, if any.
func (b *ConfigBuilder) Validate() error {
	if err := ValidateUUID(b.uuid); err != nil {
		return err
	}
	if err := ValidateTTL(b.ttl); err != nil {
		return err
	}
	_, critical := SeparateWarningsAndErrors(ValidateSettings(b.settings))
	if len(critical) > 0 {
		return critical[0]
	}
	return nil
}

// Build validates the settings and encodes the request.
func (b *ConfigBuilder) Build() (*Request, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	id := b.id
	if id == "" {
		id = protocol.GenerateID()
	}
	payload, err := protocol.BuildConfigureRequest(id, b.uuid, b.ttl, b.settings.netSettings())
	if err != nil {
		return nil, NewValidationError(err.Error())
	}

	return &Request{
		ID:       id,
		UUID:     b.uuid,
		TTL:      b.ttl,
		Settings: b.settings,
		Payload:  payload,
	}, nil
}

// Reset clears all settings; uuid, ttl and id are kept.
func (b *ConfigBuilder) Reset() *ConfigBuilder {
	b.settings = Settings{}
	return b
}

// SetInterfaceConfigurationMethod builds a request that switches ifName to
// method.
func SetInterfaceConfigurationMethod(uuid, ifName, method string) (*Request, error) {
	return NewConfigBuilder(uuid).Interface(ifName).Method(method).Build()
}

// SetInterfaceManualConfiguration builds a request that sets the manual
// address of ifName without changing its method.
func SetInterfaceManualConfiguration(uuid, ifName, address, netmask string) (*Request, error) {
	return NewConfigBuilder(uuid).Interface(ifName).Address(address, netmask).Build()
}

// SetInterfaceConfiguration builds a request that sets method and manual
// address together. For dhcp the address is ignored.
func SetInterfaceConfiguration(uuid, ifName, method, address, netmask string) (*Request, error) {
	b := NewConfigBuilder(uuid).Interface(ifName)
	if method == protocol.ConfigMethodDHCP {
		return b.DHCP().Build()
	}
	return b.Method(method).Address(address, netmask).Build()
}

// SetDefaultGateway builds a request that sets the default gateway.
func SetDefaultGateway(uuid, gateway string) (*Request, error) {
	return NewConfigBuilder(uuid).Gateway(gateway).Build()
}

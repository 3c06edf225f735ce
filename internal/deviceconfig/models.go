package deviceconfig

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/muurk/devscan/internal/protocol"
)

// Settings is what a configure request changes on a device. Empty fields
// are left alone.
type Settings struct {
	// Interface is the device side interface name, as announced
	Interface string

	// Method is protocol.ConfigMethodManual, protocol.ConfigMethodDHCP or ""
	Method string

	// Address and Netmask are the manual IPv4 assignment
	Address string
	Netmask string

	// Gateway is the default IPv4 gateway
	Gateway string
}

// HasInterfaceChange reports whether the interface member is sent.
func (s Settings) HasInterfaceChange() bool {
	return s.Method != "" || s.Address != ""
}

// netSettings converts s to its wire form.
func (s Settings) netSettings() protocol.ConfigureNetSettings {
	var ns protocol.ConfigureNetSettings
	if s.HasInterfaceChange() {
		ns.Interface = &protocol.ConfigureInterface{
			Name:                s.Interface,
			ConfigurationMethod: s.Method,
		}
		if s.Address != "" {
			ns.Interface.IPv4 = &protocol.ManualIPv4{
				ManualAddress: s.Address,
				ManualNetmask: s.Netmask,
			}
		}
	}
	if s.Gateway != "" {
		ns.DefaultGateway = &protocol.Gateway{IPv4Address: s.Gateway}
	}
	return ns
}

// Request is an encoded configure request with its correlation id.
type Request struct {
	ID       string
	UUID     string
	TTL      int
	Settings Settings
	Payload  []byte
}

// Result is the outcome of an answered request.
type Result struct {
	Request  *Request
	Response *protocol.Response
	Raw      string
	Elapsed  time.Duration
}

// Success reports whether the device answered with a result.
func (r *Result) Success() bool {
	return r.Response != nil && r.Response.Error == nil
}

// ResultValue decodes the result member into v.
func (r *Result) ResultValue(v any) error {
	if !r.Success() {
		return fmt.Errorf("response carries no result")
	}
	if err := json.Unmarshal(r.Response.Result, v); err != nil {
		return NewParseError("failed to decode result", err)
	}
	return nil
}

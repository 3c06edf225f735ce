package deviceconfig

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/protocol"
)

// ValidateUUID validates a device uuid.
func ValidateUUID(uuid string) error {
	if strings.TrimSpace(uuid) == "" {
		return NewValidationError("device uuid cannot be empty")
	}
	return nil
}

// ValidateInterfaceName validates a device side interface name.
func ValidateInterfaceName(name string) error {
	if name == "" {
		return NewValidationError("interface name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return NewValidationError(fmt.Sprintf("interface name contains whitespace: %q", name))
	}
	return nil
}

// ValidateConfigurationMethod accepts "manual" and "dhcp".
func ValidateConfigurationMethod(method string) error {
	switch method {
	case protocol.ConfigMethodManual, protocol.ConfigMethodDHCP:
		return nil
	}
	return NewValidationError(fmt.Sprintf("configuration method must be %q or %q, got %q",
		protocol.ConfigMethodManual, protocol.ConfigMethodDHCP, method))
}

// ValidateManualAddress validates an address for manual assignment.
// Loopback, multicast, link-local and the internal FireWire ranges are
// refused.
func ValidateManualAddress(address string) error {
	if !netadapter.IsValidManualIPv4Address(address) {
		return NewValidationError(fmt.Sprintf("invalid manual IPv4 address: %q", address))
	}
	return nil
}

// ValidateNetmask validates a contiguous IPv4 netmask.
func ValidateNetmask(mask string) error {
	if !netadapter.IsValidIPv4Netmask(mask) {
		return NewValidationError(fmt.Sprintf("invalid IPv4 netmask: %q", mask))
	}
	return nil
}

// ValidateGateway validates a default gateway address.
func ValidateGateway(gateway string) error {
	ip, err := netip.ParseAddr(gateway)
	if err != nil || !ip.Is4() {
		return NewValidationError(fmt.Sprintf("invalid IPv4 gateway: %q", gateway))
	}
	if ip.IsMulticast() || ip.IsLoopback() {
		return NewValidationError(fmt.Sprintf("gateway must be a unicast address: %q", gateway))
	}
	return nil
}

// ValidateTTL validates a multicast TTL.
func ValidateTTL(ttl int) error {
	if ttl < 1 || ttl > 255 {
		return NewValidationError(fmt.Sprintf("TTL must be 1-255, got %d", ttl))
	}
	return nil
}

// ValidateSettings validates a complete change set.
// Returns a slice of validation errors (empty if valid).
func ValidateSettings(s Settings) []error {
	var errs []error

	if !s.HasInterfaceChange() && s.Gateway == "" {
		return []error{NewValidationError("nothing to configure")}
	}

	if s.HasInterfaceChange() {
		if err := ValidateInterfaceName(s.Interface); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Method != "" {
		if err := ValidateConfigurationMethod(s.Method); err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case s.Method == protocol.ConfigMethodManual && s.Address == "":
		errs = append(errs, NewValidationError("manual method needs an address and netmask"))
	case s.Method == protocol.ConfigMethodDHCP && s.Address != "":
		errs = append(errs, NewValidationError("dhcp method does not take an address"))
	}

	if s.Address != "" {
		if err := ValidateManualAddress(s.Address); err != nil {
			errs = append(errs, fmt.Errorf("address: %w", err))
		}
		if err := ValidateNetmask(s.Netmask); err != nil {
			errs = append(errs, fmt.Errorf("netmask: %w", err))
		}
	}

	if s.Gateway != "" {
		if err := ValidateGateway(s.Gateway); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// CheckLogicalConflicts returns warnings for settings that are valid but
// probably not intended.
func CheckLogicalConflicts(s Settings) []error {
	var warnings []error

	if s.Address == "" || s.Gateway == "" {
		return nil
	}
	addr, err1 := netip.ParseAddr(s.Address)
	mask, err2 := netip.ParseAddr(s.Netmask)
	gw, err3 := netip.ParseAddr(s.Gateway)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}

	m := mask.As4()
	prefix, err := addr.Prefix(netadapter.PrefixLength(m[:]))
	if err == nil && !prefix.Contains(gw) {
		warnings = append(warnings, NewValidationError(
			fmt.Sprintf("warning: gateway %s is outside %s", s.Gateway, prefix)))
	}
	if s.Address == s.Gateway {
		warnings = append(warnings, NewValidationError("warning: gateway equals the device address"))
	}
	return warnings
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}

// IsWarning checks if a validation error is a warning (non-fatal).
// Warnings have error messages starting with "warning:".
func IsWarning(err error) bool {
	if cfgErr, ok := asConfigureError(err); ok {
		return strings.HasPrefix(cfgErr.Message, "warning:")
	}
	return strings.Contains(err.Error(), "warning:")
}

// SeparateWarningsAndErrors separates validation errors into warnings and errors.
func SeparateWarningsAndErrors(errors []error) (warnings []error, criticalErrors []error) {
	for _, err := range errors {
		if IsWarning(err) {
			warnings = append(warnings, err)
		} else {
			criticalErrors = append(criticalErrors, err)
		}
	}
	return warnings, criticalErrors
}

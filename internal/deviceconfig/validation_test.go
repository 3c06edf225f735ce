package deviceconfig

import (
	"strings"
	"testing"
)

func TestValidateManualAddress(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"10.0.0.5", true},
		{"172.19.191.121", true},
		{"0.1.2.3", false},
		{"24.0.0.1", false},
		{"127.0.0.1", false},
		{"169.254.4.4", false},
		{"224.0.0.1", false},
		{"fe80::1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := ValidateManualAddress(tt.address)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateManualAddress(%q) error = %v, want valid=%v", tt.address, err, tt.valid)
			}
		})
	}
}

func TestValidateNetmaskAndGateway(t *testing.T) {
	if err := ValidateNetmask("255.255.252.0"); err != nil {
		t.Errorf("ValidateNetmask(255.255.252.0) error = %v", err)
	}
	for _, mask := range []string{"255.255.255.255", "0.0.0.0", "255.0.255.0", "nonsense"} {
		if err := ValidateNetmask(mask); err == nil {
			t.Errorf("ValidateNetmask(%q) expected error", mask)
		}
	}

	if err := ValidateGateway("10.0.0.1"); err != nil {
		t.Errorf("ValidateGateway(10.0.0.1) error = %v", err)
	}
	for _, gw := range []string{"127.0.0.1", "239.0.0.1", "::1", ""} {
		if err := ValidateGateway(gw); err == nil {
			t.Errorf("ValidateGateway(%q) expected error", gw)
		}
	}
}

func TestValidateTTL(t *testing.T) {
	for _, ttl := range []int{1, 32, 255} {
		if err := ValidateTTL(ttl); err != nil {
			t.Errorf("ValidateTTL(%d) error = %v", ttl, err)
		}
	}
	for _, ttl := range []int{-1, 0, 256} {
		if err := ValidateTTL(ttl); err == nil {
			t.Errorf("ValidateTTL(%d) expected error", ttl)
		}
	}
}

func TestValidateSettingsCollectsAll(t *testing.T) {
	errs := ValidateSettings(Settings{
		Interface: "",
		Method:    "manual",
		Address:   "127.0.0.1",
		Netmask:   "1.2.3.4",
		Gateway:   "x",
	})
	if len(errs) != 4 {
		t.Errorf("len(errs) = %d, want 4: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !IsValidationError(err) {
			t.Errorf("%v is not a validation error", err)
		}
	}
}

func TestCheckLogicalConflicts(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     int
	}{
		{"gateway inside", Settings{Address: "10.0.0.5", Netmask: "255.255.255.0", Gateway: "10.0.0.1"}, 0},
		{"gateway outside", Settings{Address: "10.0.0.5", Netmask: "255.255.255.0", Gateway: "10.0.1.1"}, 1},
		{"gateway is address", Settings{Address: "10.0.0.5", Netmask: "255.255.255.0", Gateway: "10.0.0.5"}, 1},
		{"no gateway", Settings{Address: "10.0.0.5", Netmask: "255.255.255.0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := CheckLogicalConflicts(tt.settings)
			if len(warnings) != tt.want {
				t.Errorf("warnings = %v, want %d", warnings, tt.want)
			}
			for _, w := range warnings {
				if !IsWarning(w) {
					t.Errorf("IsWarning(%v) = false", w)
				}
			}
		})
	}
}

func TestSeparateWarningsAndErrors(t *testing.T) {
	errs := []error{
		NewValidationError("warning: odd"),
		NewValidationError("broken"),
	}
	warnings, critical := SeparateWarningsAndErrors(errs)
	if len(warnings) != 1 || len(critical) != 1 {
		t.Errorf("warnings, critical = %d, %d, want 1, 1", len(warnings), len(critical))
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "No validation errors" {
		t.Errorf("FormatValidationErrors(nil) = %q", got)
	}
	got := FormatValidationErrors([]error{NewValidationError("a"), NewValidationError("b")})
	if !strings.Contains(got, "2 error(s)") || !strings.Contains(got, "2. Validation Error: b") {
		t.Errorf("FormatValidationErrors() = %q", got)
	}
}

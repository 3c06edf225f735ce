package deviceconfig

import (
	"testing"

	"github.com/muurk/devscan/internal/protocol"
)

func mustTree(t *testing.T, req *Request) *protocol.Tree {
	t.Helper()
	tree, err := protocol.Parse(req.Payload)
	if err != nil {
		t.Fatalf("Parse(payload) error = %v", err)
	}
	return tree
}

func TestSetInterfaceConfigurationMethod(t *testing.T) {
	req, err := SetInterfaceConfigurationMethod("UUID-1", "eth0", protocol.ConfigMethodDHCP)
	if err != nil {
		t.Fatalf("SetInterfaceConfigurationMethod() error = %v", err)
	}
	tree := mustTree(t, req)

	checks := []struct {
		path []string
		want string
	}{
		{[]string{"jsonrpc"}, "2.0"},
		{[]string{"method"}, "configure"},
		{[]string{"id"}, req.ID},
		{[]string{"params", "device", "uuid"}, "UUID-1"},
		{[]string{"params", "netSettings", "interface", "name"}, "eth0"},
		{[]string{"params", "netSettings", "interface", "configurationMethod"}, "dhcp"},
	}
	for _, c := range checks {
		if got, _ := tree.String(c.path...); got != c.want {
			t.Errorf("%v = %q, want %q", c.path, got, c.want)
		}
	}
	if tree.Has("params", "netSettings", "interface", "ipv4") {
		t.Error("method-only request should not carry ipv4")
	}
	if tree.Has("params", "netSettings", "defaultGateway") {
		t.Error("method-only request should not carry defaultGateway")
	}
	if ttl, _ := tree.Int("params", "ttl"); ttl != 1 {
		t.Errorf("params.ttl = %d, want 1", ttl)
	}
}

func TestSetInterfaceManualConfiguration(t *testing.T) {
	req, err := SetInterfaceManualConfiguration("UUID-1", "eth0", "172.19.10.5", "255.255.0.0")
	if err != nil {
		t.Fatalf("SetInterfaceManualConfiguration() error = %v", err)
	}
	tree := mustTree(t, req)

	if got, _ := tree.String("params", "netSettings", "interface", "ipv4", "manualAddress"); got != "172.19.10.5" {
		t.Errorf("manualAddress = %q, want 172.19.10.5", got)
	}
	if got, _ := tree.String("params", "netSettings", "interface", "ipv4", "manualNetmask"); got != "255.255.0.0" {
		t.Errorf("manualNetmask = %q, want 255.255.0.0", got)
	}
	if tree.Has("params", "netSettings", "interface", "configurationMethod") {
		t.Error("manual address request should not change the method")
	}
}

func TestSetInterfaceConfiguration(t *testing.T) {
	req, err := SetInterfaceConfiguration("UUID-1", "eth0", protocol.ConfigMethodManual, "10.1.2.3", "255.255.255.0")
	if err != nil {
		t.Fatalf("SetInterfaceConfiguration() error = %v", err)
	}
	tree := mustTree(t, req)
	if got, _ := tree.String("params", "netSettings", "interface", "configurationMethod"); got != "manual" {
		t.Errorf("configurationMethod = %q, want manual", got)
	}
	if got, _ := tree.String("params", "netSettings", "interface", "ipv4", "manualAddress"); got != "10.1.2.3" {
		t.Errorf("manualAddress = %q, want 10.1.2.3", got)
	}

	// dhcp drops the address
	req, err = SetInterfaceConfiguration("UUID-1", "eth0", protocol.ConfigMethodDHCP, "10.1.2.3", "255.255.255.0")
	if err != nil {
		t.Fatalf("SetInterfaceConfiguration(dhcp) error = %v", err)
	}
	if mustTree(t, req).Has("params", "netSettings", "interface", "ipv4") {
		t.Error("dhcp request should not carry ipv4")
	}
}

func TestSetDefaultGateway(t *testing.T) {
	req, err := SetDefaultGateway("UUID-1", "172.19.0.1")
	if err != nil {
		t.Fatalf("SetDefaultGateway() error = %v", err)
	}
	tree := mustTree(t, req)
	if got, _ := tree.String("params", "netSettings", "defaultGateway", "ipv4Address"); got != "172.19.0.1" {
		t.Errorf("ipv4Address = %q, want 172.19.0.1", got)
	}
	if tree.Has("params", "netSettings", "interface") {
		t.Error("gateway request should not carry an interface")
	}
}

func TestBuilderRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		builder *ConfigBuilder
	}{
		{"no uuid", NewConfigBuilder("").Interface("eth0").DHCP()},
		{"nothing to do", NewConfigBuilder("U")},
		{"no interface", NewConfigBuilder("U").DHCP()},
		{"bad method", NewConfigBuilder("U").Interface("eth0").Method("bootp")},
		{"manual without address", NewConfigBuilder("U").Interface("eth0").Method(protocol.ConfigMethodManual)},
		{"loopback address", NewConfigBuilder("U").Interface("eth0").Manual("127.0.0.5", "255.0.0.0")},
		{"link-local address", NewConfigBuilder("U").Interface("eth0").Manual("169.254.1.1", "255.255.0.0")},
		{"firewire address", NewConfigBuilder("U").Interface("eth0").Manual("25.0.0.1", "255.0.0.0")},
		{"bad netmask", NewConfigBuilder("U").Interface("eth0").Manual("10.0.0.5", "255.0.255.0")},
		{"multicast gateway", NewConfigBuilder("U").Gateway("239.1.1.1")},
		{"ttl zero", NewConfigBuilder("U").Gateway("10.0.0.1").TTL(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("Build() expected error")
			}
			if !IsValidationError(err) {
				t.Errorf("Build() error = %v, want a validation error", err)
			}
		})
	}
}

func TestBuilderWarningsDoNotBlock(t *testing.T) {
	req, err := NewConfigBuilder("U").
		Interface("eth0").
		Manual("10.0.0.5", "255.255.255.0").
		Gateway("192.168.1.1").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want gateway outside subnet to be a warning only", err)
	}
	if req.Settings.Gateway != "192.168.1.1" {
		t.Errorf("Settings.Gateway = %q", req.Settings.Gateway)
	}
}

func TestBuilderIDAndTTL(t *testing.T) {
	req, err := NewConfigBuilder("U").Gateway("10.0.0.1").ID("42").TTL(8).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.ID != "42" || req.TTL != 8 {
		t.Errorf("ID, TTL = %q, %d, want 42, 8", req.ID, req.TTL)
	}
	if id, _ := mustTree(t, req).String("id"); id != "42" {
		t.Errorf("payload id = %q, want 42", id)
	}
}

func TestBuilderReset(t *testing.T) {
	b := NewConfigBuilder("U").Interface("eth0").DHCP().Gateway("10.0.0.1")
	if !b.HasChanges() {
		t.Fatal("HasChanges() = false, want true")
	}
	b.Reset()
	if b.HasChanges() {
		t.Error("HasChanges() after Reset = true, want false")
	}
}

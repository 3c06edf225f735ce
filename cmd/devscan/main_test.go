package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/devscan/internal/config"
	"github.com/muurk/devscan/internal/deviceconfig"
)

func withRegistry(t *testing.T) *config.Registry {
	t.Helper()
	oldRegistry, oldPath, oldFilter := registry, configPath, filter
	t.Cleanup(func() { registry, configPath, filter = oldRegistry, oldPath, oldFilter })

	registry = config.NewRegistry()
	configPath = filepath.Join(t.TempDir(), "config.yaml")
	filter = nil
	return registry
}

func TestInterfaceFilter(t *testing.T) {
	reg := withRegistry(t)
	reg.Preferences.InterfaceFilter = []string{"eth0"}

	if got := interfaceFilter(); len(got) != 1 || got[0] != "eth0" {
		t.Errorf("interfaceFilter() = %v, want [eth0]", got)
	}
	if !interfaceAccepted("eth0") || interfaceAccepted("eth1") {
		t.Error("registry filter not applied")
	}

	filter = []string{"eth1"}
	if got := interfaceFilter(); len(got) != 1 || got[0] != "eth1" {
		t.Errorf("interfaceFilter() = %v, want the flag value [eth1]", got)
	}
}

func TestTTL(t *testing.T) {
	reg := withRegistry(t)
	reg.Preferences.TTL = 4

	old := requestTTL
	defer func() { requestTTL = old }()

	requestTTL = 0
	if got := ttl(); got != 4 {
		t.Errorf("ttl() = %d, want 4", got)
	}
	requestTTL = 8
	if got := ttl(); got != 8 {
		t.Errorf("ttl() = %d, want 8", got)
	}
}

func TestRunConfigureRejectsArguments(t *testing.T) {
	withRegistry(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown method", []string{"0009E5001C49", "eth0", "static"}, "unknown configuration method"},
		{"dhcp with address", []string{"0009E5001C49", "eth0", "dhcp", "10.0.0.2"}, "dhcp takes no address"},
		{"manual without netmask", []string{"0009E5001C49", "eth0", "manual", "10.0.0.2"}, "needs an address and a netmask"},
		{"invalid address", []string{"0009E5001C49", "eth0", "manual", "300.0.0.2", "255.255.255.0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runConfigure(configureCmd, tt.args)
			if err == nil {
				t.Fatal("runConfigure() error = nil, want error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runConfigure() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestResolveInterface(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"192.168.1.20", "192.168.1.20", false},
		{"no-such-interface0", "", true},
	}

	for _, tt := range tests {
		got, err := resolveInterface(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveInterface(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("resolveInterface(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTroubleshoot(t *testing.T) {
	tips := troubleshoot(deviceconfig.NewTimeoutError("0009E5001C49"))
	if len(tips) < 2 {
		t.Fatalf("troubleshoot() = %v, want several lines", tips)
	}
	if !strings.Contains(tips[0], "did not answer") {
		t.Errorf("first tip = %q", tips[0])
	}
	if got := troubleshoot(errors.New("boom")); len(got) != 1 {
		t.Errorf("troubleshoot(plain error) = %v, want one line", got)
	}
}

func TestNicknameCommand(t *testing.T) {
	withRegistry(t)

	if err := nicknameCmd.RunE(nicknameCmd, []string{"0009E5001C49", "bench"}); err != nil {
		t.Fatalf("nickname error = %v", err)
	}
	loaded, err := config.LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := loaded.Nickname("0009E5001C49"); got != "bench" {
		t.Errorf("Nickname() = %q, want %q", got, "bench")
	}

	if err := nicknameCmd.RunE(nicknameCmd, []string{"0009E5001C49"}); err != nil {
		t.Fatalf("nickname clear error = %v", err)
	}
	if got := nickname("0009E5001C49"); got != "" {
		t.Errorf("nickname() = %q after clear, want empty", got)
	}
}

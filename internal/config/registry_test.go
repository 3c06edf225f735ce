package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "devscan") {
		t.Errorf("GetConfigDir() = %v, should contain 'devscan'", configDir)
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "devscan"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestGetConfigPathEnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(ConfigPathEnvVar, want)

	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if got != want {
		t.Errorf("GetConfigPath() = %v, want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		ttl     int
	}{
		{"empty", "", false, DefaultTTL},
		{"explicit version", "version: 1\npreferences:\n  ttl: 8\n", false, 8},
		{"ttl out of range", "preferences:\n  ttl: 300\n", false, DefaultTTL},
		{"future version", "version: 2\n", true, 0},
		{"not yaml", "devices: [", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Parse([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if reg.Version != 1 {
				t.Errorf("Version = %d, want 1", reg.Version)
			}
			if reg.Preferences.TTL != tt.ttl {
				t.Errorf("TTL = %d, want %d", reg.Preferences.TTL, tt.ttl)
			}
			if reg.Devices == nil {
				t.Error("Devices should be initialized")
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Fatal("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.CollectSeconds != DefaultCollectSeconds {
		t.Errorf("CollectSeconds = %v, want %v", reg.Preferences.CollectSeconds, DefaultCollectSeconds)
	}
	if reg.Preferences.TTL != DefaultTTL {
		t.Errorf("TTL = %v, want %v", reg.Preferences.TTL, DefaultTTL)
	}
	if reg.Preferences.Bridge == nil || reg.Preferences.Bridge.Listen != DefaultBridgeListen {
		t.Errorf("Bridge = %+v, want listen %q", reg.Preferences.Bridge, DefaultBridgeListen)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	first := reg.EnsureDevice("UUID-1")
	if first == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	if again := reg.EnsureDevice("UUID-1"); again != first {
		t.Error("EnsureDevice() should return the existing entry")
	}
	if len(reg.Devices) != 1 {
		t.Errorf("len(Devices) = %d, want 1", len(reg.Devices))
	}
}

func TestRegistryGetDevice(t *testing.T) {
	reg := NewRegistry()

	if reg.GetDevice("missing") != nil {
		t.Error("GetDevice() for unknown uuid should return nil")
	}
	reg.SetDeviceNickname("UUID-1", "Bench")
	if got := reg.GetDevice("UUID-1"); got == nil || got.Nickname != "Bench" {
		t.Errorf("GetDevice() = %+v, want nickname Bench", got)
	}
	if got := reg.Nickname("UUID-1"); got != "Bench" {
		t.Errorf("Nickname() = %q, want Bench", got)
	}
	if got := reg.Nickname("missing"); got != "" {
		t.Errorf("Nickname(missing) = %q, want empty", got)
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	reg.UpdateDeviceLastSeen("UUID-1", "eth0", "10.0.0.5", seen)
	reg.UpdateDeviceLastSeen("UUID-1", "eth1", "", seen.Add(time.Minute))

	d := reg.GetDevice("UUID-1")
	if d.LastInterface != "eth1" {
		t.Errorf("LastInterface = %q, want eth1", d.LastInterface)
	}
	if d.LastAddress != "10.0.0.5" {
		t.Errorf("LastAddress = %q, want 10.0.0.5 (kept when no address is announced)", d.LastAddress)
	}
	if !d.LastSeen.Equal(seen.Add(time.Minute)) {
		t.Errorf("LastSeen = %v, want %v", d.LastSeen, seen.Add(time.Minute))
	}
}

func TestRegistryAcceptsInterface(t *testing.T) {
	tests := []struct {
		name   string
		filter []string
		iface  string
		want   bool
	}{
		{"empty filter", nil, "eth0", true},
		{"listed", []string{"eth0", "eth1"}, "eth1", true},
		{"not listed", []string{"eth0"}, "wlan0", false},
		{"fallback name", []string{"eth0"}, "Undef3", false},
		{"pattern", []string{"eth*"}, "eth2", true},
		{"pattern miss", []string{"eth*"}, "wlan0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Preferences.InterfaceFilter = tt.filter
			if got := reg.AcceptsInterface(tt.iface); got != tt.want {
				t.Errorf("AcceptsInterface(%q) = %v, want %v", tt.iface, got, tt.want)
			}
		})
	}

	if !(&Registry{}).AcceptsInterface("eth0") {
		t.Error("registry without preferences should accept every interface")
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.SetDeviceNickname("UUID-1", "Bench")
	reg.Preferences.InterfaceFilter = []string{"eth0"}
	reg.Preferences.TTL = 4

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not be left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# devscan configuration file") {
		t.Error("saved file should start with the header comment")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := loaded.Nickname("UUID-1"); got != "Bench" {
		t.Errorf("loaded nickname = %q, want Bench", got)
	}
	if loaded.Preferences.TTL != 4 {
		t.Errorf("loaded TTL = %d, want 4", loaded.Preferences.TTL)
	}
	if len(loaded.Preferences.InterfaceFilter) != 1 || loaded.Preferences.InterfaceFilter[0] != "eth0" {
		t.Errorf("loaded filter = %v, want [eth0]", loaded.Preferences.InterfaceFilter)
	}
}

func TestLoadFileMissing(t *testing.T) {
	reg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if reg.Version != 1 || reg.Preferences == nil {
		t.Errorf("LoadFile() of missing file = %+v, want defaults", reg)
	}
}

func TestLoadFileNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "preferences:\n  ttl: 999\n  collect_seconds: 0\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if reg.Version != 1 {
		t.Errorf("Version = %d, want 1", reg.Version)
	}
	if reg.Preferences.TTL != DefaultTTL {
		t.Errorf("TTL = %d, want %d", reg.Preferences.TTL, DefaultTTL)
	}
	if reg.Preferences.CollectSeconds != DefaultCollectSeconds {
		t.Errorf("CollectSeconds = %d, want %d", reg.Preferences.CollectSeconds, DefaultCollectSeconds)
	}
	if reg.Devices == nil || reg.Preferences.Bridge == nil {
		t.Error("LoadFile() should fill in devices and bridge preferences")
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "version: [", "failed to parse"},
		{"future version", "version: 2\n", "unsupported config version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

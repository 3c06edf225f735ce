// Package config manages the devscan user configuration file.
//
// The file is YAML and stores nicknames and last-seen data for devices,
// keyed by uuid, plus preferences: the receiving interface filter, the
// collection time of the one-shot scans, the multicast TTL, the log level
// and the bridge listen address.
//
// # Configuration File Location
//
// $DEVSCAN_CONFIG when set, otherwise $XDG_CONFIG_HOME/devscan/config.yaml
// or $HOME/.config/devscan/config.yaml. The --config flag of both commands
// overrides all of these.
//
// # Usage Example
//
//	path, _ := config.GetConfigPath()
//	registry, err := config.LoadFile(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry.SetDeviceNickname("0009E5001C49", "Test bench")
//	if err := registry.SaveTo(path); err != nil {
//	    log.Fatal(err)
//	}
//
// # Live Reload
//
// Watch follows the file with fsnotify and hands every successfully parsed
// version to a callback; devscan-bridge uses it to apply interface filter
// changes without a restart.
//
// # Thread Safety
//
// SaveTo is safe for concurrent use. A Registry value itself is not
// synchronized.
package config

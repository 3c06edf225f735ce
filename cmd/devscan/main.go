// Devscan finds devices announcing themselves on the local network and
// configures their IP settings.
//
// Devices multicast a JSON-RPC "announce" telegram every few seconds. The
// receiving commands join the announce group on every interface and report
// what they hear; configure and gateway send requests on the configure
// group.
//
// Usage:
//
//	devscan [command] [flags]
//
// See 'devscan --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/devscan/internal/config"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	filter     []string
	remember   bool
)

// registry is loaded before every command runs
var registry *config.Registry

var rootCmd = &cobra.Command{
	Use:   "devscan",
	Short: "Device announcement scanner and configurator",
	Long: `Devscan listens for device announcements on every network interface,
shows them as they arrive and expire, and configures the IP settings of
announced devices.

Nicknames, the interface filter and other preferences are read from
the registry file (see --config).`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Registry file (default $XDG_CONFIG_HOME/devscan/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); logging is off when unset")
	rootCmd.PersistentFlags().StringSliceVar(&filter, "filter", nil, "Only report announcements received on interfaces matching these patterns, e.g. eth0,enp* (overrides the registry)")
	rootCmd.PersistentFlags().BoolVar(&remember, "remember", false, "Record where each device was last seen in the registry")

	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		configPath = path
	}

	reg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	registry = reg

	level := logLevel
	if level == "" {
		level = registry.Preferences.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	return nil
}

// interfaceFilter returns the --filter flag, or the registry filter when
// the flag is unset
func interfaceFilter() []string {
	if len(filter) > 0 {
		return filter
	}
	return registry.Preferences.InterfaceFilter
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("devscan %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}

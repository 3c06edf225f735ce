// Devscan-bridge exposes the devices announced on the local network over
// HTTP.
//
// It runs a receiver on every interface and serves the live device table
// as JSON, streams announce, expire and error events over a websocket,
// exports Prometheus metrics and advertises itself over mDNS so that
// 'devscan bridges' can find it.
//
// Usage:
//
//	devscan-bridge [flags]
//
// See 'devscan-bridge --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/config"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/server"
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

// Flags
var (
	configPath  string
	listen      string
	instance    string
	logLevel    string
	noAdvertise bool
	noWatch     bool
	remember    bool
)

var rootCmd = &cobra.Command{
	Use:   "devscan-bridge",
	Short: "Serve announced devices over HTTP and websocket",
	Long: `Run a device announcement receiver and serve what it sees:

  GET /devices         live devices as JSON
  GET /devices/{uuid}  the paths of one device
  GET /events          websocket stream of announce, expire and error events
  GET /metrics         Prometheus metrics
  GET /healthz         liveness and build information

The interface filter and nicknames come from the registry file, which is
watched for changes unless --no-watch is given.`,
	Example: `  # Listen on the registry address (default :8080)
  devscan-bridge

  # Custom address, no mDNS advertisement, debug logging
  devscan-bridge --listen 127.0.0.1:9000 --no-advertise --log-level debug

  # Record where devices were last seen
  devscan-bridge --remember`,
	Version:      version.Version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBridge,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&configPath, "config", "", "Registry file (default $XDG_CONFIG_HOME/devscan/config.yaml)")
	rootCmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from the registry, :8080)")
	rootCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: host name)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the bridge over mDNS")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the registry when it changes")
	rootCmd.Flags().BoolVar(&remember, "remember", false, "Record where each device was last seen in the registry")

	rootCmd.AddCommand(versionCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	if configPath == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		configPath = path
	}
	registry, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	prefs := registry.Preferences.Bridge
	cfg := &server.Config{
		Listen:    prefs.Listen,
		Advertise: prefs.Advertise && !noAdvertise,
		Instance:  instance,
		Remember:  remember,
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if !noWatch || remember {
		cfg.ConfigPath = configPath
	}

	logging.Info("Starting devscan-bridge",
		zap.String("version", version.Full()),
		zap.String("config", configPath),
		zap.String("listen", cfg.Listen),
		zap.Bool("advertise", cfg.Advertise),
		zap.Strings("interfaces", registry.Preferences.InterfaceFilter),
	)

	srv, err := server.New(cfg, registry)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("devscan-bridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/ui"
)

var bridgeTimeout time.Duration

func init() {
	bridgesCmd.Flags().DurationVar(&bridgeTimeout, "timeout", discovery.DefaultScanTimeout, "How long to browse")

	rootCmd.AddCommand(adaptersCmd)
	rootCmd.AddCommand(bridgesCmd)
	rootCmd.AddCommand(nicknameCmd)
}

// adaptersCmd lists local network adapters
var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the network adapters used for multicast",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := netadapter.NewList()
		if err := list.Update(); err != nil {
			return fmt.Errorf("failed to enumerate adapters: %w", err)
		}

		gateway := ""
		if gw := netadapter.IPv4DefaultGateway(); gw.IsValid() {
			gateway = gw.String()
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		p.Header("Network adapters", cmd.CommandPath())
		p.Println(ui.RenderAdapters(list.Array(), gateway))
		return nil
	},
}

// bridgesCmd browses for devscan-bridge instances
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Find running devscan-bridge instances over mDNS",
	Example: `  devscan bridges
  devscan bridges --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())
		p.Header("Bridges", cmd.CommandPath(),
			ui.Param{Key: "Service", Value: discovery.BridgeServiceType},
			ui.Param{Key: "Timeout", Value: bridgeTimeout.String()},
		)

		scanner := discovery.NewScanner()
		scanner.Timeout = bridgeTimeout
		bridges, err := scanner.ScanForBridges(context.Background())
		if err != nil {
			p.Failure("Browse failed", err, []string{
				"Check that multicast DNS (UDP 5353) is not blocked",
			})
			return err
		}
		if len(bridges) == 0 {
			p.Warning("No bridges found",
				ui.Param{Key: "Hint", Value: "start one with devscan-bridge"},
			)
			return nil
		}

		sort.Slice(bridges, func(i, j int) bool { return bridges[i].Instance < bridges[j].Instance })
		for _, b := range bridges {
			details := []ui.Param{
				{Key: "URL", Value: b.BaseURL()},
				{Key: "Host", Value: b.Hostname},
				{Key: "Version", Value: b.GetMetadata("version")},
			}
			if ifaces := b.GetMetadata("interfaces"); ifaces != "" {
				details = append(details, ui.Param{Key: "Interfaces", Value: strings.ReplaceAll(ifaces, ",", ", ")})
			}
			p.Success(b.Instance, details...)
		}
		return nil
	},
}

// nicknameCmd sets or clears a device nickname
var nicknameCmd = &cobra.Command{
	Use:   "nickname <uuid> [name]",
	Short: "Set the nickname shown for a device, or clear it",
	Example: `  devscan nickname 0009E5001C49 "rack 3 amplifier"
  devscan nickname 0009E5001C49`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		registry.SetDeviceNickname(args[0], name)
		if err := registry.SaveTo(configPath); err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared nickname of %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %q\n", args[0], name)
		}
		return nil
	},
}

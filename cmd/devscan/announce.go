package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/devscan/internal/announce"
	"github.com/muurk/devscan/internal/ui"
)

var (
	announceConfig   announce.Config
	announceDuration time.Duration
)

func init() {
	f := announceCmd.Flags()
	f.StringVar(&announceConfig.UUID, "uuid", "", "Device uuid (random when unset)")
	f.StringVar(&announceConfig.Name, "name", "", "Device name (devscan-<uuid prefix> when unset)")
	f.StringVar(&announceConfig.Type, "type", "", "Device type")
	f.StringVar(&announceConfig.FamilyType, "family", "", "Device family type")
	f.StringVar(&announceConfig.Firmware, "firmware", "", "Announced firmware version")
	f.StringSliceVar(&announceConfig.Interfaces, "interface", nil, "Announce only on these interfaces")
	f.IntVar(&announceConfig.Expiration, "expiration", announce.DefaultExpiration, "Announced expiration in seconds")
	f.DurationVar(&announceConfig.Period, "period", 0, "Time between announcements (a third of the expiration when unset)")
	f.IntVar(&announceConfig.HTTPPort, "http-port", 0, "Announce an http service on this port")
	f.DurationVar(&announceDuration, "duration", 0, "Stop after this long (run until interrupted when unset)")

	rootCmd.AddCommand(announceCmd)
}

// announceCmd multicasts a synthetic announcement
var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Announce a synthetic device, for testing receivers",
	Long: `Multicast an announcement for a made-up device on every interface with
an IPv4 address, repeated until interrupted. Receivers on this or other
hosts see it like a real device; it expires there once announce stops.`,
	Example: `  # Random uuid, announced every 5 seconds
  devscan announce

  # Fixed identity on one interface for one minute
  devscan announce --uuid 0009E5FFFF01 --name bench --interface eth0 --duration 1m`,
	Args: cobra.NoArgs,
	RunE: runAnnounce,
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	cfg := announceConfig
	cfg.TTL = ttl()

	a, err := announce.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create announcer: %w", err)
	}
	defer a.Close()

	interfaces := "all"
	if len(cfg.Interfaces) > 0 {
		interfaces = strings.Join(cfg.Interfaces, ", ")
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Header("Announce", cmd.CommandPath(),
		ui.Param{Key: "UUID", Value: a.UUID()},
		ui.Param{Key: "Interfaces", Value: interfaces},
		ui.Param{Key: "TTL", Value: fmt.Sprint(cfg.TTL)},
	)
	p.Println("  Announcing, press Ctrl+C to stop...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	start := time.Now()
	if err := a.StartFor(announceDuration); err != nil {
		p.Failure("Announce failed", err, nil)
		return err
	}

	p.Newline()
	p.Success("Announce stopped",
		ui.Param{Key: "UUID", Value: a.UUID()},
		ui.Param{Key: "Telegrams sent", Value: fmt.Sprint(a.Sent())},
		ui.Param{Key: "Duration", Value: time.Since(start).Round(time.Second).String()},
	)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/receiver"
	"github.com/muurk/devscan/internal/tui"
	"github.com/muurk/devscan/internal/ui"
)

var (
	collectSeconds int
	showRaw        bool
)

func init() {
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(watchCmd)

	notifyCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the announcement payload with every announce event")
	compactCmd.Flags().IntVar(&collectSeconds, "seconds", 0, "Collection time (default from the registry, 10)")
	printCmd.Flags().IntVar(&collectSeconds, "seconds", 0, "Collection time (default from the registry, 10)")
}

// newReceiver creates a receiver with the interface filter applied
func newReceiver() (*receiver.Receiver, error) {
	r, err := receiver.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create receiver: %w", err)
	}
	r.SetInterfaceFilter(interfaceFilter())
	return r, nil
}

// runUntilSignal runs r until SIGINT or SIGTERM
func runUntilSignal(r *receiver.Receiver) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return r.Start()
}

// collect runs r for the --seconds flag or the registry collection time
func collect(r *receiver.Receiver) error {
	seconds := collectSeconds
	if seconds <= 0 {
		seconds = registry.Preferences.CollectSeconds
	}
	logging.Info("Collecting announcements", zap.Int("seconds", seconds))
	return r.StartFor(time.Duration(seconds) * time.Second)
}

// registryMu guards registry against the receiver goroutine writing last
// seen data while the watch screen reads nicknames
var registryMu sync.Mutex

func nickname(uuid string) string {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry.Nickname(uuid)
}

// rememberDevice records path in the registry when --remember is set
func rememberDevice(path discovery.Path, payload string) {
	if !remember {
		return
	}
	address := ""
	if d, err := discovery.NewDevice(path, payload, time.Now()); err == nil {
		address = d.IP
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry.UpdateDeviceLastSeen(path.UUID, path.ReceivingInterface, address, time.Now())
	if err := registry.SaveTo(configPath); err != nil {
		logging.Warn("Failed to save registry", zap.String("path", configPath), zap.Error(err))
	}
}

// notifyCmd prints events as they happen
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Print announce, expire and error events as they happen",
	Long: `Listen for device announcements and print one line per event until
interrupted.

  ANNOUNCE  a device appeared, or its announcement changed
  EXPIRE    a device stopped announcing within its expiration time
  ERROR     an announcement was dropped as malformed`,
	Example: `  # Print events on all interfaces
  devscan notify

  # Only interfaces eth0 and eth1, with the raw payload
  devscan notify --filter eth0,eth1 --raw

  # Keep track of where devices were seen
  devscan notify --remember`,
	Args: cobra.NoArgs,
	RunE: runNotify,
}

func runNotify(cmd *cobra.Command, args []string) error {
	r, err := newReceiver()
	if err != nil {
		return err
	}
	defer r.Close()

	out := cmd.OutOrStdout()
	r.SetAnnounceCb(func(path discovery.Path, payload string) {
		rememberDevice(path, payload)
		line := path.Key()
		if d, err := discovery.NewDevice(path, payload, time.Now()); err == nil {
			line = d.String()
			if nick := nickname(path.UUID); nick != "" {
				line += " [" + nick + "]"
			}
		}
		fmt.Fprintf(out, "%s ANNOUNCE %s\n", timestamp(), line)
		if showRaw {
			fmt.Fprintln(out, ui.PrettyJSON(payload))
		}
	})
	r.SetExpireCb(func(path discovery.Path) {
		fmt.Fprintf(out, "%s EXPIRE   %s\n", timestamp(), path.Key())
	})
	r.SetErrorCb(func(code discovery.ErrorCode, message string, payload string) {
		fmt.Fprintf(out, "%s ERROR    %s (0x%08x): %s\n", timestamp(), code, uint32(code), message)
		if showRaw {
			fmt.Fprintln(out, payload)
		}
	})

	return runUntilSignal(r)
}

func timestamp() string {
	return time.Now().Format("15:04:05.000")
}

// compactCmd prints one tab-separated line per device
var compactCmd = &cobra.Command{
	Use:   "compact [ifname]",
	Short: "Collect announcements and print one tab-separated line per device",
	Long: `Collect announcements for a while, then print every live device as
a tab-separated line:

  family uuid type name address netmask httpPort firmware

An interface name limits the output to announcements received on it.`,
	Example: `  # Collect for the default time
  devscan compact

  # Only devices seen on eth1, collected for 3 seconds
  devscan compact eth1 --seconds 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompact,
}

func runCompact(cmd *cobra.Command, args []string) error {
	r, err := newReceiver()
	if err != nil {
		return err
	}
	defer r.Close()
	if len(args) == 1 {
		r.SetInterfaceFilter(args)
	}

	r.SetAnnounceCb(rememberDevice)
	if err := collect(r); err != nil {
		return err
	}

	// replays every live entry
	out := cmd.OutOrStdout()
	r.SetAnnounceCb(func(path discovery.Path, payload string) {
		d, err := discovery.NewDevice(path, payload, time.Now())
		if err != nil {
			return
		}
		fmt.Fprintln(out, d.CompactLine())
	})
	return nil
}

// printCmd prints every live announcement
var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Collect announcements and pretty-print each one",
	Example: `  devscan print
  devscan print --seconds 30 --filter eth0`,
	Args: cobra.NoArgs,
	RunE: runPrint,
}

func runPrint(cmd *cobra.Command, args []string) error {
	r, err := newReceiver()
	if err != nil {
		return err
	}
	defer r.Close()

	r.SetAnnounceCb(rememberDevice)
	if err := collect(r); err != nil {
		return err
	}

	// boxed for people, plain JSON for pipes
	boxed := ui.IsTerminal(os.Stdout)
	p := ui.NewPrinter(cmd.OutOrStdout())
	entries := r.Entries()
	for _, e := range entries {
		if !interfaceAccepted(e.Path.ReceivingInterface) {
			continue
		}
		if boxed {
			p.Println(ui.NewRawBox(e.Path.String(), e.Payload).SetWidth(p.Width()).Render())
		} else {
			p.Println(ui.PrettyJSON(e.Payload))
		}
	}
	return nil
}

// interfaceAccepted applies the interface filter to Entries, which are not
// filtered by the receiver
func interfaceAccepted(iface string) bool {
	return netadapter.MatchName(interfaceFilter(), iface)
}

// watchCmd shows the live table
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live table of announced devices",
	Long: `Show a full-screen table of live devices that updates as
announcements arrive and expire. Select a device and press enter to see
its announcement.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := newReceiver()
	if err != nil {
		return err
	}
	defer r.Close()

	src := &rememberingSource{Receiver: r}
	return tui.Run(src, nickname)
}

// rememberingSource records announcements before the watch screen sees them
type rememberingSource struct {
	*receiver.Receiver
}

func (s *rememberingSource) SetAnnounceCb(cb discovery.AnnounceFunc) {
	s.Receiver.SetAnnounceCb(func(path discovery.Path, payload string) {
		rememberDevice(path, payload)
		cb(path, payload)
	})
}

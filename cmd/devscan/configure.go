package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/devscan/internal/deviceconfig"
	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/protocol"
	"github.com/muurk/devscan/internal/receiver"
	"github.com/muurk/devscan/internal/ui"
)

// Configure command flags
var (
	sendInterface string
	requestTTL    int
	assumeYes     bool
	verifyChange  bool
	verifyTimeout time.Duration
	verbose       bool
)

func init() {
	for _, cmd := range []*cobra.Command{configureCmd, gatewayCmd} {
		cmd.Flags().StringVar(&sendInterface, "interface", "", "Send over this local interface (name or IPv4 address); all interfaces when unset")
		cmd.Flags().IntVar(&requestTTL, "ttl", 0, "Multicast TTL (default from the registry, 1)")
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Apply without asking for confirmation")
		cmd.Flags().BoolVar(&verifyChange, "verify", false, "Wait for an announcement with the new settings and roll back if none arrives")
		cmd.Flags().DurationVar(&verifyTimeout, "verify-timeout", 30*time.Second, "How long to wait for the device to announce the change")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the device response")
	}

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(gatewayCmd)
}

// configureCmd sets the configuration method of a device interface
var configureCmd = &cobra.Command{
	Use:   "configure <uuid> <ifname> dhcp|manual [address netmask]",
	Short: "Configure the IPv4 settings of a device interface",
	Long: `Send a configure request to the device with the given uuid.

With "dhcp" the interface obtains its address from a DHCP server. With
"manual" the address and netmask are set statically. The device answers
on the configure group; without --verify the answer is the only check.`,
	Example: `  # Switch eth0 of a device to DHCP
  devscan configure 0009E5001C49 eth0 dhcp

  # Static address, sent over the local interface enp3s0
  devscan configure 0009E5001C49 eth0 manual 172.19.10.5 255.255.0.0 --interface enp3s0

  # Verify by announcement and roll back on failure
  devscan configure 0009E5001C49 eth0 manual 172.19.10.5 255.255.0.0 --verify`,
	Args: cobra.RangeArgs(3, 5),
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	uuid, ifName, method := args[0], args[1], args[2]

	b := deviceconfig.NewConfigBuilder(uuid).TTL(ttl()).Interface(ifName)
	switch method {
	case protocol.ConfigMethodDHCP:
		if len(args) != 3 {
			return fmt.Errorf("dhcp takes no address or netmask")
		}
		b.DHCP()
	case protocol.ConfigMethodManual:
		if len(args) != 5 {
			return fmt.Errorf("manual needs an address and a netmask")
		}
		b.Manual(args[3], args[4])
	default:
		return fmt.Errorf("unknown configuration method %q (use %s or %s)",
			method, protocol.ConfigMethodDHCP, protocol.ConfigMethodManual)
	}
	return applySettings(cmd, "Configure interface", b)
}

// gatewayCmd sets the default gateway of a device
var gatewayCmd = &cobra.Command{
	Use:   "gateway <uuid> <address>",
	Short: "Set the default IPv4 gateway of a device",
	Example: `  devscan gateway 0009E5001C49 172.19.0.1
  devscan gateway 0009E5001C49 172.19.0.1 --verify`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := deviceconfig.NewConfigBuilder(args[0]).TTL(ttl()).Gateway(args[1])
		return applySettings(cmd, "Set default gateway", b)
	},
}

func ttl() int {
	if requestTTL > 0 {
		return requestTTL
	}
	return registry.Preferences.TTL
}

// applySettings confirms, sends and optionally verifies the request built
// by b
func applySettings(cmd *cobra.Command, title string, b *deviceconfig.ConfigBuilder) error {
	req, err := b.Build()
	if err != nil {
		return err
	}

	warnings, _ := deviceconfig.SeparateWarningsAndErrors(deviceconfig.ValidateSettings(req.Settings))
	var notes []string
	for _, w := range warnings {
		notes = append(notes, w.Error())
	}
	if prompt := deviceconfig.PromptBeforeDestructive(nil, req.Settings); prompt != "" {
		for _, line := range strings.Split(strings.TrimSpace(prompt), "\n") {
			notes = append(notes, strings.TrimSpace(line))
		}
	}

	target := req.UUID
	if nick := registry.Nickname(req.UUID); nick != "" {
		target += " (" + nick + ")"
	}
	if !assumeYes && !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), title+" of "+target, []string{req.Settings.Summary()}, notes) {
		return nil
	}

	interfaceIP, err := resolveInterface(sendInterface)
	if err != nil {
		return err
	}

	client, err := deviceconfig.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create configure client: %w", err)
	}
	defer client.Close()

	steps := []string{"Validate settings", "Send request"}
	if verifyChange {
		steps = []string{"Validate settings", "Read current settings", "Send request", "Verify announcement"}
	}
	via := interfaceIP
	if via == "" {
		via = "all interfaces"
	}
	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   title,
		Command: cmd.CommandPath() + " " + strings.Join(cmd.Flags().Args(), " "),
		Params: []ui.Param{
			{Key: "Device", Value: target},
			{Key: "Change", Value: req.Settings.Summary()},
			{Key: "Via", Value: via},
			{Key: "TTL", Value: fmt.Sprint(req.TTL)},
		},
		StepNames:    steps,
		Verbose:      verbose,
		Output:       cmd.OutOrStdout(),
		Troubleshoot: troubleshoot,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
		onStep(1, ui.StepComplete, "")
		if !verifyChange {
			return send(ctx, client, interfaceIP, req, runner, onStep)
		}
		return sendVerified(ctx, client, interfaceIP, title, req, runner, onStep)
	})
}

func send(ctx context.Context, client *deviceconfig.Client, interfaceIP string, req *deviceconfig.Request, runner *ui.Runner, onStep ui.StepCallback) ([]ui.Param, error) {
	onStep(2, ui.StepRunning, "")
	res, err := client.Configure(ctx, interfaceIP, req)
	if res != nil {
		runner.SetRaw("Response", res.Raw)
	}
	if err != nil {
		onStep(2, ui.StepFailed, "")
		return nil, err
	}
	onStep(2, ui.StepComplete, res.Elapsed.Round(time.Millisecond).String())
	return []ui.Param{
		{Key: "Request id", Value: req.ID},
		{Key: "Response time", Value: res.Elapsed.Round(time.Millisecond).String()},
	}, nil
}

func sendVerified(ctx context.Context, client *deviceconfig.Client, interfaceIP, title string, req *deviceconfig.Request, runner *ui.Runner, onStep ui.StepCallback) ([]ui.Param, error) {
	onStep(2, ui.StepRunning, "")
	current, path, err := currentAnnouncement(ctx, req.UUID, time.Duration(registry.Preferences.CollectSeconds)*time.Second)
	if err != nil {
		onStep(2, ui.StepFailed, "")
		return nil, err
	}
	before, err := deviceconfig.SnapshotFromAnnouncement(current, title)
	if err != nil {
		onStep(2, ui.StepFailed, "")
		return nil, err
	}
	onStep(2, ui.StepComplete, "via "+path.ReceivingInterface)

	// send where the device was heard unless told otherwise
	if interfaceIP == "" {
		interfaceIP = adapterAddress(path.ReceivingInterface)
	}

	onStep(3, ui.StepRunning, "")
	rm := deviceconfig.NewRollbackManager(client)
	rm.InterfaceIP = interfaceIP
	result := rm.SafeUpdate(ctx, before, req, &deviceconfig.VerificationOptions{Timeout: verifyTimeout})
	if result.Result != nil {
		runner.SetRaw("Response", result.Result.Raw)
	}
	if result.Verification == nil {
		onStep(3, ui.StepFailed, "")
		return nil, result.Error
	}
	onStep(3, ui.StepComplete, result.Result.Elapsed.Round(time.Millisecond).String())

	v := result.Verification
	if !result.Success {
		note := "rollback failed"
		if result.RollbackSucceeded {
			note = "rolled back"
		}
		onStep(4, ui.StepFailed, note)
		return nil, result.Error
	}
	onStep(4, ui.StepComplete, v.Elapsed.Round(time.Millisecond).String())
	return []ui.Param{
		{Key: "Request id", Value: req.ID},
		{Key: "Verified after", Value: fmt.Sprintf("%d announcement(s)", v.Announcements)},
		{Key: "Before", Value: before.Settings.Summary()},
	}, nil
}

// currentAnnouncement listens until uuid announces, timeout passes or ctx
// is done
func currentAnnouncement(ctx context.Context, uuid string, timeout time.Duration) (*protocol.Announcement, discovery.Path, error) {
	r, err := receiver.New()
	if err != nil {
		return nil, discovery.Path{}, fmt.Errorf("failed to create receiver: %w", err)
	}
	defer r.Close()

	var (
		found *protocol.Announcement
		path  discovery.Path
	)
	r.SetAnnounceCb(func(p discovery.Path, payload string) {
		if found != nil || !strings.EqualFold(p.UUID, uuid) {
			return
		}
		a, err := protocol.DecodeAnnouncement([]byte(payload))
		if err != nil {
			return
		}
		found, path = a, p
		r.Stop()
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-done:
		}
	}()

	if err := r.StartFor(timeout); err != nil {
		return nil, path, err
	}
	if found == nil {
		if ctx.Err() != nil {
			return nil, path, ctx.Err()
		}
		return nil, path, fmt.Errorf("device %s did not announce within %s", uuid, timeout)
	}
	return found, path, nil
}

// resolveInterface turns an interface name into its first IPv4 address.
// Addresses are returned as given.
func resolveInterface(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.String(), nil
	}
	addr := adapterAddress(s)
	if addr == "" {
		return "", fmt.Errorf("interface %s not found or has no IPv4 address", s)
	}
	return addr, nil
}

func adapterAddress(name string) string {
	list := netadapter.NewList()
	if err := list.Update(); err != nil {
		return ""
	}
	a, err := list.ByName(name)
	if err != nil {
		return ""
	}
	addr, ok := a.FirstIPv4()
	if !ok {
		return ""
	}
	return addr.String()
}

func troubleshoot(err error) []string {
	hint := deviceconfig.GetTroubleshootingHint(err)
	if hint == "" {
		return nil
	}
	return strings.Split(hint, "\n")
}

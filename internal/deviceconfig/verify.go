package deviceconfig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/protocol"
	"github.com/muurk/devscan/internal/receiver"
)

// VerificationOptions configures how configuration verification behaves
type VerificationOptions struct {
	// Timeout bounds the wait for a matching announcement. Devices announce
	// every few seconds and again right after a settings change.
	// Default: 30s
	Timeout time.Duration
}

// DefaultVerificationOptions returns sensible defaults for verification
func DefaultVerificationOptions() *VerificationOptions {
	return &VerificationOptions{
		Timeout: 30 * time.Second,
	}
}

// VerificationResult contains the results of a configuration verification
type VerificationResult struct {
	// Success indicates whether an announcement matched the settings
	Success bool

	// Announcements is the number of announcements of the device seen
	Announcements int

	// Last is the most recent announcement of the device
	Last *protocol.Announcement

	// Mismatches lists the differences found in Last
	Mismatches []string

	Elapsed time.Duration

	// Error is any error that occurred during verification
	Error error
}

// VerifyFunc waits for proof that uuid applied expected.
type VerifyFunc func(ctx context.Context, uuid string, expected Settings, opts *VerificationOptions) *VerificationResult

// CompareAnnouncement lists the settings in expected that a does not
// reflect. Unset fields are not compared.
func CompareAnnouncement(expected Settings, a *protocol.Announcement) []string {
	var mismatches []string

	iface := a.NetSettings.Interface
	if expected.HasInterfaceChange() {
		if iface == nil || iface.Name != expected.Interface {
			return []string{fmt.Sprintf("interface %s not announced", expected.Interface)}
		}
		if expected.Method != "" && iface.ConfigurationMethod != expected.Method {
			mismatches = append(mismatches, fmt.Sprintf("method: expected %s, got %s",
				expected.Method, orNone(iface.ConfigurationMethod)))
		}
		if expected.Address != "" && !announcesAddress(iface.IPv4, expected.Address, expected.Netmask) {
			mismatches = append(mismatches, fmt.Sprintf("address: expected %s/%s, got %s",
				expected.Address, expected.Netmask, formatAddresses(iface.IPv4)))
		}
	}

	if expected.Gateway != "" {
		got := ""
		if a.NetSettings.DefaultGateway != nil {
			got = a.NetSettings.DefaultGateway.IPv4Address
		}
		if got != expected.Gateway {
			mismatches = append(mismatches, fmt.Sprintf("gateway: expected %s, got %s", expected.Gateway, orNone(got)))
		}
	}

	return mismatches
}

func announcesAddress(addrs []protocol.IPv4Address, address, netmask string) bool {
	for _, a := range addrs {
		if a.Address == address && (netmask == "" || a.Netmask == netmask) {
			return true
		}
	}
	return false
}

func formatAddresses(addrs []protocol.IPv4Address) string {
	if len(addrs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.Address+"/"+a.Netmask)
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// VerifyByAnnouncement listens on the announce group until uuid announces
// settings matching expected, opts.Timeout passes or ctx is done.
func VerifyByAnnouncement(ctx context.Context, uuid string, expected Settings, opts *VerificationOptions) *VerificationResult {
	if opts == nil {
		opts = DefaultVerificationOptions()
	}
	result := &VerificationResult{}
	start := time.Now()

	r, err := receiver.New()
	if err != nil {
		result.Error = fmt.Errorf("failed to start receiver: %w", err)
		return result
	}
	defer r.Close()

	r.SetAnnounceCb(func(p discovery.Path, payload string) {
		if p.UUID != uuid {
			return
		}
		a, err := protocol.DecodeAnnouncement([]byte(payload))
		if err != nil {
			return
		}
		result.Announcements++
		result.Last = a
		result.Mismatches = CompareAnnouncement(expected, a)
		if len(result.Mismatches) == 0 {
			result.Success = true
			r.Stop()
		}
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

	if err := r.StartFor(opts.Timeout); err != nil {
		result.Error = err
	}
	result.Elapsed = time.Since(start)

	switch {
	case result.Success:
	case ctx.Err() != nil:
		result.Error = ctx.Err()
	case result.Error != nil:
	case result.Announcements == 0:
		result.Error = fmt.Errorf("no announcement from %s within %s", uuid, opts.Timeout)
	default:
		result.Error = fmt.Errorf("verification failed after %d announcement(s): %s",
			result.Announcements, strings.Join(result.Mismatches, "; "))
	}
	return result
}

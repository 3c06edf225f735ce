package deviceconfig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/devscan/internal/protocol"
)

// Snapshot is the network configuration of a device as announced before a
// change.
type Snapshot struct {
	UUID        string
	Settings    Settings
	Timestamp   time.Time
	Description string
}

// SnapshotFromAnnouncement captures the announced interface and gateway
// settings of a device. For dhcp interfaces only the method is kept.
func SnapshotFromAnnouncement(a *protocol.Announcement, description string) (*Snapshot, error) {
	iface := a.NetSettings.Interface
	if iface == nil || iface.Name == "" {
		return nil, fmt.Errorf("announcement of %s has no interface", a.Device.UUID)
	}

	s := Settings{
		Interface: iface.Name,
		Method:    iface.ConfigurationMethod,
	}
	if s.Method == protocol.ConfigMethodManual {
		if first, ok := a.FirstIPv4(); ok {
			s.Address = first.Address
			s.Netmask = first.Netmask
		}
	}
	if gw := a.NetSettings.DefaultGateway; gw != nil && gw.IPv4Address != "" && gw.IPv4Address != "0.0.0.0" {
		s.Gateway = gw.IPv4Address
	}

	return &Snapshot{
		UUID:        a.Device.UUID,
		Settings:    s,
		Timestamp:   time.Now(),
		Description: description,
	}, nil
}

// Request builds the request restoring the snapshot.
func (s *Snapshot) Request(ttl int) (*Request, error) {
	b := NewConfigBuilder(s.UUID).TTL(ttl).Interface(s.Settings.Interface)
	switch s.Settings.Method {
	case protocol.ConfigMethodDHCP:
		b.DHCP()
	case protocol.ConfigMethodManual:
		b.Manual(s.Settings.Address, s.Settings.Netmask)
	}
	if s.Settings.Gateway != "" {
		b.Gateway(s.Settings.Gateway)
	}
	return b.Build()
}

// Configurer sends a configure request. *Client implements it.
type Configurer interface {
	Configure(ctx context.Context, interfaceIP string, req *Request) (*Result, error)
}

// RollbackManager applies changes with automatic restore on failure.
type RollbackManager struct {
	configurer Configurer
	verify     VerifyFunc

	// InterfaceIP scopes requests to one local interface
	InterfaceIP string

	// snapshots is limited to the last maxSnapshots entries
	snapshots    []*Snapshot
	maxSnapshots int
	mutex        sync.RWMutex
}

// NewRollbackManager creates a manager that verifies changes by
// announcement.
func NewRollbackManager(c Configurer) *RollbackManager {
	return NewRollbackManagerWithVerifier(c, VerifyByAnnouncement)
}

// NewRollbackManagerWithVerifier creates a manager with a custom verifier.
func NewRollbackManagerWithVerifier(c Configurer, verify VerifyFunc) *RollbackManager {
	return &RollbackManager{
		configurer:   c,
		verify:       verify,
		snapshots:    make([]*Snapshot, 0, 10),
		maxSnapshots: 10,
	}
}

// SaveSnapshot records a snapshot.
func (rm *RollbackManager) SaveSnapshot(s *Snapshot) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	rm.snapshots = append(rm.snapshots, s)
	if len(rm.snapshots) > rm.maxSnapshots {
		rm.snapshots = rm.snapshots[len(rm.snapshots)-rm.maxSnapshots:]
	}
}

// GetLatestSnapshot returns the most recent snapshot for uuid, or nil.
func (rm *RollbackManager) GetLatestSnapshot(uuid string) *Snapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	for i := len(rm.snapshots) - 1; i >= 0; i-- {
		if rm.snapshots[i].UUID == uuid {
			return rm.snapshots[i]
		}
	}
	return nil
}

// GetSnapshots returns all snapshots, oldest first.
func (rm *RollbackManager) GetSnapshots() []*Snapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	out := make([]*Snapshot, len(rm.snapshots))
	copy(out, rm.snapshots)
	return out
}

// ClearSnapshots removes all snapshots.
func (rm *RollbackManager) ClearSnapshots() {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.snapshots = rm.snapshots[:0]
}

// SafeUpdateResult contains the results of a safe update operation
type SafeUpdateResult struct {
	// Success indicates the change was answered and verified
	Success bool

	Description string

	// Result is the device answer to the change request
	Result *Result

	Verification *VerificationResult

	RollbackAttempted bool
	RollbackSucceeded bool

	// Error contains any error that occurred
	Error error
}

// SafeUpdate sends req, verifies the device announces the new settings
// and restores before if it does not.
func (rm *RollbackManager) SafeUpdate(ctx context.Context, before *Snapshot, req *Request, opts *VerificationOptions) *SafeUpdateResult {
	result := &SafeUpdateResult{Description: before.Description}
	rm.SaveSnapshot(before)

	res, err := rm.configurer.Configure(ctx, rm.InterfaceIP, req)
	result.Result = res
	if err != nil {
		// the device refused or never saw the change; nothing to undo
		result.Error = fmt.Errorf("update failed: %w", err)
		return result
	}

	result.Verification = rm.verify(ctx, req.UUID, req.Settings, opts)
	if result.Verification.Success {
		result.Success = true
		return result
	}

	result.RollbackAttempted = true
	restore, err := before.Request(req.TTL)
	if err != nil {
		result.Error = fmt.Errorf("verification failed (%w) and the snapshot cannot be restored: %w", result.Verification.Error, err)
		return result
	}
	if _, err := rm.configurer.Configure(ctx, rm.InterfaceIP, restore); err != nil {
		result.Error = fmt.Errorf("verification failed (%w) AND rollback failed: %w", result.Verification.Error, err)
		return result
	}

	result.RollbackSucceeded = true
	result.Error = fmt.Errorf("verification failed (%w), rolled back to previous configuration", result.Verification.Error)
	return result
}

// String returns a human-readable summary of the safe update result
func (r *SafeUpdateResult) String() string {
	if r.Success {
		return fmt.Sprintf("✅ Update succeeded: %s (verified in %s)",
			r.Description, r.Verification.Elapsed.Round(time.Millisecond))
	}
	if r.RollbackAttempted {
		if r.RollbackSucceeded {
			return fmt.Sprintf("⚠️  Update not verified, rolled back: %s\nError: %v", r.Description, r.Error)
		}
		return fmt.Sprintf("❌ Update not verified and rollback failed: %s\nError: %v", r.Description, r.Error)
	}
	return fmt.Sprintf("❌ Update failed: %s\nError: %v", r.Description, r.Error)
}

// PromptBeforeDestructive returns a warning for changes that can cut the
// device off from this host, or "" if the change is harmless.
func PromptBeforeDestructive(before *Snapshot, s Settings) string {
	var warnings []string

	if before != nil && before.Settings.Method == protocol.ConfigMethodDHCP && s.Method == protocol.ConfigMethodManual {
		warnings = append(warnings, "the interface leaves DHCP; a wrong address makes the device unreachable over IP")
	}
	if before != nil && before.Settings.Address != "" && s.Address != "" && before.Settings.Address != s.Address {
		warnings = append(warnings, fmt.Sprintf("the address changes from %s to %s", before.Settings.Address, s.Address))
	}
	if s.Method == protocol.ConfigMethodDHCP && (before == nil || before.Settings.Method != protocol.ConfigMethodDHCP) {
		warnings = append(warnings, "the address will be assigned by a DHCP server, if one is present")
	}

	if len(warnings) == 0 {
		return ""
	}
	msg := "⚠️  This change may interrupt connections to the device:\n"
	for _, w := range warnings {
		msg += "  • " + w + "\n"
	}
	return msg
}

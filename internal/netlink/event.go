package netlink

import (
	"fmt"
	"net/netip"
)

// Kind is the kind of interface change.
type Kind int

const (
	// Added means an IPv4 address appeared on an interface.
	Added Kind = iota
	// Removed means an IPv4 address disappeared from an interface.
	Removed
	// Reset means the interface set may have changed in ways not captured
	// by individual events; consumers should resynchronize everything.
	Reset
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one interface change. Index and Address are zero for Reset.
type Event struct {
	Kind    Kind
	Index   int
	Address netip.Addr
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	if e.Kind == Reset {
		return "reset"
	}
	return fmt.Sprintf("%s %s on index %d", e.Kind, e.Address, e.Index)
}

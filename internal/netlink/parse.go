package netlink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrTruncated is returned for a message or attribute shorter than its
// header claims.
var ErrTruncated = errors.New("truncated netlink message")

// ParseMessages decodes a buffer of rtnetlink messages into events.
// Address messages for families other than IPv4 are skipped. The end of a
// dump and any link change yield a Reset.
func ParseMessages(b []byte) ([]Event, error) {
	msgs, err := syscall.ParseNetlinkMessage(b)
	if err != nil {
		return nil, ErrTruncated
	}

	var events []Event
	for i := range msgs {
		m := &msgs[i]
		switch m.Header.Type {
		case unix.NLMSG_DONE:
			events = append(events, Event{Kind: Reset})
		case unix.NLMSG_ERROR:
			if len(m.Data) < 4 {
				return events, ErrTruncated
			}
			if errno := int32(binary.NativeEndian.Uint32(m.Data[0:4])); errno != 0 {
				return events, fmt.Errorf("netlink error: %w", unix.Errno(-errno))
			}
		case unix.RTM_NEWLINK, unix.RTM_DELLINK:
			events = append(events, Event{Kind: Reset})
		case unix.RTM_NEWADDR, unix.RTM_DELADDR:
			ev, ok, err := parseAddr(m)
			if err != nil {
				return events, err
			}
			if ok {
				ev.Kind = Added
				if m.Header.Type == unix.RTM_DELADDR {
					ev.Kind = Removed
				}
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// parseAddr decodes an ifaddrmsg followed by its attributes. IFA_LOCAL is
// preferred over IFA_ADDRESS; they differ only on point-to-point links.
func parseAddr(m *syscall.NetlinkMessage) (Event, bool, error) {
	if len(m.Data) < unix.SizeofIfAddrmsg {
		return Event{}, false, ErrTruncated
	}
	family := m.Data[0]
	index := int(binary.NativeEndian.Uint32(m.Data[4:8]))
	if family != unix.AF_INET {
		return Event{}, false, nil
	}

	// A trailing attribute may stop short of its padding. The message
	// buffer always holds the padded length.
	m.Data = m.Data[:(len(m.Data)+unix.RTA_ALIGNTO-1)&^(unix.RTA_ALIGNTO-1)]
	attrs, err := syscall.ParseNetlinkRouteAttr(m)
	if err != nil {
		return Event{}, false, ErrTruncated
	}

	var local, address netip.Addr
	for _, a := range attrs {
		if len(a.Value) != 4 {
			continue
		}
		switch a.Attr.Type {
		case unix.IFA_LOCAL:
			local = netip.AddrFrom4([4]byte(a.Value))
		case unix.IFA_ADDRESS:
			address = netip.AddrFrom4([4]byte(a.Value))
		}
	}

	if local.IsValid() {
		return Event{Index: index, Address: local}, true, nil
	}
	if address.IsValid() {
		return Event{Index: index, Address: address}, true, nil
	}
	return Event{}, false, nil
}

// dumpRequest builds an RTM_GETADDR dump request for IPv4 addresses.
func dumpRequest(seq uint32) []byte {
	msg := make([]byte, unix.SizeofNlMsghdr+unix.SizeofIfAddrmsg)
	binary.NativeEndian.PutUint32(msg[0:4], uint32(len(msg)))
	binary.NativeEndian.PutUint16(msg[4:6], unix.RTM_GETADDR)
	binary.NativeEndian.PutUint16(msg[6:8], unix.NLM_F_REQUEST|unix.NLM_F_DUMP)
	binary.NativeEndian.PutUint32(msg[8:12], seq)
	msg[unix.SizeofNlMsghdr] = unix.AF_INET
	return msg
}

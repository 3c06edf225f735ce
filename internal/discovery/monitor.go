package discovery

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/protocol"
)

// ErrorCode identifies why an announcement was dropped. Codes passed to the
// error callback carry the DataDropped bit.
type ErrorCode uint32

const (
	// DataDropped is set on every code reported by the monitor
	DataDropped ErrorCode = 0x80000000

	ErrorParse     ErrorCode = 1
	ErrorMethod    ErrorCode = 2
	ErrorIPAddr    ErrorCode = 3 // missing sending interface name
	ErrorUUID      ErrorCode = 4
	ErrorExpire    ErrorCode = 5
	ErrorInternal1 ErrorCode = 6 // panic while validating
	ErrorInternal2 ErrorCode = 7 // panic while updating the table
)

// Error messages handed to the error callback
const (
	MsgParse     = "JSON parser failed"
	MsgMethod    = `Method is not "announce"`
	MsgInterface = "Missing interface name in JSON-document"
	MsgUUID      = "Missing uuid in JSON-document"
	MsgExpire    = "Missing expiration in JSON-document"
	MsgInternal1 = "Receiving error 1"
	MsgInternal2 = "Receiving error 2"
)

// Kind strips the DataDropped bit
func (c ErrorCode) Kind() ErrorCode {
	return c &^ DataDropped
}

// String returns a human-readable name for the error kind
func (c ErrorCode) String() string {
	switch c.Kind() {
	case ErrorParse:
		return "parse"
	case ErrorMethod:
		return "method"
	case ErrorIPAddr:
		return "interface"
	case ErrorUUID:
		return "uuid"
	case ErrorExpire:
		return "expiration"
	case ErrorInternal1:
		return "internal1"
	case ErrorInternal2:
		return "internal2"
	default:
		return fmt.Sprintf("ErrorCode(%#x)", uint32(c))
	}
}

// Path is the communication path of an announcement stream. Announcements
// with the same path coalesce into one entry.
type Path struct {
	ReceivingInterface string // local interface the telegram arrived on
	SendingInterface   string // device interface that sent it
	UUID               string
	Router             string // empty for a direct path
}

// Key serializes the path as "recv:send:uuid[:router]".
func (p Path) Key() string {
	parts := []string{p.ReceivingInterface, p.SendingInterface, p.UUID}
	if p.Router != "" {
		parts = append(parts, p.Router)
	}
	return strings.Join(parts, ":")
}

func (p Path) String() string {
	return p.Key()
}

// Compare orders paths field by field, returning -1, 0 or +1
func (p Path) Compare(q Path) int {
	return cmp.Or(
		cmp.Compare(p.ReceivingInterface, q.ReceivingInterface),
		cmp.Compare(p.SendingInterface, q.SendingInterface),
		cmp.Compare(p.UUID, q.UUID),
		cmp.Compare(p.Router, q.Router),
	)
}

// Callback types. Setting a callback replaces the previous one.
type (
	AnnounceFunc func(path Path, payload string)
	ExpireFunc   func(path Path)
	ErrorFunc    func(code ErrorCode, message string, payload string)
)

// Clock returns the current time. It must be monotonic for expiry to be
// immune to wall clock changes; time.Now is.
type Clock func() time.Time

// Entry is a snapshot of one live announcement
type Entry struct {
	Path      Path
	Payload   string
	ExpiresAt time.Time
}

type entry struct {
	path      Path
	payload   string
	expiresAt time.Time
}

// Monitor tracks live announcements and reports new, changed and expired
// ones through callbacks.
//
// A Monitor is not safe for concurrent use; the Receiver drives it from the
// event loop goroutine only.
type Monitor struct {
	clock    Clock
	entries  map[Path]*entry
	announce AnnounceFunc
	expire   ExpireFunc
	onError  ErrorFunc
}

// NewMonitor creates an empty monitor using time.Now
func NewMonitor() *Monitor {
	return &Monitor{
		clock:   time.Now,
		entries: make(map[Path]*entry),
	}
}

// SetClock replaces the time source. Tests use it to step time.
func (m *Monitor) SetClock(c Clock) {
	if c == nil {
		c = time.Now
	}
	m.clock = c
}

// SetAnnounceCb replaces the announce callback and immediately replays it
// for every live entry.
func (m *Monitor) SetAnnounceCb(cb AnnounceFunc) {
	m.announce = cb
	if cb == nil {
		return
	}
	for _, e := range m.sorted() {
		m.callAnnounce(e.path, e.payload)
	}
}

// SetExpireCb replaces the expire callback
func (m *Monitor) SetExpireCb(cb ExpireFunc) {
	m.expire = cb
}

// SetErrorCb replaces the error callback
func (m *Monitor) SetErrorCb(cb ErrorFunc) {
	m.onError = cb
}

// ProcessReceivedAnnouncement validates payload and creates or refreshes
// its entry. Invalid payloads are reported through the error callback and
// leave the table untouched. The announce callback fires for new paths and
// for payloads that differ from the stored one.
func (m *Monitor) ProcessReceivedAnnouncement(receivingInterface string, payload string) {
	path, expiration, ok := m.validate(receivingInterface, payload)
	if !ok {
		return
	}
	m.store(path, expiration, payload)
}

func (m *Monitor) validate(receivingInterface, payload string) (path Path, expiration time.Duration, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic while validating announcement", zap.Any("panic", r))
			m.callError(ErrorInternal1, MsgInternal1, payload)
			ok = false
		}
	}()

	tree, err := protocol.Parse([]byte(payload))
	if err != nil {
		m.callError(ErrorParse, MsgParse, payload)
		return Path{}, 0, false
	}
	if method, _ := tree.String(protocol.TagMethod); method != protocol.MethodAnnounce {
		m.callError(ErrorMethod, MsgMethod, payload)
		return Path{}, 0, false
	}

	sendingInterface, _ := tree.String(protocol.TagParams, protocol.TagNetSettings, protocol.TagInterface, protocol.TagName)
	if sendingInterface == "" {
		m.callError(ErrorIPAddr, MsgInterface, payload)
		return Path{}, 0, false
	}
	uuid, _ := tree.String(protocol.TagParams, protocol.TagDevice, protocol.TagUUID)
	if uuid == "" {
		m.callError(ErrorUUID, MsgUUID, payload)
		return Path{}, 0, false
	}
	// expiration is an unsigned 32 bit count of seconds on the wire
	seconds, _ := tree.Int(protocol.TagParams, protocol.TagExpiration)
	if seconds <= 0 || seconds > math.MaxUint32 {
		m.callError(ErrorExpire, MsgExpire, payload)
		return Path{}, 0, false
	}
	router, _ := tree.String(protocol.TagParams, protocol.TagRouter, protocol.TagUUID)

	path = Path{
		ReceivingInterface: receivingInterface,
		SendingInterface:   sendingInterface,
		UUID:               uuid,
		Router:             router,
	}
	return path, time.Duration(seconds) * time.Second, true
}

func (m *Monitor) store(path Path, expiration time.Duration, payload string) {
	changed := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Panic while storing announcement", zap.Any("panic", r))
				m.callError(ErrorInternal2, MsgInternal2, payload)
				changed = false
			}
		}()

		expiresAt := m.clock().Add(expiration)
		if e, found := m.entries[path]; found {
			e.expiresAt = expiresAt
			if e.payload != payload {
				e.payload = payload
				changed = true
			}
			return
		}
		m.entries[path] = &entry{path: path, payload: payload, expiresAt: expiresAt}
		changed = true
	}()

	if changed {
		m.callAnnounce(path, payload)
	}
}

// CheckForExpiredAnnouncements removes every entry whose deadline has
// passed and then reports it through the expire callback.
func (m *Monitor) CheckForExpiredAnnouncements() {
	now := m.clock()
	var expired []Path
	for path, e := range m.entries {
		if !now.Before(e.expiresAt) {
			expired = append(expired, path)
		}
	}
	slices.SortFunc(expired, Path.Compare)

	for _, path := range expired {
		e, ok := m.entries[path]
		if !ok || now.Before(e.expiresAt) {
			continue
		}
		delete(m.entries, path)
		m.callExpire(e.path)
	}
}

// CheckForExpiredTimerCb is the retire timer handler. A cancel notice
// (fired == false) is ignored.
func (m *Monitor) CheckForExpiredTimerCb(fired bool) {
	if !fired {
		return
	}
	m.CheckForExpiredAnnouncements()
}

// Len returns the number of live entries
func (m *Monitor) Len() int {
	return len(m.entries)
}

// Entries returns a snapshot of the live entries ordered by path
func (m *Monitor) Entries() []Entry {
	sorted := m.sorted()
	out := make([]Entry, len(sorted))
	for i, e := range sorted {
		out[i] = Entry{Path: e.path, Payload: e.payload, ExpiresAt: e.expiresAt}
	}
	return out
}

func (m *Monitor) sorted() []*entry {
	out := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *entry) int { return a.path.Compare(b.path) })
	return out
}

func (m *Monitor) callAnnounce(path Path, payload string) {
	if m.announce == nil {
		return
	}
	defer recoverCallback("announce")
	m.announce(path, payload)
}

func (m *Monitor) callExpire(path Path) {
	if m.expire == nil {
		return
	}
	defer recoverCallback("expire")
	m.expire(path)
}

func (m *Monitor) callError(code ErrorCode, message, payload string) {
	if m.onError == nil {
		return
	}
	defer recoverCallback("error")
	m.onError(DataDropped|code, message, payload)
}

func recoverCallback(name string) {
	if r := recover(); r != nil {
		logging.Warn("Callback panicked",
			zap.String("callback", name),
			zap.Any("panic", r),
		)
	}
}

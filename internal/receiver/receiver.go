package receiver

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/eventloop"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/metrics"
	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/netlink"
	"github.com/muurk/devscan/internal/protocol"
)

// RetirePeriod is how often expired announcements are swept.
const RetirePeriod = time.Second

// malformedLogInterval bounds how often a rejected announcement is logged.
const malformedLogInterval = 10 * time.Second

// ErrRunning is returned by Start when the receiver is already running.
var ErrRunning = errors.New("receiver already running")

// ErrClosed is returned by Start and StartFor after Close.
var ErrClosed = errors.New("receiver closed")

// Receiver listens on the announce group and tracks live devices through a
// discovery.Monitor. Everything except Stop and SetInterfaceFilter belongs
// to the goroutine that calls Start; callbacks run on that goroutine too.
type Receiver struct {
	loop     *eventloop.Loop
	adapters *netadapter.List
	server   *multicast.Server
	timer    *eventloop.Timer
	watcher  *netlink.Watcher
	monitor  *discovery.Monitor

	group string
	port  int

	announceCb discovery.AnnounceFunc
	expireCb   discovery.ExpireFunc
	errorCb    discovery.ErrorFunc

	filter    atomic.Pointer[netadapter.NameFilter]
	malformed *rate.Limiter
	buf       []byte

	// set while SetAnnounceCb replays the table
	replaying atomic.Bool

	mu       sync.Mutex
	running  bool
	done     chan struct{} // closed when the running StartFor returns
	closed   bool
	stopping atomic.Bool
}

// New creates a receiver for the announce group.
func New() (*Receiver, error) {
	return NewWithGroup(protocol.AnnounceGroup, protocol.AnnouncePort)
}

// NewWithGroup creates a receiver for an arbitrary group and port.
func NewWithGroup(group string, port int) (*Receiver, error) {
	return newReceiver(netadapter.NewList(), group, port)
}

func newReceiver(adapters *netadapter.List, group string, port int) (*Receiver, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("create event loop: %w", err)
	}
	timer, err := eventloop.NewTimer(loop)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("create retire timer: %w", err)
	}

	r := &Receiver{
		loop:      loop,
		adapters:  adapters,
		server:    multicast.NewServer(adapters, loop),
		timer:     timer,
		watcher:   netlink.NewWatcher(loop),
		monitor:   discovery.NewMonitor(),
		group:     group,
		port:      port,
		malformed: rate.NewLimiter(rate.Every(malformedLogInterval), 1),
		buf:       make([]byte, multicast.MaxDatagramSize),
	}
	r.monitor.SetAnnounceCb(r.onAnnounce)
	r.monitor.SetExpireCb(r.onExpire)
	r.monitor.SetErrorCb(r.onError)
	return r, nil
}

// SetAnnounceCb sets the callback for new and changed announcements. Every
// live entry is replayed to it before SetAnnounceCb returns.
func (r *Receiver) SetAnnounceCb(cb discovery.AnnounceFunc) {
	r.announceCb = cb
	r.replaying.Store(true)
	defer r.replaying.Store(false)
	r.monitor.SetAnnounceCb(r.onAnnounce)
}

// SetExpireCb sets the callback for expired entries.
func (r *Receiver) SetExpireCb(cb discovery.ExpireFunc) {
	r.expireCb = cb
}

// SetErrorCb sets the callback for rejected announcements.
func (r *Receiver) SetErrorCb(cb discovery.ErrorFunc) {
	r.errorCb = cb
}

// SetClock replaces the monitor clock.
func (r *Receiver) SetClock(c discovery.Clock) {
	r.monitor.SetClock(c)
}

// SetInterfaceFilter limits announce and expire callbacks to entries
// received on interfaces matching one of patterns ("eth0", "enp*"). An
// empty list accepts every interface. Safe to call from any goroutine.
func (r *Receiver) SetInterfaceFilter(patterns []string) {
	filter := netadapter.NewNameFilter(patterns)
	r.filter.Store(&filter)
}

func (r *Receiver) accepts(iface string) bool {
	filter := r.filter.Load()
	return filter == nil || filter.Match(iface)
}

// Entries returns the live announcement table. Call it only while the
// receiver is not running, or from a callback.
func (r *Receiver) Entries() []discovery.Entry {
	return r.monitor.Entries()
}

// Start runs the receiver until Stop is called.
func (r *Receiver) Start() error {
	return r.StartFor(0)
}

// StartFor runs the receiver until d elapses or Stop is called. A zero
// duration runs until Stop. Memberships, the netlink watcher and the retire
// timer are torn down before it returns; the announcement table is kept.
func (r *Receiver) StartFor(d time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.running {
		r.mu.Unlock()
		return ErrRunning
	}
	r.stopping.Store(false)
	if err := r.setup(); err != nil {
		r.teardown()
		r.mu.Unlock()
		return err
	}
	r.running = true
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	status, err := r.loop.ExecuteFor(d)

	r.mu.Lock()
	r.teardown()
	r.running = false
	close(done)
	r.mu.Unlock()

	logging.Debug("Receiver finished", zap.Stringer("status", status))
	if err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	return nil
}

func (r *Receiver) setup() error {
	if err := r.adapters.Update(); err != nil {
		logging.Warn("Failed to enumerate network adapters", zap.Error(err))
	}
	if err := r.server.Start(r.group, r.port, r.onData); err != nil {
		return fmt.Errorf("start multicast server: %w", err)
	}
	if err := r.timer.Set(RetirePeriod, true, r.onRetire); err != nil {
		return fmt.Errorf("arm retire timer: %w", err)
	}
	if err := r.watcher.Start(r.onInterfaceEvent); err != nil {
		// membership then only follows Start and the initial adapter list
		logging.Warn("Interface change watcher unavailable", zap.Error(err))
	}
	r.server.AddAllInterfaces()

	logging.Info("Receiver started",
		zap.String("group", r.group),
		zap.Int("port", r.port),
		zap.Int("adapters", len(r.adapters.Array())),
	)
	return nil
}

func (r *Receiver) teardown() {
	r.watcher.Stop()
	r.server.Stop()
	if err := r.timer.Cancel(); err != nil {
		logging.Warn("Failed to cancel retire timer", zap.Error(err))
	}
}

// Stop makes Start return. It may be called from any goroutine, including
// from a callback. Stopping a receiver that is not running only tears down
// what a failed Start may have left behind.
func (r *Receiver) Stop() {
	r.stopping.Store(true)
	r.loop.Stop()

	// Start holds mu during setup and teardown, which may run callbacks
	if r.mu.TryLock() {
		if !r.running {
			r.teardown()
		}
		r.mu.Unlock()
	}
}

// Close stops the receiver, waits for a running Start to return and
// releases the loop and timer. Unlike Stop it must not be called from a
// callback.
func (r *Receiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	running, done := r.running, r.done
	r.mu.Unlock()

	r.Stop()
	if running {
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.timer.Close(); err != nil {
		return err
	}
	return r.loop.Close()
}

func (r *Receiver) onData(s *multicast.Server) error {
	for !r.stopping.Load() {
		n, name, index, err := r.receive(s)
		if err != nil {
			if errors.Is(err, multicast.ErrNotStarted) {
				return eventloop.ErrRemove
			}
			logging.Warn("Failed to receive announcement", zap.Error(err))
			return nil
		}
		if n == 0 {
			return nil
		}
		if name == "" {
			name = r.interfaceName(index)
		}

		metrics.DatagramsTotal.Inc()
		r.monitor.ProcessReceivedAnnouncement(name, string(r.buf[:n]))
		metrics.LiveEntries.Set(float64(r.monitor.Len()))
	}
	return nil
}

// receive reads one datagram. name is empty when the receiving interface is
// not in the adapter list; index still identifies it then.
func (r *Receiver) receive(s *multicast.Server) (n int, name string, index int, err error) {
	n, a, _, err := s.ReceiveTelegramAdapter(r.buf)
	if errors.Is(err, multicast.ErrNoMatchingInterface) {
		return n, "", a.Index, nil
	}
	return n, a.Name, a.Index, err
}

// interfaceName resolves index against the adapter list, refreshing it once
// for interfaces that appeared since the last update.
func (r *Receiver) interfaceName(index int) string {
	if a, err := r.adapters.ByIndex(index); err == nil {
		return a.Name
	}
	if err := r.adapters.Update(); err == nil {
		if a, err := r.adapters.ByIndex(index); err == nil {
			return a.Name
		}
	}
	return fmt.Sprintf("Undef%d", index)
}

func (r *Receiver) onRetire(fired bool) {
	r.monitor.CheckForExpiredTimerCb(fired)
	if fired {
		metrics.LiveEntries.Set(float64(r.monitor.Len()))
	}
}

func (r *Receiver) onInterfaceEvent(ev netlink.Event) {
	metrics.InterfaceEventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	switch ev.Kind {
	case netlink.Added:
		if err := r.adapters.Update(); err != nil {
			logging.Warn("Failed to refresh network adapters", zap.Error(err))
			return
		}
		if _, err := r.adapters.ByIndex(ev.Index); err != nil {
			// not multicast capable, or already gone again
			return
		}
		if err := r.server.AddInterface(ev.Address); err != nil {
			logging.Debug("Join on new address failed", zap.Stringer("address", ev.Address), zap.Error(err))
		}
	case netlink.Removed:
		if err := r.server.DropInterface(ev.Address); err != nil {
			logging.Debug("Leave on removed address failed", zap.Stringer("address", ev.Address), zap.Error(err))
		}
	case netlink.Reset:
		if err := r.adapters.Update(); err != nil {
			logging.Warn("Failed to refresh network adapters", zap.Error(err))
		}
		r.server.DropAllInterfaces()
		r.server.AddAllInterfaces()
	}
}

func (r *Receiver) onAnnounce(path discovery.Path, payload string) {
	if !r.replaying.Load() {
		metrics.AnnouncementsTotal.WithLabelValues(path.ReceivingInterface).Inc()
	}
	if r.announceCb != nil && r.accepts(path.ReceivingInterface) {
		r.announceCb(path, payload)
	}
}

func (r *Receiver) onExpire(path discovery.Path) {
	metrics.ExpirationsTotal.WithLabelValues(path.ReceivingInterface).Inc()
	if r.expireCb != nil && r.accepts(path.ReceivingInterface) {
		r.expireCb(path)
	}
}

func (r *Receiver) onError(code discovery.ErrorCode, message, payload string) {
	metrics.ErrorsTotal.WithLabelValues(code.Kind().String()).Inc()
	if r.malformed.Allow() {
		logging.Warn("Dropped announcement",
			zap.Stringer("code", code.Kind()),
			zap.String("reason", message),
			zap.Int("size", len(payload)),
		)
	}
	if r.errorCb != nil {
		r.errorCb(code, message, payload)
	}
}

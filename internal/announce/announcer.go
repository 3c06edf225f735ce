package announce

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/eventloop"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/protocol"
)

// DefaultExpiration is the validity announced when Config.Expiration is 0
const DefaultExpiration = 15

// ErrRunning is returned by Start while the announcer runs
var ErrRunning = errors.New("announcer already running")

// Config describes the synthetic device
type Config struct {
	UUID       string // random when empty
	Name       string
	Type       string
	FamilyType string
	Firmware   string

	// Interfaces limits sending to adapters matching these name patterns;
	// empty sends on all
	Interfaces []string

	Expiration int           // seconds
	Period     time.Duration // defaults to a third of Expiration
	TTL        int
	HTTPPort   int // announced http service, 0 for none
}

func (c *Config) applyDefaults() {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	if c.Name == "" {
		c.Name = "devscan-" + c.UUID[:8]
	}
	if c.Type == "" {
		c.Type = "devscan"
	}
	if c.FamilyType == "" {
		c.FamilyType = "devscan"
	}
	if c.Expiration <= 0 {
		c.Expiration = DefaultExpiration
	}
	if c.Period <= 0 {
		c.Period = time.Duration(c.Expiration) * time.Second / 3
	}
	if c.TTL <= 0 {
		c.TTL = multicast.DefaultTTL
	}
}

// Announcer multicasts an announcement for a synthetic device on a timer
type Announcer struct {
	config   Config
	loop     *eventloop.Loop
	adapters *netadapter.List
	server   *multicast.Server
	timer    *eventloop.Timer
	gateway  func() string

	interfaces netadapter.NameFilter

	group string
	port  int

	sent atomic.Int64
	buf  []byte

	mu      sync.Mutex
	running bool
}

// New creates an announcer for the announce group
func New(cfg Config) (*Announcer, error) {
	return NewWithGroup(cfg, protocol.AnnounceGroup, protocol.AnnouncePort)
}

// NewWithGroup creates an announcer for an arbitrary group and port
func NewWithGroup(cfg Config, group string, port int) (*Announcer, error) {
	return newAnnouncer(cfg, netadapter.NewList(), group, port)
}

func newAnnouncer(cfg Config, adapters *netadapter.List, group string, port int) (*Announcer, error) {
	cfg.applyDefaults()

	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("create event loop: %w", err)
	}
	timer, err := eventloop.NewTimer(loop)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("create announce timer: %w", err)
	}

	return &Announcer{
		config:   cfg,
		loop:     loop,
		adapters: adapters,
		server:   multicast.NewServer(adapters, loop),
		timer:    timer,
		gateway:  defaultGateway,
		group:    group,

		interfaces: netadapter.NewNameFilter(cfg.Interfaces),
		port:     port,
		buf:      make([]byte, multicast.MaxDatagramSize),
	}, nil
}

func defaultGateway() string {
	gw := netadapter.IPv4DefaultGateway()
	if !gw.IsValid() {
		return ""
	}
	return gw.String()
}

// UUID returns the announced device UUID
func (a *Announcer) UUID() string {
	return a.config.UUID
}

// Sent returns the number of datagrams sent so far
func (a *Announcer) Sent() int64 {
	return a.sent.Load()
}

// Payload builds the announcement sent over adapter
func (a *Announcer) Payload(adapter netadapter.Adapter) ([]byte, error) {
	iface := &protocol.InterfaceSettings{
		Name:                adapter.Name,
		Type:                "ethernet",
		ConfigurationMethod: protocol.ConfigMethodDHCP,
	}
	for _, v4 := range adapter.IPv4 {
		addr := protocol.IPv4Address{Address: v4.Address.String()}
		if v4.Netmask.IsValid() {
			addr.Netmask = v4.Netmask.String()
		}
		iface.IPv4 = append(iface.IPv4, addr)
	}
	for _, v6 := range adapter.IPv6 {
		iface.IPv6 = append(iface.IPv6, protocol.IPv6Address{
			Address: v6.Address.String(),
			Prefix:  v6.Prefix,
		})
	}

	ann := &protocol.Announcement{
		APIVersion: "1.0",
		Device: protocol.Device{
			UUID:            a.config.UUID,
			Name:            a.config.Name,
			Type:            a.config.Type,
			FamilyType:      a.config.FamilyType,
			FirmwareVersion: a.config.Firmware,
		},
		NetSettings: protocol.NetSettings{Interface: iface},
		Expiration:  a.config.Expiration,
	}
	if gw := a.gateway(); gw != "" {
		ann.NetSettings.DefaultGateway = &protocol.Gateway{IPv4Address: gw}
	}
	if a.config.HTTPPort > 0 {
		ann.Services = []protocol.Service{{Type: "http", Port: a.config.HTTPPort}}
	}
	return protocol.BuildAnnouncement(ann)
}

// Start announces until Stop is called
func (a *Announcer) Start() error {
	return a.StartFor(0)
}

// StartFor announces immediately and then every Period until d elapses or
// Stop is called. A zero duration runs until Stop.
func (a *Announcer) StartFor(d time.Duration) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunning
	}
	if err := a.server.Start(a.group, a.port, a.onData); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("start multicast server: %w", err)
	}
	if err := a.timer.Set(a.config.Period, true, a.onTick); err != nil {
		a.server.Stop()
		a.mu.Unlock()
		return fmt.Errorf("arm announce timer: %w", err)
	}
	a.running = true
	a.mu.Unlock()

	logging.Info("Announcer started",
		zap.String("uuid", a.config.UUID),
		zap.String("group", a.group),
		zap.Int("port", a.port),
		zap.Duration("period", a.config.Period),
	)
	a.announce()

	_, err := a.loop.ExecuteFor(d)

	a.mu.Lock()
	if cerr := a.timer.Cancel(); cerr != nil {
		logging.Warn("Failed to cancel announce timer", zap.Error(cerr))
	}
	a.server.Stop()
	a.running = false
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	return nil
}

// Stop makes Start return. It may be called from any goroutine.
func (a *Announcer) Stop() {
	a.loop.Stop()
}

// Close releases the loop and timer
func (a *Announcer) Close() error {
	a.Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.timer.Close(); err != nil {
		return err
	}
	return a.loop.Close()
}

func (a *Announcer) onTick(fired bool) {
	if fired {
		a.announce()
	}
}

// announce sends one announcement over every selected adapter
func (a *Announcer) announce() {
	if err := a.adapters.Update(); err != nil {
		logging.Warn("Failed to enumerate network adapters", zap.Error(err))
	}
	for _, adapter := range a.selected() {
		payload, err := a.Payload(adapter)
		if err != nil {
			logging.Error("Failed to build announcement", zap.String("interface", adapter.Name), zap.Error(err))
			continue
		}
		if err := a.server.SendOverAdapter(adapter, payload, a.config.TTL); err != nil {
			logging.Debug("Announcement not sent",
				zap.String("interface", adapter.Name),
				zap.Error(err),
			)
			continue
		}
		a.sent.Add(1)
	}
}

// selected returns the adapters with an IPv4 address that pass the
// interface list
func (a *Announcer) selected() []netadapter.Adapter {
	var out []netadapter.Adapter
	for _, adapter := range a.adapters.Array() {
		if _, ok := adapter.FirstIPv4(); !ok {
			continue
		}
		if !a.interfaces.Match(adapter.Name) {
			continue
		}
		out = append(out, adapter)
	}
	return out
}

// onData discards anything arriving on the port; the announcer joins no
// group but shares the port with local receivers.
func (a *Announcer) onData(s *multicast.Server) error {
	for {
		n, _, _, err := s.ReceiveTelegram(a.buf)
		if err != nil {
			if errors.Is(err, multicast.ErrNotStarted) {
				return eventloop.ErrRemove
			}
			return nil
		}
		if n == 0 {
			return nil
		}
	}
}

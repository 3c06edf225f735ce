package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/devscan/internal/config"
	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/receiver"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Shutdown waits for HTTP handlers
const shutdownTimeout = 10 * time.Second

// Config holds the bridge configuration
type Config struct {
	Listen    string // HTTP listen address, e.g. ":8080"
	Advertise bool   // Publish the bridge over mDNS
	Instance  string // mDNS instance name; the host name when empty

	// ConfigPath is the registry file to watch for filter and nickname
	// changes. Empty disables watching and remembering.
	ConfigPath string

	// Remember records each device's last interface and address in the
	// registry file
	Remember bool
}

// Server runs a receiver and serves its view of the network over HTTP
type Server struct {
	config   *Config
	receiver *receiver.Receiver
	table    *DeviceTable
	hub      *Hub

	regMu    sync.RWMutex
	registry *config.Registry

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	advertiser *advertiser
}

// New creates a bridge server. registry supplies nicknames and the
// interface filter; nil means an empty registry.
func New(cfg *Config, registry *config.Registry) (*Server, error) {
	r, err := receiver.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create receiver: %w", err)
	}
	return newServer(cfg, registry, r), nil
}

func newServer(cfg *Config, registry *config.Registry, r *receiver.Receiver) *Server {
	if registry == nil {
		registry = config.NewRegistry()
	}
	s := &Server{
		config:   cfg,
		receiver: r,
		registry: registry,
	}
	s.table = NewDeviceTable(s.nickname)
	s.hub = NewHub(s.table.Snapshot)

	r.SetInterfaceFilter(registry.Preferences.InterfaceFilter)
	r.SetAnnounceCb(s.onAnnounce)
	r.SetExpireCb(s.onExpire)
	r.SetErrorCb(s.onError)
	return s
}

// Start runs the bridge until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves HTTP and receives announcements until ctx is done or the
// receiver fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	logging.Info("Bridge listening", zap.String("addr", listener.Addr().String()))

	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	if s.config.Advertise {
		a, err := advertise(s.config.Instance, listenPort(listener.Addr()), s.filter())
		if err != nil {
			// the HTTP API is still usable by address
			logging.Warn("mDNS advertisement unavailable", zap.Error(err))
		} else {
			s.mu.Lock()
			s.advertiser = a
			s.mu.Unlock()
		}
	}

	if s.config.ConfigPath != "" {
		if err := config.Watch(ctx, s.config.ConfigPath, s.applyRegistry); err != nil {
			logging.Warn("Config watching disabled", zap.Error(err))
		}
	}

	recvErr := make(chan error, 1)
	go func() {
		recvErr <- s.receiver.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping bridge...")
	case err := <-recvErr:
		runErr = fmt.Errorf("receiver stopped: %w", err)
		recvErr = nil
	case err := <-httpErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	s.receiver.Stop()
	if recvErr != nil {
		if err := <-recvErr; err != nil {
			logging.Warn("Receiver returned an error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Addr returns the listen address once Run has started, or nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops advertising, disconnects websocket clients and closes the
// HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	s.mu.Lock()
	a := s.advertiser
	s.advertiser = nil
	httpServer := s.httpServer
	s.mu.Unlock()

	a.shutdown()
	s.hub.Close()

	var err error
	if httpServer != nil {
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, some connections may not have closed cleanly", zap.Error(err))
		}
	}
	if cerr := s.receiver.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Table exposes the live device table
func (s *Server) Table() *DeviceTable {
	return s.table
}

func (s *Server) nickname(uuid string) string {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return s.registry.Nickname(uuid)
}

func (s *Server) filter() []string {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return s.registry.Preferences.InterfaceFilter
}

// applyRegistry swaps in a reloaded registry
func (s *Server) applyRegistry(r *config.Registry) {
	s.regMu.Lock()
	s.registry = r
	s.regMu.Unlock()

	s.receiver.SetInterfaceFilter(r.Preferences.InterfaceFilter)
	if r.Preferences.LogLevel != "" {
		if err := logging.SetLevel(r.Preferences.LogLevel); err != nil {
			logging.Warn("Ignoring log level from config", zap.Error(err))
		}
	}

	s.mu.Lock()
	a := s.advertiser
	s.mu.Unlock()
	a.updateFilter(r.Preferences.InterfaceFilter)
}

// remember records where d was seen and saves the registry when that changed
func (s *Server) remember(d *discovery.Device, seen time.Time) {
	if !s.config.Remember || s.config.ConfigPath == "" {
		return
	}

	s.regMu.Lock()
	prev := s.registry.GetDevice(d.Path.UUID)
	changed := prev == nil ||
		prev.LastInterface != d.Path.ReceivingInterface ||
		(d.IP != "" && prev.LastAddress != d.IP)
	s.registry.UpdateDeviceLastSeen(d.Path.UUID, d.Path.ReceivingInterface, d.IP, seen)
	var err error
	if changed {
		err = s.registry.SaveTo(s.config.ConfigPath)
	}
	s.regMu.Unlock()

	if err != nil {
		logging.Warn("Failed to save device registry", zap.String("uuid", d.Path.UUID), zap.Error(err))
	}
}

func (s *Server) onAnnounce(path discovery.Path, payload string) {
	now := time.Now()
	d, err := discovery.NewDevice(path, payload, now)
	if err != nil {
		// the monitor already validated the payload
		logging.Warn("Failed to decode announcement", zap.String("path", path.Key()), zap.Error(err))
		return
	}

	view := s.table.Upsert(d, now)
	s.hub.Broadcast(Event{Type: EventAnnounce, Time: now, Device: &view})
	s.remember(d, now)
}

func (s *Server) onExpire(path discovery.Path) {
	view, ok := s.table.Remove(path)
	if !ok {
		return
	}
	s.hub.Broadcast(Event{Type: EventExpire, Time: time.Now(), Device: &view})
}

func (s *Server) onError(code discovery.ErrorCode, message, payload string) {
	s.hub.Broadcast(Event{
		Type: EventError,
		Time: time.Now(),
		Error: &ErrorView{
			Code:    code.String(),
			Message: message,
			Payload: payload,
		},
	})
}

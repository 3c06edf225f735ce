package deviceconfig

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/eventloop"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/metrics"
	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/netadapter"
	"github.com/muurk/devscan/internal/protocol"
)

const (
	// DefaultTimeout is how long ExecuteRequest waits for a response
	DefaultTimeout = 3 * time.Second

	// pollSlice bounds one run of the event loop while waiting
	pollSlice = 100 * time.Millisecond
)

// Client sends configure requests over the configure group and waits for
// the matching response. Requests are serialized; a Client may be shared
// between goroutines.
type Client struct {
	// Timeout is the response deadline (default: 3s)
	Timeout time.Duration

	loop     *eventloop.Loop
	adapters *netadapter.List
	server   *multicast.Server

	mu       sync.Mutex
	pending  string
	response string
	buf      []byte
}

// NewClient creates a client listening on the configure group.
func NewClient() (*Client, error) {
	return NewClientWithGroup(protocol.ConfigureGroup, protocol.ConfigurePort)
}

// NewClientWithGroup creates a client for an arbitrary group and port.
func NewClientWithGroup(group string, port int) (*Client, error) {
	return newClient(netadapter.NewList(), group, port)
}

func newClient(adapters *netadapter.List, group string, port int) (*Client, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("create event loop: %w", err)
	}

	c := &Client{
		Timeout:  DefaultTimeout,
		loop:     loop,
		adapters: adapters,
		server:   multicast.NewServer(adapters, loop),
		buf:      make([]byte, multicast.MaxDatagramSize),
	}
	if err := c.server.Start(group, port, c.onData); err != nil {
		loop.Close()
		return nil, NewNetworkError("failed to open configure sockets", err)
	}
	c.server.AddAllInterfaces()
	return c, nil
}

// Close leaves the group and releases the sockets and loop.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server.Stop()
	return c.loop.Close()
}

// ExecuteRequest sends msg, which must carry an id, and waits up to Timeout
// for a response with the same id. With an empty interfaceIP the request
// goes out on every adapter, otherwise only on the one owning that address.
// A timeout returns "" and a nil error; ctx cancellation returns ctx.Err().
func (c *Client) ExecuteRequest(ctx context.Context, interfaceIP string, ttl int, msg []byte) (string, error) {
	tree, err := protocol.Parse(msg)
	if err != nil {
		return "", NewValidationError("request is not valid JSON")
	}
	id, ok := tree.String(protocol.TagID)
	if !ok || id == "" {
		return "", NewValidationError("request has no id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.adapters.Update(); err != nil {
		logging.Warn("Failed to refresh network adapters", zap.Error(err))
	}
	// adapters that appeared since the last request
	c.server.AddAllInterfaces()

	c.pending = id
	c.response = ""
	defer func() { c.pending = "" }()

	if err := c.send(interfaceIP, ttl, msg); err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.Timeout)
	for c.response == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			logging.Debug("Configure request timed out", zap.String("id", id))
			return "", nil
		}
		if _, err := c.loop.ExecuteFor(min(pollSlice, remaining)); err != nil {
			return "", NewNetworkError("event loop failed", err)
		}
	}
	return c.response, nil
}

func (c *Client) send(interfaceIP string, ttl int, msg []byte) error {
	if interfaceIP == "" {
		if err := c.server.Send(msg, ttl); err != nil {
			return NewNetworkError("failed to send request", err)
		}
		return nil
	}

	local, err := netip.ParseAddr(interfaceIP)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid interface address: %q", interfaceIP))
	}
	if err := c.server.SendOverInterfaceAddress(local, msg, ttl); err != nil {
		return NewNetworkError("failed to send request over "+interfaceIP, err)
	}
	return nil
}

func (c *Client) onData(s *multicast.Server) error {
	for {
		n, _, _, err := s.ReceiveTelegram(c.buf)
		if err != nil {
			if errors.Is(err, multicast.ErrNotStarted) {
				return eventloop.ErrRemove
			}
			logging.Warn("Failed to receive configure response", zap.Error(err))
			return nil
		}
		if n == 0 {
			return nil
		}
		if c.match(c.buf[:n]) {
			c.loop.Stop()
			return nil
		}
	}
}

// match records text as the response if it answers the pending request.
// Our own request comes back on hosts with loopback enabled and is ignored
// because it carries neither result nor error.
func (c *Client) match(text []byte) bool {
	if c.pending == "" || c.response != "" {
		return false
	}
	resp, err := protocol.ParseResponse(text)
	if err != nil {
		return false
	}
	if resp.ID != c.pending {
		logging.Debug("Ignoring response for another request", zap.String("id", resp.ID))
		return false
	}
	c.response = string(text)
	return true
}

// Configure sends req and decodes the answer. A device error is returned
// as a ConfigureError of type ErrTypeRPC together with the result.
func (c *Client) Configure(ctx context.Context, interfaceIP string, req *Request) (*Result, error) {
	start := time.Now()
	raw, err := c.ExecuteRequest(ctx, interfaceIP, req.TTL, req.Payload)
	if err != nil {
		metrics.ConfigureRequestsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}
	if raw == "" {
		metrics.ConfigureRequestsTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
		return nil, NewTimeoutError(req.UUID)
	}

	resp, err := protocol.ParseResponse([]byte(raw))
	if err != nil {
		metrics.ConfigureRequestsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, NewParseError("failed to decode response", err)
	}
	result := &Result{
		Request:  req,
		Response: resp,
		Raw:      raw,
		Elapsed:  time.Since(start),
	}

	logging.Info("Configure response",
		zap.String("uuid", req.UUID),
		zap.String("id", req.ID),
		zap.Bool("success", result.Success()),
		zap.Duration("elapsed", result.Elapsed),
	)

	if resp.Error != nil {
		metrics.ConfigureRequestsTotal.WithLabelValues(metrics.OutcomeRPC).Inc()
		return result, NewRPCError(req.UUID, resp.Error)
	}
	metrics.ConfigureRequestsTotal.WithLabelValues(metrics.OutcomeResult).Inc()
	return result, nil
}

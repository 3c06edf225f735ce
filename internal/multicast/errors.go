package multicast

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidAdapter is returned when sending via an interface that does
	// not exist or has no IPv4 address.
	ErrInvalidAdapter = errors.New("invalid adapter")

	// ErrNoMatchingInterface is returned when a datagram arrived on an
	// interface that is no longer in the adapter list.
	ErrNoMatchingInterface = errors.New("no matching interface")

	// ErrNotStarted is returned by operations that need the sockets.
	ErrNotStarted = errors.New("multicast server not started")

	// ErrInvalidGroup is returned by Start for anything but an IPv4
	// multicast address.
	ErrInvalidGroup = errors.New("not an IPv4 multicast address")
)

// ErrorType represents the category of socket error that occurred
type ErrorType int

const (
	// ErrTypeSocket indicates socket creation or option failure
	ErrTypeSocket ErrorType = iota
	// ErrTypeBind indicates the receive port could not be bound
	ErrTypeBind
	// ErrTypeMembership indicates a group join or leave failed
	ErrTypeMembership
	// ErrTypeSend indicates a datagram could not be sent
	ErrTypeSend
	// ErrTypeReceive indicates a datagram could not be received
	ErrTypeReceive
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeSocket:
		return "Socket Error"
	case ErrTypeBind:
		return "Bind Error"
	case ErrTypeMembership:
		return "Membership Error"
	case ErrTypeSend:
		return "Send Error"
	case ErrTypeReceive:
		return "Receive Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// SocketError represents a failed socket operation
type SocketError struct {
	Type      ErrorType // Category of error
	Op        string    // Operation, e.g. "join", "sendto"
	Interface string    // Local interface address or name (if applicable)
	Err       error     // Underlying error
	Retryable bool      // Whether retrying later may succeed
}

// Error implements the error interface
func (e *SocketError) Error() string {
	if e.Interface != "" {
		return fmt.Sprintf("%s: %s on %s: %v", e.Type, e.Op, e.Interface, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SocketError) Unwrap() error {
	return e.Err
}

// ClassifySocketError wraps err in a SocketError. Errors caused by an
// interface that went away or is not configured yet are marked retryable.
func ClassifySocketError(t ErrorType, op, iface string, err error) *SocketError {
	if err == nil {
		return nil
	}
	se := &SocketError{Type: t, Op: op, Interface: iface, Err: err}
	switch {
	case errors.Is(err, unix.ENODEV),
		errors.Is(err, unix.EADDRNOTAVAIL),
		errors.Is(err, unix.ENETUNREACH),
		errors.Is(err, unix.ENETDOWN),
		errors.Is(err, unix.EAGAIN),
		errors.Is(err, unix.ENOBUFS):
		se.Retryable = true
	}
	return se
}

// IsMembershipError checks if an error is a group membership error
func IsMembershipError(err error) bool {
	var se *SocketError
	return errors.As(err, &se) && se.Type == ErrTypeMembership
}

// IsRetryable checks if an error may go away when retried
func IsRetryable(err error) bool {
	var se *SocketError
	return errors.As(err, &se) && se.Retryable
}

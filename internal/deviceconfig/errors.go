package deviceconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/protocol"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates the request could not be sent
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates no matching response arrived in time
	ErrTypeTimeout
	// ErrTypeRPC indicates the device answered with a JSON-RPC error
	ErrTypeRPC
	// ErrTypeParse indicates a response that could not be decoded
	ErrTypeParse
	// ErrTypeValidation indicates settings that were refused before sending
	ErrTypeValidation
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeRPC:
		return "Device Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ConfigureError is returned by the configure client and the request
// builders.
type ConfigureError struct {
	Type      ErrorType
	Message   string
	Code      int    // JSON-RPC error code, for ErrTypeRPC
	UUID      string // target device, when known
	Err       error
	Retryable bool
}

// Error implements the error interface
func (e *ConfigureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConfigureError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a send failure. Socket errors keep their
// retryability.
func NewNetworkError(message string, err error) *ConfigureError {
	return &ConfigureError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: err == nil || multicast.IsRetryable(err),
	}
}

// NewTimeoutError reports a request that went unanswered.
func NewTimeoutError(uuid string) *ConfigureError {
	return &ConfigureError{
		Type:      ErrTypeTimeout,
		Message:   "no response from device",
		UUID:      uuid,
		Retryable: true,
	}
}

// NewRPCError wraps the error member of a response.
func NewRPCError(uuid string, rpcErr *protocol.RPCError) *ConfigureError {
	return &ConfigureError{
		Type:    ErrTypeRPC,
		Message: rpcErr.Message,
		Code:    rpcErr.Code,
		UUID:    uuid,
		Err:     rpcErr,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *ConfigureError {
	return &ConfigureError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *ConfigureError {
	return &ConfigureError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func asConfigureError(err error) (*ConfigureError, bool) {
	var cfgErr *ConfigureError
	ok := errors.As(err, &cfgErr)
	return cfgErr, ok
}

func isType(err error, t ErrorType) bool {
	cfgErr, ok := asConfigureError(err)
	return ok && cfgErr.Type == t
}

// IsTimeoutError checks if a request went unanswered
func IsTimeoutError(err error) bool { return isType(err, ErrTypeTimeout) }

// IsRPCError checks if the device refused the request
func IsRPCError(err error) bool { return isType(err, ErrTypeRPC) }

// IsNetworkError checks if the request could not be sent
func IsNetworkError(err error) bool { return isType(err, ErrTypeNetwork) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrTypeValidation) }

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if cfgErr, ok := asConfigureError(err); ok {
		return cfgErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	cfgErr, ok := asConfigureError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch cfgErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not answer within the response timeout.",
			"Troubleshooting:",
			"  • Check that the uuid matches an announced device (devscan print)",
			"  • Send over the interface the device was announced on (--interface)",
			"  • Raise the TTL if a router sits between you and the device",
			"  • Check that no firewall drops UDP port 31417",
		}, "\n")

	case ErrTypeRPC:
		hint := []string{fmt.Sprintf("The device refused the request (code %d).", cfgErr.Code)}
		switch cfgErr.Code {
		case protocol.CodeInvalidParams:
			hint = append(hint, "Troubleshooting:",
				"  • Check the interface name against the announcement",
				"  • Check address and netmask for the manual method")
		case protocol.CodeMethodNotFound:
			hint = append(hint, "The device firmware does not support remote configuration.")
		}
		return strings.Join(hint, "\n")

	case ErrTypeNetwork:
		return strings.Join([]string{
			"The request could not be sent.",
			"Troubleshooting:",
			"  • Check that the sending interface has an IPv4 address (devscan adapters)",
			"  • Check that the interface is up and multicast capable",
		}, "\n")

	case ErrTypeParse:
		return "The device sent a response that could not be decoded."

	case ErrTypeValidation:
		return "The settings are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	cfgErr, ok := asConfigureError(err)
	if !ok {
		return err.Error()
	}

	switch cfgErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeRPC:
		return fmt.Sprintf("Device refused request: %s", cfgErr.Message)
	case ErrTypeNetwork:
		return "Network error - check interfaces"
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return cfgErr.Message
	}
}

package deviceconfig

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/muurk/devscan/internal/multicast"
	"github.com/muurk/devscan/internal/protocol"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeNetwork, "Network Error"},
		{ErrTypeTimeout, "Timeout"},
		{ErrTypeRPC, "Device Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrTypeValidation, "Validation Error"},
		{ErrTypeUnknown, "Unknown Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", int(tt.errType), got, tt.want)
		}
	}
}

func TestConfigureErrorWrapping(t *testing.T) {
	rpcErr := &protocol.RPCError{Code: protocol.CodeInvalidParams, Message: "bad interface"}
	err := fmt.Errorf("configure: %w", NewRPCError("UUID-1", rpcErr))

	if !IsRPCError(err) {
		t.Error("IsRPCError() should see through wrapping")
	}
	var got *protocol.RPCError
	if !errors.As(err, &got) || got.Code != protocol.CodeInvalidParams {
		t.Errorf("errors.As(RPCError) = %v", got)
	}
	if IsRetryable(err) {
		t.Error("device refusals are not retryable")
	}
	if !strings.Contains(err.Error(), "bad interface") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNetworkErrorRetryable(t *testing.T) {
	sockErr := &multicast.SocketError{Type: multicast.ErrTypeSend, Op: "sendto", Err: errors.New("x"), Retryable: true}
	if !IsRetryable(NewNetworkError("send failed", sockErr)) {
		t.Error("retryable socket error should stay retryable")
	}
	if IsRetryable(NewNetworkError("send failed", errors.New("plain"))) {
		t.Error("unclassified error should not be retryable")
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", NewTimeoutError("U"), "did not answer"},
		{"invalid params", NewRPCError("U", &protocol.RPCError{Code: protocol.CodeInvalidParams}), "interface name"},
		{"method not found", NewRPCError("U", &protocol.RPCError{Code: protocol.CodeMethodNotFound}), "does not support"},
		{"network", NewNetworkError("x", nil), "could not be sent"},
		{"validation", NewValidationError("x"), "invalid"},
		{"plain", errors.New("x"), "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetTroubleshootingHint(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("GetTroubleshootingHint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	if got := GetShortErrorMessage(NewTimeoutError("U")); got != "Device not responding (timeout)" {
		t.Errorf("GetShortErrorMessage(timeout) = %q", got)
	}
	if got := GetShortErrorMessage(NewValidationError("bad mask")); got != "bad mask" {
		t.Errorf("GetShortErrorMessage(validation) = %q", got)
	}
	if got := GetShortErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetShortErrorMessage(plain) = %q", got)
	}
}

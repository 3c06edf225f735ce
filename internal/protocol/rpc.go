package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// ErrNotResponse is returned by ParseResponse for telegrams that carry
// neither a result nor an error, such as requests.
var ErrNotResponse = errors.New("telegram is not a JSON-RPC response")

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id,omitempty"`
}

// NewRequest creates a request; an empty id makes it a notification.
func NewRequest(method string, params any, id string) *Request {
	return &Request{
		JSONRPC: Version2,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// Marshal encodes the request without a trailing newline
func (r *Request) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", r.Method, err)
	}
	return data, nil
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is
// set.
type Response struct {
	ID     string
	Result json.RawMessage
	Error  *RPCError
}

type responseWire struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// ParseResponse decodes a response telegram. Numeric ids are returned in
// their decimal text form so they compare equal to string ids.
func ParseResponse(text []byte) (*Response, error) {
	var wire responseWire
	if err := json.Unmarshal(text, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if wire.Result == nil && wire.Error == nil {
		return nil, ErrNotResponse
	}

	resp := &Response{
		ID:     idString(wire.ID),
		Result: wire.Result,
		Error:  wire.Error,
	}
	if resp.Error != nil {
		resp.Result = nil
	}
	return resp, nil
}

func idString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// GenerateID returns a correlation id of the form "<unix seconds>:<0-999>".
func GenerateID() string {
	return strconv.FormatInt(time.Now().Unix(), 10) + ":" + strconv.Itoa(rand.IntN(1000))
}

// ConfigureParams are the params of a configure request
type ConfigureParams struct {
	NetSettings ConfigureNetSettings `json:"netSettings"`
	Device      DeviceRef            `json:"device"`
	TTL         int                  `json:"ttl"`
}

// DeviceRef addresses a device by uuid
type DeviceRef struct {
	UUID string `json:"uuid"`
}

// BuildConfigureRequest encodes a configure request for the device with the
// given uuid. ttl is echoed in params so the device answers with the same
// hop limit.
func BuildConfigureRequest(id, uuid string, ttl int, settings ConfigureNetSettings) ([]byte, error) {
	if uuid == "" {
		return nil, fmt.Errorf("configure request needs a device uuid")
	}
	params := ConfigureParams{
		NetSettings: settings,
		Device:      DeviceRef{UUID: uuid},
		TTL:         ttl,
	}
	return NewRequest(MethodConfigure, params, id).Marshal()
}

// ConfigureNetSettings is the netSettings member of a configure request.
// Unlike the announced form, ipv4 is a single manual assignment.
type ConfigureNetSettings struct {
	Interface      *ConfigureInterface `json:"interface,omitempty"`
	DefaultGateway *Gateway            `json:"defaultGateway,omitempty"`
}

// ConfigureInterface selects the interface to reconfigure
type ConfigureInterface struct {
	Name                string      `json:"name"`
	ConfigurationMethod string      `json:"configurationMethod,omitempty"`
	IPv4                *ManualIPv4 `json:"ipv4,omitempty"`
}

// ManualIPv4 holds a static address assignment
type ManualIPv4 struct {
	ManualAddress string `json:"manualAddress"`
	ManualNetmask string `json:"manualNetmask"`
}

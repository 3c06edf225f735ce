package protocol

import (
	"errors"
	"regexp"
	"testing"
)

func TestBuildConfigureRequest(t *testing.T) {
	tests := []struct {
		name     string
		settings ConfigureNetSettings
		check    map[string][]string
		absent   [][]string
	}{
		{
			name: "configuration method",
			settings: ConfigureNetSettings{Interface: &ConfigureInterface{
				Name:                "eth0",
				ConfigurationMethod: ConfigMethodDHCP,
			}},
			check: map[string][]string{
				"eth0": {TagParams, TagNetSettings, TagInterface, TagName},
				"dhcp": {TagParams, TagNetSettings, TagInterface, TagConfigurationMethod},
			},
			absent: [][]string{{TagParams, TagNetSettings, TagInterface, TagIPv4}},
		},
		{
			name: "manual address",
			settings: ConfigureNetSettings{Interface: &ConfigureInterface{
				Name: "eth1",
				IPv4: &ManualIPv4{ManualAddress: "10.1.2.3", ManualNetmask: "255.255.0.0"},
			}},
			check: map[string][]string{
				"10.1.2.3":    {TagParams, TagNetSettings, TagInterface, TagIPv4, TagManualAddress},
				"255.255.0.0": {TagParams, TagNetSettings, TagInterface, TagIPv4, TagManualNetmask},
			},
			absent: [][]string{{TagParams, TagNetSettings, TagInterface, TagConfigurationMethod}},
		},
		{
			name:     "default gateway",
			settings: ConfigureNetSettings{DefaultGateway: &Gateway{IPv4Address: "10.0.0.1"}},
			check: map[string][]string{
				"10.0.0.1": {TagParams, TagNetSettings, TagDefaultGateway, TagIPv4Address},
			},
			absent: [][]string{{TagParams, TagNetSettings, TagInterface}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := BuildConfigureRequest("17:4", "0009E5001C49", 3, tt.settings)
			if err != nil {
				t.Fatalf("BuildConfigureRequest() error = %v", err)
			}
			tree, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if got, _ := tree.String(TagMethod); got != MethodConfigure {
				t.Errorf("method = %q, want %q", got, MethodConfigure)
			}
			if got, _ := tree.String(TagID); got != "17:4" {
				t.Errorf("id = %q, want 17:4", got)
			}
			if got, _ := tree.String(TagParams, TagDevice, TagUUID); got != "0009E5001C49" {
				t.Errorf("uuid = %q", got)
			}
			if got, _ := tree.Int(TagParams, TagTTL); got != 3 {
				t.Errorf("ttl = %d, want 3", got)
			}
			for want, path := range tt.check {
				if got, _ := tree.String(path...); got != want {
					t.Errorf("%v = %q, want %q", path, got, want)
				}
			}
			for _, path := range tt.absent {
				if tree.Has(path...) {
					t.Errorf("%v present, want absent", path)
				}
			}
		})
	}
}

func TestBuildConfigureRequestNeedsUUID(t *testing.T) {
	if _, err := BuildConfigureRequest("1:1", "", 1, ConfigureNetSettings{}); err == nil {
		t.Error("BuildConfigureRequest() without uuid succeeded")
	}
}

func TestNewRequestNotification(t *testing.T) {
	data, err := NewRequest("ping", nil, "").Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), `{"jsonrpc":"2.0","method":"ping"}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantID    string
		wantCode  int
		wantRes   string
		wantError error
	}{
		{
			name:    "result",
			text:    `{"jsonrpc":"2.0","result":0,"id":"1414:7"}`,
			wantID:  "1414:7",
			wantRes: "0",
		},
		{
			name:     "error",
			text:     `{"jsonrpc":"2.0","error":{"code":-32602,"message":"invalid params"},"id":"9:9"}`,
			wantID:   "9:9",
			wantCode: CodeInvalidParams,
		},
		{
			name:    "numeric id",
			text:    `{"jsonrpc":"2.0","result":{},"id":42}`,
			wantID:  "42",
			wantRes: "{}",
		},
		{
			name:      "request is not a response",
			text:      `{"jsonrpc":"2.0","method":"configure","id":"1:1"}`,
			wantError: ErrNotResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(tt.text))
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("ParseResponse() error = %v, want %v", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}
			if resp.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", resp.ID, tt.wantID)
			}
			if tt.wantCode != 0 {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("Error = %v, want code %d", resp.Error, tt.wantCode)
				}
				if resp.Result != nil {
					t.Errorf("Result = %s alongside an error", resp.Result)
				}
				return
			}
			if string(resp.Result) != tt.wantRes {
				t.Errorf("Result = %s, want %s", resp.Result, tt.wantRes)
			}
		})
	}
}

func TestParseResponseInvalid(t *testing.T) {
	if _, err := ParseResponse([]byte("garbage")); err == nil {
		t.Error("ParseResponse(garbage) succeeded")
	}
}

func TestGenerateID(t *testing.T) {
	re := regexp.MustCompile(`^\d+:\d{1,3}$`)
	for i := 0; i < 100; i++ {
		if id := GenerateID(); !re.MatchString(id) {
			t.Fatalf("GenerateID() = %q, want <seconds>:<0-999>", id)
		}
	}
}

func TestRPCErrorString(t *testing.T) {
	e := &RPCError{Code: CodeMethodNotFound, Message: "method not found"}
	if got, want := e.Error(), "rpc error -32601: method not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

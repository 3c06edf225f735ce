package ui

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/netadapter"
)

func TestHeaderRender(t *testing.T) {
	h := NewHeader("Configure interface", "devscan configure X eth0 dhcp",
		Param{"Device", "0009E5001C49"},
		Param{"Interface", "eth0"},
	).SetWidth(80)

	out := h.Render()
	for _, want := range []string{"CONFIGURE INTERFACE", "devscan configure X eth0 dhcp", "Device:", "0009E5001C49", "Interface:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() lacks %q", want)
		}
	}
	if strings.Index(out, "Device:") > strings.Index(out, "Interface:") {
		t.Error("params not rendered in order")
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			"success",
			NewSuccessResult("Interface configured", Param{"Address", "10.0.0.5"}),
			[]string{"SUCCESS", "Interface configured", "Address:", "10.0.0.5"},
		},
		{
			"failure",
			NewFailureResult("Configure failed", errors.New("no response"), []string{"check the uuid"}),
			[]string{"FAILED", "Error: no response", "Troubleshooting:", "check the uuid"},
		},
		{
			"warning",
			NewWarningResult("Gateway outside subnet"),
			[]string{"WARNING", "Gateway outside subnet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(90).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() lacks %q", want)
				}
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  yes  \n", true},
		{"y\n", false},
		{"YES\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Apply", []string{"method: dhcp -> manual"}, nil)
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "method: dhcp -> manual") {
			t.Errorf("Confirm(%q) output lacks the change list", tt.input)
		}
	}
}

func TestProgress(t *testing.T) {
	p := NewProgress("Send request", "Wait for response", "Verify")

	p.UpdateStep(1, StepRunning, "")
	if p.Current != 1 || p.Percent != 0 {
		t.Errorf("after running: Current = %d, Percent = %v", p.Current, p.Percent)
	}
	p.UpdateStep(1, StepComplete, "")
	p.UpdateStep(2, StepSkipped, "")
	if want := 2.0 / 3.0; p.Percent != want {
		t.Errorf("Percent = %v, want %v", p.Percent, want)
	}
	p.UpdateStep(7, StepComplete, "")

	out := p.Render()
	for _, want := range []string{"[1/3] Send request", "[3/3] Verify", StepMarkerComplete} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() lacks %q", want)
		}
	}
}

func TestRunner(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:     "Configure interface",
		Command:   "devscan configure",
		StepNames: []string{"Send request"},
		Verbose:   true,
		Output:    &out,
		Troubleshoot: func(error) []string {
			return []string{"is the device on this network?"}
		},
	})
	r.SetRaw("Response", `{"id":"1","result":0}`)

	err := r.Run(context.Background(), func(ctx context.Context, onStep StepCallback) ([]Param, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepFailed, "timeout")
		return nil, errors.New("no response")
	})
	if err == nil || err.Error() != "no response" {
		t.Fatalf("Run() error = %v, want no response", err)
	}

	s := out.String()
	for _, want := range []string{"CONFIGURE INTERFACE", "(timeout)", "Configure interface failed", "is the device on this network?", `"result": 0`} {
		if !strings.Contains(s, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	if got := PrettyJSON(`{"a":1}`); got != "{\n  \"a\": 1\n}" {
		t.Errorf("PrettyJSON(object) = %q", got)
	}
	if got := PrettyJSON("not json"); got != "not json" {
		t.Errorf("PrettyJSON(text) = %q", got)
	}
}

func TestRawBoxMaxLines(t *testing.T) {
	out := NewRawBox("Telegram", "alpha\nbeta\ngamma\ndelta").SetMaxLines(2).SetWidth(80).Render()
	if !strings.Contains(out, "beta") || !strings.Contains(out, "(truncated)") {
		t.Errorf("Render() = %q, want two lines and a truncation note", out)
	}
	if strings.Contains(out, "gamma") {
		t.Errorf("Render() = %q, want lines after the limit dropped", out)
	}
}

func TestRenderDevices(t *testing.T) {
	direct := &discovery.Device{
		Path:     discovery.Path{ReceivingInterface: "eth0", UUID: "0009E5001C49"},
		Name:     "TA02",
		Type:     "MX440A",
		IP:       "10.0.0.5",
		Netmask:  "255.255.255.0",
		Firmware: "4.1",
	}
	routed := &discovery.Device{
		Path: discovery.Path{ReceivingInterface: "eth1", UUID: "0009E50013C3", Router: "0009E5000001"},
		Name: "TB",
	}

	out := RenderDevices([]*discovery.Device{direct, routed}, func(uuid string) string {
		if uuid == "0009E5001C49" {
			return "bench"
		}
		return ""
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("RenderDevices() has %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "bench") || strings.Contains(lines[1], "TA02") {
		t.Errorf("nickname not used: %q", lines[1])
	}
	if !strings.Contains(lines[2], "eth1>0009E5000001") {
		t.Errorf("routed path not shown: %q", lines[2])
	}
	if strings.Index(lines[0], "ADDRESS") != strings.Index(lines[1], "10.0.0.5") {
		t.Error("ADDRESS column not aligned")
	}

	if got := RenderDevices(nil, nil); !strings.Contains(got, "No devices found") {
		t.Errorf("RenderDevices(nil) = %q", got)
	}
}

func TestRenderAdapters(t *testing.T) {
	adapters := []netadapter.Adapter{{
		Name:  "eth0",
		Index: 2,
		MAC:   "00:11:22:33:44:55",
		IPv4: []netadapter.IPv4Address{{
			Address: netip.MustParseAddr("10.0.0.5"),
			Netmask: netip.MustParseAddr("255.255.255.0"),
		}},
	}}

	out := RenderAdapters(adapters, "10.0.0.1")
	for _, want := range []string{"eth0", "00:11:22:33:44:55", "10.0.0.5/24", "Default gateway: 10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderAdapters() lacks %q", want)
		}
	}
	if out := RenderAdapters(nil, ""); !strings.Contains(out, "Default gateway: none") {
		t.Errorf("RenderAdapters(nil) = %q", out)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Unix(1700000100, 0)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-3 * time.Second), "3s"},
		{now.Add(-130 * time.Second), "2m10s"},
		{now.Add(time.Second), "0s"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.t, now); got != tt.want {
			t.Errorf("FormatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

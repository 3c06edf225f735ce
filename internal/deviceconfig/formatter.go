package deviceconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Summary returns a one-line summary of the settings
func (s Settings) Summary() string {
	var parts []string
	if s.HasInterfaceChange() {
		iface := s.Interface
		if s.Method != "" {
			iface += " " + s.Method
		}
		if s.Address != "" {
			iface += " " + s.Address + "/" + s.Netmask
		}
		parts = append(parts, iface)
	}
	if s.Gateway != "" {
		parts = append(parts, "gateway "+s.Gateway)
	}
	if len(parts) == 0 {
		return "(no changes)"
	}
	return strings.Join(parts, ", ")
}

// FormatChanges returns a formatted string showing what will be changed
func (s Settings) FormatChanges() string {
	var b strings.Builder
	b.WriteString("=== Configuration Changes ===\n")

	if s.HasInterfaceChange() {
		b.WriteString(fmt.Sprintf("\nInterface %s:\n", s.Interface))
		if s.Method != "" {
			b.WriteString(fmt.Sprintf("  Method:  %s\n", s.Method))
		}
		if s.Address != "" {
			b.WriteString(fmt.Sprintf("  Address: %s\n", s.Address))
			b.WriteString(fmt.Sprintf("  Netmask: %s\n", s.Netmask))
		}
	}
	if s.Gateway != "" {
		b.WriteString("\nDefault Gateway:\n")
		b.WriteString(fmt.Sprintf("  IPv4: %s\n", s.Gateway))
	}
	if !s.HasInterfaceChange() && s.Gateway == "" {
		b.WriteString("(no changes specified)\n")
	}
	return b.String()
}

// FormatDiff returns the differences between a snapshot and new settings.
// Settings left empty are not reported.
func FormatDiff(before *Snapshot, after Settings) string {
	var b strings.Builder
	b.WriteString("=== Configuration Differences ===\n")

	old := before.Settings
	changed := false
	line := func(label, from, to string) {
		if to == "" || from == to {
			return
		}
		b.WriteString(fmt.Sprintf("  %-8s %s → %s\n", label+":", orNone(from), to))
		changed = true
	}

	line("Method", old.Method, after.Method)
	line("Address", old.Address, after.Address)
	line("Netmask", old.Netmask, after.Netmask)
	line("Gateway", old.Gateway, after.Gateway)

	if !changed {
		b.WriteString("\n(no differences detected)\n")
	}
	return b.String()
}

// FormatRequest pretty-prints the request payload
func (r *Request) FormatRequest() string {
	return indentJSON(r.Payload)
}

// String returns a human-readable summary of the result
func (r *Result) String() string {
	if r.Success() {
		return fmt.Sprintf("✅ %s accepted %s (%s)", r.Request.UUID, r.Request.Settings.Summary(), r.Elapsed.Round(time.Millisecond))
	}
	if r.Response != nil && r.Response.Error != nil {
		return fmt.Sprintf("❌ %s refused %s: %s (code %d)", r.Request.UUID, r.Request.Settings.Summary(),
			r.Response.Error.Message, r.Response.Error.Code)
	}
	return fmt.Sprintf("❌ %s: no response", r.Request.UUID)
}

// FormatDetailed returns the summary followed by the raw response
func (r *Result) FormatDetailed() string {
	return r.String() + "\n\n" + indentJSON([]byte(r.Raw))
}

func indentJSON(data []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}

package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/netadapter"
)

// Column is a table heading with its minimum width
type Column struct {
	Title string
	Width int
}

// DeviceColumns are the columns of RenderDevices and of the watch table
var DeviceColumns = []Column{
	{"UUID", 14},
	{"NAME", 16},
	{"TYPE", 10},
	{"ADDRESS", 15},
	{"NETMASK", 15},
	{"VIA", 8},
	{"FIRMWARE", 10},
}

// DeviceRow returns the cells of d for DeviceColumns. A nickname replaces
// the announced name.
func DeviceRow(d *discovery.Device, nickname string) []string {
	name := d.Name
	if nickname != "" {
		name = nickname
	}
	via := d.Path.ReceivingInterface
	if d.Routed() {
		via += ">" + d.Path.Router
	}
	return []string{d.Path.UUID, name, d.Type, d.IP, d.Netmask, via, d.Firmware}
}

// RenderDevices renders devices as an aligned table. nickname may be nil.
func RenderDevices(devices []*discovery.Device, nickname func(uuid string) string) string {
	if len(devices) == 0 {
		return lipgloss.NewStyle().Foreground(MutedColor).Render("  No devices found")
	}

	rows := make([][]string, len(devices))
	routed := make([]bool, len(devices))
	for i, d := range devices {
		nick := ""
		if nickname != nil {
			nick = nickname(d.Path.UUID)
		}
		rows[i] = DeviceRow(d, nick)
		routed[i] = d.Routed()
	}
	return renderTable(DeviceColumns, rows, func(i int) lipgloss.Style {
		if routed[i] {
			return RoutedStyle
		}
		return TableCellStyle
	})
}

// AdapterColumns are the columns of RenderAdapters
var AdapterColumns = []Column{
	{"INDEX", 5},
	{"NAME", 10},
	{"MAC", 17},
	{"IPV4", 18},
	{"IPV6", 10},
}

// RenderAdapters renders the adapter list and the IPv4 default gateway
func RenderAdapters(adapters []netadapter.Adapter, gateway string) string {
	rows := make([][]string, 0, len(adapters))
	for _, a := range adapters {
		v4 := make([]string, 0, len(a.IPv4))
		for _, addr := range a.IPv4 {
			prefix := -1
			if addr.Netmask.IsValid() {
				prefix = netadapter.PrefixLength(addr.Netmask.AsSlice())
			}
			if prefix >= 0 {
				v4 = append(v4, fmt.Sprintf("%s/%d", addr.Address, prefix))
			} else {
				v4 = append(v4, addr.Address.String())
			}
		}
		v6 := make([]string, 0, len(a.IPv6))
		for _, addr := range a.IPv6 {
			v6 = append(v6, fmt.Sprintf("%s/%d", addr.Address, addr.Prefix))
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Index),
			a.Name,
			a.MAC,
			strings.Join(v4, " "),
			strings.Join(v6, " "),
		})
	}

	table := renderTable(AdapterColumns, rows, nil)
	if gateway == "" {
		gateway = "none"
	}
	return table + "\n\n" + HeaderParamKeyStyle.Render("Default gateway:") + " " + HeaderParamValueStyle.Render(gateway)
}

// renderTable pads every column to its widest cell. style picks the style
// of row i; nil uses TableCellStyle.
func renderTable(columns []Column, rows [][]string, style func(i int) lipgloss.Style) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = max(c.Width, lipgloss.Width(c.Title))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	format := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = padRight(cell, widths[i])
		}
		return "  " + strings.TrimRight(strings.Join(padded, "  "), " ")
	}

	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.Title
	}
	lines := []string{TableHeaderStyle.Render(format(titles))}
	for i, row := range rows {
		s := TableCellStyle
		if style != nil {
			s = style(i)
		}
		lines = append(lines, s.Render(format(row)))
	}
	return strings.Join(lines, "\n")
}

// FormatAge formats how long ago t was, e.g. "3s" or "2m10s"
func FormatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}

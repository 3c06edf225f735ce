package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/ui"
)

// Messages fed into the model by the receiver callbacks
type (
	announceMsg struct{ device *discovery.Device }
	expireMsg   struct{ path discovery.Path }
	errorMsg    struct {
		code    discovery.ErrorCode
		message string
	}
	stoppedMsg struct{ err error }
	tickMsg    time.Time
)

const tickInterval = time.Second

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Detail key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Detail, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Detail, k.Back, k.Quit},
	}
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// WatchModel is the live device table
type WatchModel struct {
	devices  map[discovery.Path]*discovery.Device
	keys     []discovery.Path // row order, parallel to the table rows
	nickname func(uuid string) string
	now      func() time.Time

	table   table.Model
	spinner spinner.Model
	help    help.Model
	keyMap  watchKeyMap

	// detail is the path of the device shown in the detail view, nil
	// when the table is shown
	detail *discovery.Path

	announces int
	expires   int
	errors    int
	lastError string
	err       error

	Width  int
	Height int
}

// NewWatchModel creates an empty watch screen. nickname may be nil.
func NewWatchModel(nickname func(uuid string) string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	t := table.New(
		table.WithColumns(watchColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SubtleColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(false)
	t.SetStyles(styles)

	return WatchModel{
		devices:  make(map[discovery.Path]*discovery.Device),
		nickname: nickname,
		now:      time.Now,
		table:    t,
		spinner:  s,
		help:     help.New(),
		keyMap:   newWatchKeyMap(),
	}
}

func watchColumns() []table.Column {
	cols := make([]table.Column, 0, len(ui.DeviceColumns)+1)
	for _, c := range ui.DeviceColumns {
		cols = append(cols, table.Column{Title: c.Title, Width: c.Width})
	}
	return append(cols, table.Column{Title: "SEEN", Width: 8})
}

// Init starts the spinner and the age ticker
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.table.SetHeight(max(msg.Height-12, 3))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.Back):
			m.detail = nil
			return m, nil
		case key.Matches(msg, m.keyMap.Detail):
			if i := m.table.Cursor(); m.detail == nil && i >= 0 && i < len(m.keys) {
				path := m.keys[i]
				m.detail = &path
			}
			return m, nil
		}
		if m.detail != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case announceMsg:
		m.announces++
		m.devices[msg.device.Path] = msg.device
		m.refresh()
		return m, nil

	case expireMsg:
		if _, ok := m.devices[msg.path]; ok {
			m.expires++
			delete(m.devices, msg.path)
		}
		if m.detail != nil && *m.detail == msg.path {
			m.detail = nil
		}
		m.refresh()
		return m, nil

	case errorMsg:
		m.errors++
		m.lastError = fmt.Sprintf("%s: %s", msg.code, msg.message)
		return m, nil

	case stoppedMsg:
		m.err = msg.err
		return m, tea.Quit

	case tickMsg:
		m.refresh()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh rebuilds the table rows, ordered by UUID then path
func (m *WatchModel) refresh() {
	var selected discovery.Path
	if i := m.table.Cursor(); i >= 0 && i < len(m.keys) {
		selected = m.keys[i]
	}

	m.keys = m.keys[:0]
	for k := range m.devices {
		m.keys = append(m.keys, k)
	}
	slices.SortFunc(m.keys, func(a, b discovery.Path) int {
		return cmp.Or(cmp.Compare(a.UUID, b.UUID), a.Compare(b))
	})

	now := m.now()
	rows := make([]table.Row, len(m.keys))
	cursor := 0
	for i, k := range m.keys {
		d := m.devices[k]
		nick := ""
		if m.nickname != nil {
			nick = m.nickname(d.Path.UUID)
		}
		rows[i] = append(ui.DeviceRow(d, nick), ui.FormatAge(d.DiscoveredAt, now))
		if k == selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m WatchModel) detailDevice() *discovery.Device {
	if m.detail == nil {
		return nil
	}
	return m.devices[*m.detail]
}

// Err returns the receiver error that ended the program, if any
func (m WatchModel) Err() error {
	return m.err
}

// Len returns the number of live devices
func (m WatchModel) Len() int {
	return len(m.devices)
}

// View renders the current screen
func (m WatchModel) View() string {
	var content string
	if d := m.detailDevice(); d != nil {
		content = m.viewDetail(d)
	} else {
		content = m.viewTable()
	}
	return RenderApplicationContainer(content, m.help.View(m.keyMap), m.Width, m.Height)
}

func (m WatchModel) viewTable() string {
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(TitleStyle.Render("Listening for announcements"))
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render(fmt.Sprintf("%d live  •  %d announcements  •  %d expired  •  %d errors",
		len(m.devices), m.announces, m.expires, m.errors)))
	b.WriteString("\n\n")
	if len(m.devices) == 0 {
		b.WriteString(SubtitleStyle.Render("  Waiting for devices..."))
	} else {
		b.WriteString(m.table.View())
	}
	if m.lastError != "" {
		b.WriteString("\n\n")
		b.WriteString(ErrorLineStyle.Render("Last error: " + m.lastError))
	}
	return b.String()
}

func (m WatchModel) viewDetail(d *discovery.Device) string {
	rows := [][2]string{
		{"UUID", d.Path.UUID},
		{"Name", d.Name},
		{"Type", d.Type},
		{"Family", d.FamilyType},
		{"Firmware", d.Firmware},
		{"Address", d.IP},
		{"Netmask", d.Netmask},
		{"Received on", d.Path.ReceivingInterface},
		{"Sent from", d.Path.SendingInterface},
	}
	if m.nickname != nil {
		if nick := m.nickname(d.Path.UUID); nick != "" {
			rows = append(rows, [2]string{"Nickname", nick})
		}
	}
	if d.Routed() {
		rows = append(rows, [2]string{"Router", d.Path.Router})
	}
	if u := d.BaseURL(); u != "" {
		rows = append(rows, [2]string{"URL", u})
	}
	rows = append(rows,
		[2]string{"Expiration", d.Expiration.String()},
		[2]string{"Seen", ui.FormatAge(d.DiscoveredAt, m.now()) + " ago"},
	)

	var b strings.Builder
	b.WriteString(TitleStyle.Render(d.String()))
	b.WriteString("\n\n")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		b.WriteString(DetailKeyStyle.Render(r[0]))
		b.WriteString(DetailValueStyle.Render(r[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(PayloadStyle.Render(ui.PrettyJSON(d.Payload)))
	return b.String()
}

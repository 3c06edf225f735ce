package server

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/muurk/devscan/internal/discovery"
)

// DeviceView is the JSON form of a live announcement
type DeviceView struct {
	Key                string    `json:"key"`
	UUID               string    `json:"uuid"`
	Nickname           string    `json:"nickname,omitempty"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	FamilyType         string    `json:"familyType"`
	Firmware           string    `json:"firmware,omitempty"`
	IP                 string    `json:"ip,omitempty"`
	Netmask            string    `json:"netmask,omitempty"`
	HTTPPort           int       `json:"httpPort,omitempty"`
	URL                string    `json:"url,omitempty"`
	ReceivingInterface string    `json:"receivingInterface"`
	SendingInterface   string    `json:"sendingInterface"`
	Router             string    `json:"router,omitempty"`
	Expiration         int       `json:"expiration"`
	DiscoveredAt       time.Time `json:"discoveredAt"`
	LastSeen           time.Time `json:"lastSeen"`
}

type tableEntry struct {
	device   *discovery.Device
	lastSeen time.Time
}

// DeviceTable holds the devices currently announced on the network, keyed
// by communication path. It is safe for concurrent use.
type DeviceTable struct {
	mu       sync.RWMutex
	devices  map[discovery.Path]*tableEntry
	nickname func(uuid string) string
}

// NewDeviceTable creates an empty table. nickname may be nil.
func NewDeviceTable(nickname func(uuid string) string) *DeviceTable {
	return &DeviceTable{
		devices:  make(map[discovery.Path]*tableEntry),
		nickname: nickname,
	}
}

// Upsert records an announcement and returns its view
func (t *DeviceTable) Upsert(d *discovery.Device, seen time.Time) DeviceView {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.devices[d.Path]
	if !ok {
		e = &tableEntry{}
		t.devices[d.Path] = e
	}
	e.device = d
	e.lastSeen = seen
	return t.view(e)
}

// Remove drops the entry for path and returns its last view
func (t *DeviceTable) Remove(path discovery.Path) (DeviceView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.devices[path]
	if !ok {
		return DeviceView{}, false
	}
	delete(t.devices, path)
	return t.view(e), true
}

// Get returns every entry announced by uuid, one per path. The match
// ignores case.
func (t *DeviceTable) Get(uuid string) []DeviceView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var matched []*tableEntry
	for _, e := range t.devices {
		if strings.EqualFold(e.device.Path.UUID, uuid) {
			matched = append(matched, e)
		}
	}
	return t.views(matched)
}

// Snapshot returns all entries ordered by UUID then path
func (t *DeviceTable) Snapshot() []DeviceView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := make([]*tableEntry, 0, len(t.devices))
	for _, e := range t.devices {
		all = append(all, e)
	}
	return t.views(all)
}

// Len returns the number of live entries
func (t *DeviceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.devices)
}

func (t *DeviceTable) view(e *tableEntry) DeviceView {
	d := e.device
	v := DeviceView{
		Key:                d.Path.Key(),
		UUID:               d.Path.UUID,
		Name:               d.Name,
		Type:               d.Type,
		FamilyType:         d.FamilyType,
		Firmware:           d.Firmware,
		IP:                 d.IP,
		Netmask:            d.Netmask,
		HTTPPort:           d.HTTPPort,
		URL:                d.BaseURL(),
		ReceivingInterface: d.Path.ReceivingInterface,
		SendingInterface:   d.Path.SendingInterface,
		Router:             d.Path.Router,
		Expiration:         int(d.Expiration / time.Second),
		DiscoveredAt:       d.DiscoveredAt,
		LastSeen:           e.lastSeen,
	}
	if t.nickname != nil {
		v.Nickname = t.nickname(d.Path.UUID)
	}
	return v
}

// views orders entries by UUID then path and renders them
func (t *DeviceTable) views(entries []*tableEntry) []DeviceView {
	slices.SortFunc(entries, func(a, b *tableEntry) int {
		pa, pb := a.device.Path, b.device.Path
		return cmp.Or(cmp.Compare(pa.UUID, pb.UUID), pa.Compare(pb))
	})
	out := make([]DeviceView, len(entries))
	for i, e := range entries {
		out[i] = t.view(e)
	}
	return out
}

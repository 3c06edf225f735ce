package server

import (
	"testing"
	"time"

	"github.com/muurk/devscan/internal/discovery"
)

func testDevice(t *testing.T, path discovery.Path, seen time.Time) *discovery.Device {
	t.Helper()
	d, err := discovery.NewDevice(path, announcement(path.UUID, "dev", "10.0.0.1"), seen)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	return d
}

func TestDeviceTable(t *testing.T) {
	first := time.Unix(1700000000, 0)
	later := first.Add(5 * time.Second)

	table := NewDeviceTable(func(uuid string) string {
		if uuid == "B" {
			return "bee"
		}
		return ""
	})

	direct := testPath("B")
	routed := discovery.Path{ReceivingInterface: "lan0", SendingInterface: "eth0", UUID: "B", Router: "R1"}

	table.Upsert(testDevice(t, direct, first), first)
	table.Upsert(testDevice(t, routed, first), first)
	table.Upsert(testDevice(t, testPath("A"), first), first)
	v := table.Upsert(testDevice(t, direct, first), later)

	if v.LastSeen != later || v.DiscoveredAt != first {
		t.Errorf("view times = %v/%v, want %v/%v", v.DiscoveredAt, v.LastSeen, first, later)
	}
	if v.Nickname != "bee" {
		t.Errorf("Nickname = %q, want bee", v.Nickname)
	}
	if n := table.Len(); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}

	snap := table.Snapshot()
	wantKeys := []string{testPath("A").Key(), direct.Key(), routed.Key()}
	for i, want := range wantKeys {
		if snap[i].Key != want {
			t.Errorf("Snapshot()[%d].Key = %q, want %q", i, snap[i].Key, want)
		}
	}

	if got := table.Get("b"); len(got) != 2 {
		t.Errorf("Get(b) returned %d entries, want 2", len(got))
	}

	removed, ok := table.Remove(routed)
	if !ok || removed.Router != "R1" {
		t.Errorf("Remove() = %+v, %v", removed, ok)
	}
	if _, ok := table.Remove(routed); ok {
		t.Error("second Remove() reported an entry")
	}
	if got := table.Get("B"); len(got) != 1 {
		t.Errorf("Get(B) after remove returned %d entries, want 1", len(got))
	}
}

func TestDeviceTableKeepsPathsWithSameKey(t *testing.T) {
	seen := time.Unix(1700000000, 0)
	table := NewDeviceTable(nil)

	direct := discovery.Path{ReceivingInterface: "lan0", SendingInterface: "eth0", UUID: "c:x"}
	routed := discovery.Path{ReceivingInterface: "lan0", SendingInterface: "eth0", UUID: "c", Router: "x"}
	table.Upsert(testDevice(t, direct, seen), seen)
	table.Upsert(testDevice(t, routed, seen), seen)

	if n := table.Len(); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}
	if _, ok := table.Remove(routed); !ok {
		t.Fatal("Remove(routed) found nothing")
	}
	if got := table.Get("c:x"); len(got) != 1 || got[0].Router != "" {
		t.Errorf("Get(c:x) = %+v, want the direct entry", got)
	}
}

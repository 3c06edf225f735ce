package netlink

import (
	"testing"
	"time"

	"github.com/muurk/devscan/internal/eventloop"
)

func TestWatcherInitialDump(t *testing.T) {
	loop, err := eventloop.New()
	if err != nil {
		t.Fatalf("eventloop.New() error = %v", err)
	}
	defer loop.Close()

	w := NewWatcher(loop)
	var events []Event
	err = w.Start(func(ev Event) {
		events = append(events, ev)
		if ev.Kind == Reset {
			loop.Stop()
		}
	})
	if err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	defer w.Stop()

	status, err := loop.ExecuteFor(2 * time.Second)
	if err != nil {
		t.Fatalf("ExecuteFor() error = %v", err)
	}
	if status != eventloop.StatusStopped {
		t.Fatalf("ExecuteFor() = %v, want stopped after the dump", status)
	}
	if events[len(events)-1].Kind != Reset {
		t.Errorf("last event = %v, want reset", events[len(events)-1])
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Kind != Added || !ev.Address.Is4() {
			t.Errorf("dump event = %v, want an added IPv4 address", ev)
		}
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	loop, err := eventloop.New()
	if err != nil {
		t.Fatalf("eventloop.New() error = %v", err)
	}
	defer loop.Close()

	w := NewWatcher(loop)
	w.Stop()
	if err := w.Start(nil); err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	w.Stop()
	w.Stop()
}

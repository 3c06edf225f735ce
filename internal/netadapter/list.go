package netadapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/logging"
)

// ErrInvalidInterface is returned by lookups for an interface that is not
// part of the current snapshot.
var ErrInvalidInterface = errors.New("invalid interface")

// Enumerator produces the current set of adapters.
type Enumerator func() ([]Adapter, error)

// List is a thread-safe snapshot of the host's network adapters, keyed by
// interface index. Update replaces the whole snapshot at once.
type List struct {
	enumerate Enumerator

	mu       sync.RWMutex
	adapters map[int]Adapter
}

// NewList creates a list backed by the operating system and fills it.
// A failed enumeration is logged and leaves the list empty.
func NewList() *List {
	l := NewListWithEnumerator(SystemAdapters)
	if err := l.Update(); err != nil {
		logging.Warn("Failed to enumerate network adapters", zap.Error(err))
	}
	return l
}

// NewListWithEnumerator creates an empty list using a custom enumerator.
// Call Update to fill it.
func NewListWithEnumerator(e Enumerator) *List {
	return &List{
		enumerate: e,
		adapters:  make(map[int]Adapter),
	}
}

// Update re-enumerates the adapters and swaps the snapshot.
func (l *List) Update() error {
	found, err := l.enumerate()
	if err != nil {
		return fmt.Errorf("enumerate adapters: %w", err)
	}

	adapters := make(map[int]Adapter, len(found))
	for _, a := range found {
		adapters[a.Index] = a.clone()
	}

	l.mu.Lock()
	l.adapters = adapters
	l.mu.Unlock()
	return nil
}

// Get returns a copy of the snapshot keyed by interface index.
func (l *List) Get() map[int]Adapter {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[int]Adapter, len(l.adapters))
	for idx, a := range l.adapters {
		out[idx] = a.clone()
	}
	return out
}

// Array returns a copy of the snapshot ordered by interface index.
func (l *List) Array() []Adapter {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Adapter, 0, len(l.adapters))
	for _, a := range l.adapters {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ByName looks up an adapter by interface name.
func (l *List) ByName(name string) (Adapter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, a := range l.adapters {
		if a.Name == name {
			return a.clone(), nil
		}
	}
	return Adapter{}, fmt.Errorf("%w: %s", ErrInvalidInterface, name)
}

// ByIndex looks up an adapter by interface index.
func (l *List) ByIndex(index int) (Adapter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.adapters[index]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: index %d", ErrInvalidInterface, index)
	}
	return a.clone(), nil
}

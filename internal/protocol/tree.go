package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ErrTrailingData is returned when a payload holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON document")

// Tree is a parsed JSON document navigated by key and index paths.
type Tree struct {
	root any
}

// Parse decodes text into a Tree. Empty input, invalid JSON and trailing
// garbage are errors; no partial tree is ever returned.
func Parse(text []byte) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return &Tree{root: root}, nil
}

// Root returns the decoded document.
func (t *Tree) Root() any {
	return t.root
}

// Lookup walks path from the root. Each segment is an object key, or an
// array index when the current node is an array. It reports false when
// any segment is absent.
func (t *Tree) Lookup(path ...string) (any, bool) {
	node := t.root
	for _, seg := range path {
		switch v := node.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			node = v[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// String returns the string at path.
func (t *Tree) String(path ...string) (string, bool) {
	v, ok := t.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer at path. Numbers with a fractional part are
// rejected.
func (t *Tree) Int(path ...string) (int64, bool) {
	v, ok := t.Lookup(path...)
	if !ok {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Array returns the array at path.
func (t *Tree) Array(path ...string) ([]any, bool) {
	v, ok := t.Lookup(path...)
	if !ok {
		return nil, false
	}
	a, ok := v.([]any)
	return a, ok
}

// Has reports whether path exists, whatever its value.
func (t *Tree) Has(path ...string) bool {
	_, ok := t.Lookup(path...)
	return ok
}

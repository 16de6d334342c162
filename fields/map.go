// Package fields implements the HTTP-style field grammar shared by WARC
// headers: an ordered, case-insensitive multimap of name/value pairs, plus
// the token/value grammar and header/body deliminator scanner used to parse
// it from raw bytes.
package fields

import "strings"

// Pair is a single name/value field.
type Pair struct {
	Name  string
	Value string
}

// Map is an ordered, case-insensitive multimap of field name/value pairs. It
// preserves insertion order and the exact bytes of every value; only name
// comparisons are case-insensitive. The zero value is an empty map ready to
// use.
type Map struct {
	pairs []Pair
}

// NewMap constructs an empty Map.
func NewMap() *Map {
	return &Map{}
}

// Len returns the number of pairs, counting repeated names individually.
func (m *Map) Len() int {
	return len(m.pairs)
}

// IsEmpty reports whether the map has no pairs.
func (m *Map) IsEmpty() bool {
	return len(m.pairs) == 0
}

// Clear removes every pair.
func (m *Map) Clear() {
	m.pairs = nil
}

// Insert removes every existing pair under name (case-insensitively) and
// then adds a single pair with the given value. This is "last write wins"
// and is the right operation for fields that are logically singular, such
// as Content-Length.
func (m *Map) Insert(name, value string) {
	m.Remove(name)
	m.Append(name, value)
}

// Append adds a pair without removing any existing pair under the same
// name. Use this for fields that are legitimately repeatable, such as
// WARC-Concurrent-To.
func (m *Map) Append(name, value string) {
	m.pairs = append(m.pairs, Pair{Name: name, Value: value})
}

// Remove deletes every pair whose name matches (case-insensitively) and
// reports whether anything was removed.
func (m *Map) Remove(name string) bool {
	removed := false
	out := m.pairs[:0]
	for _, p := range m.pairs {
		if strings.EqualFold(p.Name, name) {
			removed = true
			continue
		}
		out = append(out, p)
	}
	m.pairs = out
	return removed
}

// ContainsName reports whether any pair has the given name, case-insensitively.
func (m *Map) ContainsName(name string) bool {
	for _, p := range m.pairs {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Get returns the value of the first pair with the given name, case-insensitively.
func (m *Map) Get(name string) (string, bool) {
	for _, p := range m.pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of every pair with the given name, in insertion order.
func (m *Map) GetAll(name string) []string {
	var out []string
	for _, p := range m.pairs {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p.Value)
		}
	}
	return out
}

// Iter returns every pair in insertion order. The returned slice must not be
// mutated by the caller.
func (m *Map) Iter() []Pair {
	return m.pairs
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := &Map{pairs: make([]Pair, len(m.pairs))}
	copy(out.pairs, m.pairs)
	return out
}

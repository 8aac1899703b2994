// Package flatmap provides an insertion-ordered map from dotted keys to
// string values, the data model of a properties file.
package flatmap

import (
	"iter"
	"sort"
)

// Map is an ordered mapping of dotted keys to string values.
//
// Iteration follows insertion order. Setting an existing key replaces its
// value and keeps its original position (last write wins).
// The zero value is not ready for use; call New.
type Map struct {
	keys   []string
	values map[string]string
}

// New creates an empty Map.
func New() *Map {
	return &Map{values: make(map[string]string)}
}

// FromPairs builds a Map from alternating key, value arguments.
// It panics if given an odd number of arguments.
//
// Example:
//
//	m := flatmap.FromPairs("server.port", "8080", "server.host", "localhost")
func FromPairs(kv ...string) *Map {
	if len(kv)%2 != 0 {
		panic("flatmap: FromPairs requires an even number of arguments")
	}
	m := New()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set binds key to value.
func (m *Map) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value bound to key.
func (m *Map) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is bound.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns a copy of the keys in iteration order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates over entries in insertion order.
func (m *Map) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Sorted returns a copy of m whose iteration order is lexical by key.
func (m *Map) Sorted() *Map {
	keys := m.Keys()
	sort.Strings(keys)
	out := &Map{keys: keys, values: make(map[string]string, len(keys))}
	for _, k := range keys {
		out.values[k] = m.values[k]
	}
	return out
}

// ToMap returns the entries as a plain Go map.
func (m *Map) ToMap() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Equal reports whether m and other hold the same entries, ignoring order.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for k, v := range m.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

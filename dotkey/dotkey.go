// Package dotkey provides utilities for working with dot-separated
// hierarchical keys, as used by Java-style properties files.
//
// A dotted key such as "server.http.port" addresses the nested value
// server → http → port. Segments are separated by '.'; there is no escape
// syntax, so a segment can never contain a dot.
package dotkey

import (
	"fmt"
	"strings"
)

// Separator joins key segments.
const Separator = "."

// Split splits a dotted key into its segments.
//
// Examples:
//
//	Split("server.port")  -> ["server", "port"]
//	Split("name")         -> ["name"]
//	Split("a..b")         -> ["a", "", "b"]
//	Split("")             -> [""]
func Split(key string) []string {
	return strings.Split(key, Separator)
}

// Join combines segments into a dotted key.
//
// Examples:
//
//	Join("server", "port")  -> "server.port"
//	Join()                  -> ""
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Append appends a segment to a prefix key.
// An empty prefix yields the segment itself.
//
// Examples:
//
//	Append("server", "port")  -> "server.port"
//	Append("", "server")      -> "server"
func Append(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + Separator + segment
}

// Validate reports whether key can be split into non-empty segments.
// For valid keys Join(Split(key)...) == key.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	for i, seg := range Split(key) {
		if seg == "" {
			return fmt.Errorf("segment %d is empty", i)
		}
	}
	return nil
}

// Prefixes returns every proper prefix of key, shortest first.
//
// Example:
//
//	Prefixes("a.b.c") -> ["a", "a.b"]
func Prefixes(key string) []string {
	segs := Split(key)
	if len(segs) < 2 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, Join(segs[:i]...))
	}
	return out
}

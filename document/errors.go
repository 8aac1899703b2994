package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IOError is returned when a file cannot be read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError is returned when source text is malformed.
// Line and Column are 1-based and zero when unknown.
type ParseError struct {
	Format string
	Path   string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("failed to parse ")
	if e.Format != "" {
		b.WriteString(e.Format)
		b.WriteByte(' ')
	}
	if loc := e.location(); loc != "" {
		b.WriteString(loc)
	} else {
		b.WriteString("input")
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// location renders "path:line:col", falling back to "line N, column M"
// when no path is known.
func (e *ParseError) location() string {
	if e.Path != "" {
		loc := e.Path
		if e.Line > 0 {
			loc += ":" + strconv.Itoa(e.Line)
			if e.Column > 0 {
				loc += ":" + strconv.Itoa(e.Column)
			}
		}
		return loc
	}
	if e.Line == 0 {
		return ""
	}
	loc := "line " + strconv.Itoa(e.Line)
	if e.Column > 0 {
		loc += ", column " + strconv.Itoa(e.Column)
	}
	return loc
}

// CollisionError is returned when a flat key and the nested structure
// disagree: Key requires a path that Conflict already binds differently.
type CollisionError struct {
	Key      string
	Conflict string
	Reason   string
}

func (e *CollisionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("key %q collides with %q", e.Key, e.Conflict)
	}
	return fmt.Sprintf("key %q collides with %q: %s", e.Key, e.Conflict, e.Reason)
}

// UnsupportedValueError is returned when a nested value has no flat
// properties representation.
type UnsupportedValueError struct {
	Key  string
	Type string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported value at %q: %s values have no properties representation", e.Key, e.Type)
}

// InvalidKeyError is returned for flat keys that cannot be split into
// non-empty segments.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Key, e.Reason)
}

// UnsupportedFormatError is returned when a file extension maps to no
// known format.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %q (want .properties, .yml or .yaml)", e.Path)
}

// Collision creates a CollisionError naming both keys.
//
// Example:
//
//	return nil, document.Collision("a.b", "a", "a is already a scalar")
func Collision(key, conflict, reason string) *CollisionError {
	return &CollisionError{Key: key, Conflict: conflict, Reason: reason}
}

// UnsupportedAt creates an UnsupportedValueError for the value at key.
//
// Example:
//
//	return nil, document.UnsupportedAt("servers", "sequence")
func UnsupportedAt(key, typ string) *UnsupportedValueError {
	return &UnsupportedValueError{Key: key, Type: typ}
}

// WithPath records path on any ParseError found in err's chain and
// returns err. Adapters parse bytes and do not know where they came from;
// callers that read the file fill the path in afterwards.
func WithPath(err error, path string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = path
	}
	return err
}

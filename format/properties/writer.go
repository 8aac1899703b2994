package properties

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/yacchi/propyaml/flatmap"
)

const hexDigits = "0123456789ABCDEF"

// WriteOption configures Write and Marshal.
type WriteOption func(*writer)

type writer struct {
	header        string
	sortKeys      bool
	escapeUnicode bool
}

// WithHeader writes header as a comment block before the entries.
// Each line of a multi-line header gets its own '#' prefix.
func WithHeader(header string) WriteOption {
	return func(w *writer) {
		w.header = header
	}
}

// WithSortedKeys writes entries in lexical key order instead of the map's
// iteration order.
func WithSortedKeys(sorted bool) WriteOption {
	return func(w *writer) {
		w.sortKeys = sorted
	}
}

// WithEscapeUnicode controls whether characters outside printable ASCII are
// written as \uXXXX escapes. Default: true, which keeps the output readable
// by ISO-8859-1 based loaders.
func WithEscapeUnicode(escape bool) WriteOption {
	return func(w *writer) {
		w.escapeUnicode = escape
	}
}

// Marshal serializes m as properties text.
//
// Example:
//
//	data, err := properties.Marshal(m, properties.WithHeader("Generated from YAML"))
func Marshal(m *flatmap.Map, opts ...WriteOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, m, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes m as properties text to out, one key=value line per
// entry. No timestamp is written, so equal input yields equal output.
func Write(out io.Writer, m *flatmap.Map, opts ...WriteOption) error {
	w := &writer{escapeUnicode: true}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	bw := bufio.NewWriter(out)
	if w.header != "" {
		w.writeComments(bw, w.header)
	}
	if m != nil {
		if w.sortKeys {
			m = m.Sorted()
		}
		for k, v := range m.All() {
			bw.WriteString(w.escape(k, true))
			bw.WriteByte('=')
			bw.WriteString(w.escape(v, false))
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write properties: %w", err)
	}
	return nil
}

// writeComments writes each header line prefixed with '#', unless the line
// already starts with a comment character.
func (w *writer) writeComments(bw *bufio.Writer, header string) {
	header = strings.ReplaceAll(header, "\r\n", "\n")
	header = strings.ReplaceAll(header, "\r", "\n")
	for _, line := range strings.Split(header, "\n") {
		if !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "!") {
			bw.WriteByte('#')
		}
		for _, r := range line {
			if w.needsUnicodeEscape(r) {
				writeUnicodeEscape(bw, r)
			} else {
				bw.WriteRune(r)
			}
		}
		bw.WriteByte('\n')
	}
}

// escape converts s to its written form. Spaces are escaped everywhere in
// keys but only in leading position in values, so the reader does not
// strip them.
func (w *writer) escape(s string, isKey bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch r {
		case ' ':
			if i == 0 || isKey {
				b.WriteByte('\\')
			}
			b.WriteByte(' ')
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		case '=', ':', '#', '!':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r < 0x20 || r == 0x7f || w.needsUnicodeEscape(r) {
				writeUnicodeEscape(&b, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func (w *writer) needsUnicodeEscape(r rune) bool {
	return w.escapeUnicode && r > 0x7e
}

// writeUnicodeEscape writes r as one \uXXXX escape, or two for runes
// outside the Basic Multilingual Plane.
func writeUnicodeEscape(b io.ByteWriter, r rune) {
	if r > 0xFFFF {
		hi, lo := utf16.EncodeRune(r)
		writeUnit(b, uint16(hi))
		writeUnit(b, uint16(lo))
		return
	}
	writeUnit(b, uint16(r))
}

func writeUnit(b io.ByteWriter, u uint16) {
	b.WriteByte('\\')
	b.WriteByte('u')
	b.WriteByte(hexDigits[u>>12&0xF])
	b.WriteByte(hexDigits[u>>8&0xF])
	b.WriteByte(hexDigits[u>>4&0xF])
	b.WriteByte(hexDigits[u&0xF])
}

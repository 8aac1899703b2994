// Package properties reads and writes Java-style .properties text.
//
// The accepted syntax follows the conventions of java.util.Properties:
// '#' and '!' comment lines, '=', ':' or whitespace separators, backslash
// line continuations and backslash escapes including \uXXXX. Keys and
// values are opaque strings; no type inference is performed.
package properties

import (
	"bytes"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/flatmap"
)

// FormatName is the format name reported in parse errors.
const FormatName = "properties"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// pos is the 1-based source position of a rune.
type pos struct {
	line, col int
}

// logicalLine is one key/value line after continuations are joined.
type logicalLine struct {
	runes []rune
	pos   []pos
}

// Parse parses properties text into a flat map. Entries keep the order in
// which they appear; a repeated key keeps its first position and its last
// value.
//
// Any malformed line fails the whole parse with *document.ParseError; no
// line is skipped silently.
func Parse(data []byte) (*flatmap.Map, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if err := checkUTF8(data); err != nil {
		return nil, err
	}

	m := flatmap.New()
	lines := splitLogicalLines([]rune(string(data)))
	for _, ll := range lines {
		key, value, err := parseLine(ll)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	return m, nil
}

// checkUTF8 reports the position of the first invalid UTF-8 sequence.
func checkUTF8(data []byte) error {
	if utf8.Valid(data) {
		return nil
	}
	line, col := 1, 1
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return &document.ParseError{Format: FormatName, Line: line, Column: col, Msg: "invalid UTF-8 encoding"}
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		data = data[size:]
	}
	return nil
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\f'
}

func isLineEnd(r rune) bool {
	return r == '\n' || r == '\r'
}

// splitLogicalLines drops blank and comment lines and joins continued
// lines. A line is continued when it ends in an odd number of backslashes;
// leading whitespace of the continuation is dropped.
func splitLogicalLines(src []rune) []logicalLine {
	var (
		out       []logicalLine
		cur       logicalLine
		line, col = 1, 1
		i         = 0
	)

	// advance consumes one rune and updates the position, treating \r\n as
	// a single terminator.
	advance := func() {
		r := src[i]
		i++
		switch {
		case r == '\r' && i < len(src) && src[i] == '\n':
			i++
			line++
			col = 1
		case isLineEnd(r):
			line++
			col = 1
		default:
			col++
		}
	}

	for i < len(src) {
		// Start of a physical line that is not a continuation.
		for i < len(src) && isWhitespace(src[i]) {
			advance()
		}
		if i >= len(src) {
			break
		}
		if isLineEnd(src[i]) {
			advance()
			continue
		}
		if src[i] == '#' || src[i] == '!' {
			for i < len(src) && !isLineEnd(src[i]) {
				advance()
			}
			if i < len(src) {
				advance()
			}
			continue
		}

		cur = logicalLine{}
		for i < len(src) {
			if isLineEnd(src[i]) {
				if !endsWithOddBackslashes(cur.runes) {
					advance()
					break
				}
				// Continuation: drop the backslash, the terminator and the
				// next line's leading whitespace.
				cur.runes = cur.runes[:len(cur.runes)-1]
				cur.pos = cur.pos[:len(cur.pos)-1]
				advance()
				for i < len(src) && isWhitespace(src[i]) {
					advance()
				}
				continue
			}
			cur.runes = append(cur.runes, src[i])
			cur.pos = append(cur.pos, pos{line, col})
			advance()
		}
		// A backslash before EOF continues onto nothing.
		if i >= len(src) && endsWithOddBackslashes(cur.runes) {
			cur.runes = cur.runes[:len(cur.runes)-1]
			cur.pos = cur.pos[:len(cur.pos)-1]
		}
		// A lone continuation into a blank line or EOF leaves nothing.
		if len(cur.runes) > 0 {
			out = append(out, cur)
		}
	}
	return out
}

func endsWithOddBackslashes(rs []rune) bool {
	n := 0
	for i := len(rs) - 1; i >= 0 && rs[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// parseLine splits a logical line into its unescaped key and value.
func parseLine(ll logicalLine) (string, string, error) {
	rs := ll.runes
	keyLen := 0
	valueStart := len(rs)
	hasSep := false
	escaped := false

	for keyLen < len(rs) {
		c := rs[keyLen]
		if (c == '=' || c == ':') && !escaped {
			valueStart = keyLen + 1
			hasSep = true
			break
		}
		if isWhitespace(c) && !escaped {
			valueStart = keyLen + 1
			break
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			escaped = false
		}
		keyLen++
	}

	for valueStart < len(rs) {
		c := rs[valueStart]
		if !isWhitespace(c) {
			if !hasSep && (c == '=' || c == ':') {
				hasSep = true
			} else {
				break
			}
		}
		valueStart++
	}

	key, err := unescape(rs[:keyLen], ll.pos[:keyLen])
	if err != nil {
		return "", "", err
	}
	if key == "" {
		p := ll.pos[0]
		return "", "", &document.ParseError{Format: FormatName, Line: p.line, Column: p.col, Msg: "empty key"}
	}
	value, err := unescape(rs[valueStart:], ll.pos[valueStart:])
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

// unescape decodes backslash escapes. \uXXXX escapes produce UTF-16 code
// units, so surrogate pairs are combined afterwards.
func unescape(rs []rune, ps []pos) (string, error) {
	var units []unit

	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if c != '\\' || i+1 >= len(rs) {
			units = append(units, unit{r: c})
			continue
		}

		start := ps[i]
		i++
		switch e := rs[i]; e {
		case 'u':
			if i+5 > len(rs) {
				return "", malformedUnicode(start)
			}
			v, ok := parseHex4(rs[i+1 : i+5])
			if !ok {
				return "", malformedUnicode(start)
			}
			units = append(units, unit{r: rune(v), escaped: true, pos: start})
			i += 4
		case 't':
			units = append(units, unit{r: '\t'})
		case 'r':
			units = append(units, unit{r: '\r'})
		case 'n':
			units = append(units, unit{r: '\n'})
		case 'f':
			units = append(units, unit{r: '\f'})
		default:
			units = append(units, unit{r: e})
		}
	}

	return combineSurrogates(units)
}

// unit is a decoded rune. Runes decoded from \u escapes may be UTF-16
// surrogate halves and remember where the escape started.
type unit struct {
	r       rune
	escaped bool
	pos     pos
}

func malformedUnicode(p pos) error {
	return &document.ParseError{Format: FormatName, Line: p.line, Column: p.col, Msg: `malformed \uxxxx encoding`}
}

func parseHex4(rs []rune) (uint16, bool) {
	var v uint16
	for _, r := range rs {
		var d rune
		switch {
		case r >= '0' && r <= '9':
			d = r - '0'
		case r >= 'a' && r <= 'f':
			d = r - 'a' + 10
		case r >= 'A' && r <= 'F':
			d = r - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | uint16(d)
	}
	return v, true
}

// combineSurrogates joins escaped UTF-16 surrogate pairs into single runes.
// An unpaired surrogate is an error.
func combineSurrogates(units []unit) (string, error) {
	res := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if !u.escaped || !utf16.IsSurrogate(u.r) {
			res = append(res, u.r)
			continue
		}
		if i+1 < len(units) && units[i+1].escaped {
			if dec := utf16.DecodeRune(u.r, units[i+1].r); dec != utf8.RuneError {
				res = append(res, dec)
				i++
				continue
			}
		}
		return "", &document.ParseError{
			Format: FormatName,
			Line:   u.pos.line,
			Column: u.pos.col,
			Msg:    fmt.Sprintf(`unpaired UTF-16 surrogate \u%04X`, u.r),
		}
	}
	return string(res), nil
}

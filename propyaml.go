// Package propyaml converts configuration files between Java-style
// .properties and YAML.
//
// A properties file is a flat list of dotted keys; YAML nests the same
// data as mappings. Converting one into the other is a tree
// nest/flatten around two format adapters:
//
//	server.port=8080        server:
//	server.host=localhost     port: "8080"
//	                          host: localhost
//
// All values stay strings. Conversions either succeed completely or leave
// the output untouched: nothing is written until the whole transform has
// succeeded in memory, and files are replaced atomically.
package propyaml

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/yacchi/propyaml/format/yaml"
	"github.com/yacchi/propyaml/source/fs"
)

// DefaultHeader is the comment written at the top of generated properties
// files.
const DefaultHeader = "Generated from YAML"

// SequencePolicy decides how YAML sequences are flattened, since
// properties keys have no notion of a list.
type SequencePolicy int

const (
	// SequenceReject fails the conversion with *document.UnsupportedValueError.
	SequenceReject SequencePolicy = iota
	// SequenceFlow stores the sequence as its single-line YAML flow
	// rendering, e.g. "[1, 2, 3]".
	SequenceFlow
)

// String returns the policy name accepted by ParseSequencePolicy.
func (p SequencePolicy) String() string {
	switch p {
	case SequenceReject:
		return "reject"
	case SequenceFlow:
		return "flow"
	default:
		return fmt.Sprintf("SequencePolicy(%d)", int(p))
	}
}

// ParseSequencePolicy parses "reject" or "flow".
func ParseSequencePolicy(s string) (SequencePolicy, error) {
	switch s {
	case "reject":
		return SequenceReject, nil
	case "flow":
		return SequenceFlow, nil
	default:
		return 0, fmt.Errorf("unknown sequence policy %q (want reject or flow)", s)
	}
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for conversion events.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithHeader sets the comment written at the top of generated properties
// files. An empty header writes no comment.
// Default is DefaultHeader.
func WithHeader(header string) Option {
	return func(c *Converter) {
		c.header = header
	}
}

// WithSortedKeys writes keys in lexical order instead of source order.
func WithSortedKeys(sorted bool) Option {
	return func(c *Converter) {
		c.sortKeys = sorted
	}
}

// WithEscapeUnicode controls whether non-ASCII characters are written as
// \uXXXX escapes in properties output. Default is true.
func WithEscapeUnicode(escape bool) Option {
	return func(c *Converter) {
		c.escapeUnicode = escape
	}
}

// WithIndent sets the YAML indentation width. Values outside 2..9 use the
// default of 2.
func WithIndent(n int) Option {
	return func(c *Converter) {
		c.indent = n
	}
}

// WithSequencePolicy sets how YAML sequences are flattened.
// Default is SequenceReject.
func WithSequencePolicy(p SequencePolicy) Option {
	return func(c *Converter) {
		c.sequences = p
	}
}

// WithFileMode sets the permission mode of written files.
// Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(c *Converter) {
		c.fileMode = mode
	}
}

// WithDirMode sets the permission mode of parent directories created for
// written files. Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(c *Converter) {
		c.dirMode = mode
	}
}

// Converter converts between properties and YAML files.
// A Converter is immutable after New and safe for concurrent use.
type Converter struct {
	logger        *slog.Logger
	header        string
	sortKeys      bool
	escapeUnicode bool
	indent        int
	sequences     SequencePolicy
	fileMode      os.FileMode
	dirMode       os.FileMode
}

// New creates a Converter.
//
// Example:
//
//	conv := propyaml.New(
//	    propyaml.WithSortedKeys(true),
//	    propyaml.WithSequencePolicy(propyaml.SequenceFlow),
//	)
//	out, err := conv.ConvertFile(ctx, "application.properties", "")
func New(opts ...Option) *Converter {
	c := &Converter{
		header:        DefaultHeader,
		escapeUnicode: true,
		indent:        yaml.DefaultIndent,
		sequences:     SequenceReject,
		fileMode:      fs.DefaultFileMode,
		dirMode:       fs.DefaultDirMode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

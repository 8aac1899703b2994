// Package yaml converts YAML documents to and from document.Node trees.
// It operates on the gopkg.in/yaml.v3 node AST so that source positions
// are available for error reporting and scalars keep their source text.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/yacchi/propyaml/document"
	"gopkg.in/yaml.v3"
)

// FormatName is the format name reported in parse errors.
const FormatName = "yaml"

// DefaultIndent is the number of spaces per nesting level used by Marshal.
const DefaultIndent = 2

// yaml.v3 reports syntax errors as "yaml: line N: message".
var syntaxErrorPattern = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// Parse parses a single YAML document whose root is a mapping.
//
// Empty input, input containing only comments, and an explicit null
// document are treated as an empty mapping. A scalar or sequence root,
// more than one document, duplicate keys, merge keys and non-scalar keys
// fail with *document.ParseError.
//
// Scalars keep their source text ("8080", "true", "2024-01-01"); null
// scalars become the empty string. Aliases are resolved to the anchored
// node.
func Parse(data []byte) (*document.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return document.Mapping(), nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return document.Mapping(), nil
		}
		return nil, syntaxError(err)
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case err == nil:
		return nil, &document.ParseError{
			Format: FormatName,
			Line:   extra.Line,
			Column: extra.Column,
			Msg:    "multiple documents are not supported",
		}
	case !errors.Is(err, io.EOF):
		return nil, syntaxError(err)
	}

	content := resolveAlias(rootContent(&root))
	if content == nil || isNull(content) {
		return document.Mapping(), nil
	}
	if content.Kind != yaml.MappingNode {
		return nil, &document.ParseError{
			Format: FormatName,
			Line:   content.Line,
			Column: content.Column,
			Msg:    fmt.Sprintf("document root must be a mapping, got %s", nodeKindString(content.Kind)),
		}
	}

	c := &converter{active: make(map[*yaml.Node]bool)}
	return c.convert(content)
}

// rootContent unwraps the DocumentNode around the actual content.
func rootContent(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		return root.Content[0]
	}
	return root
}

// syntaxError converts a yaml.v3 error into a ParseError, extracting the
// line number when the message carries one.
func syntaxError(err error) error {
	pe := &document.ParseError{Format: FormatName, Msg: err.Error(), Err: err}
	if m := syntaxErrorPattern.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
		pe.Msg = m[2]
	}
	return pe
}

// resolveAlias returns the actual node if the given node is an alias,
// otherwise returns the node itself.
func resolveAlias(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

// converter walks a yaml.Node tree. active holds the nodes on the current
// path so that an alias pointing at one of its ancestors is rejected
// instead of recursing forever.
type converter struct {
	active map[*yaml.Node]bool
}

func (c *converter) convert(node *yaml.Node) (*document.Node, error) {
	if node.Kind == yaml.AliasNode {
		target := resolveAlias(node)
		if target == node || c.active[target] {
			return nil, &document.ParseError{Format: FormatName, Line: node.Line, Column: node.Column, Msg: "recursive alias"}
		}
		node = target
	}

	c.active[node] = true
	defer delete(c.active, node)

	switch node.Kind {
	case yaml.ScalarNode:
		value := node.Value
		if isNull(node) {
			value = ""
		}
		return &document.Node{Kind: document.ScalarKind, Value: value, Tag: node.ShortTag(), Line: node.Line, Column: node.Column}, nil

	case yaml.MappingNode:
		out := &document.Node{Kind: document.MappingKind, Line: node.Line, Column: node.Column}
		seen := make(map[string]bool, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := resolveAlias(node.Content[i])
			if keyNode.Kind != yaml.ScalarNode {
				return nil, &document.ParseError{
					Format: FormatName,
					Line:   keyNode.Line,
					Column: keyNode.Column,
					Msg:    fmt.Sprintf("mapping keys must be scalars, got %s", nodeKindString(keyNode.Kind)),
				}
			}
			if keyNode.ShortTag() == "!!merge" {
				return nil, &document.ParseError{Format: FormatName, Line: keyNode.Line, Column: keyNode.Column, Msg: "merge keys are not supported"}
			}
			key := keyNode.Value
			if seen[key] {
				return nil, &document.ParseError{
					Format: FormatName,
					Line:   keyNode.Line,
					Column: keyNode.Column,
					Msg:    fmt.Sprintf("duplicate key %q", key),
				}
			}
			seen[key] = true

			child, err := c.convert(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, document.Entry{Key: key, Node: child})
		}
		return out, nil

	case yaml.SequenceNode:
		out := &document.Node{Kind: document.SequenceKind, Line: node.Line, Column: node.Column}
		for _, item := range node.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
		return out, nil

	default:
		return nil, &document.ParseError{
			Format: FormatName,
			Line:   node.Line,
			Column: node.Column,
			Msg:    fmt.Sprintf("unexpected %s node", nodeKindString(node.Kind)),
		}
	}
}

// nodeKindString returns a human-readable string for a node kind.
func nodeKindString(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

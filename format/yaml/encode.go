package yaml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yacchi/propyaml/document"
	"gopkg.in/yaml.v3"
)

// EncodeOption configures Marshal.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	indent int
}

// WithIndent sets the number of spaces per nesting level.
// Values outside 2..9 fall back to DefaultIndent.
func WithIndent(n int) EncodeOption {
	return func(c *encodeConfig) {
		c.indent = n
	}
}

// Marshal serializes n as block-style YAML.
//
// Scalars are always emitted as strings: a value that would otherwise be
// read back as a number, boolean or null ("8080", "true", "") is quoted.
// An empty mapping is written as "{}".
func Marshal(n *document.Node, opts ...EncodeOption) ([]byte, error) {
	cfg := encodeConfig{indent: DefaultIndent}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.indent < 2 || cfg.indent > 9 {
		cfg.indent = DefaultIndent
	}

	if n == nil {
		n = document.Mapping()
	}
	yn, err := toYAMLNode(n, true)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(cfg.indent)
	if err := enc.Encode(yn); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderFlow renders n as single-line flow-style YAML, e.g. "[1, 2, 3]".
// Untagged scalars and scalars parsed as numbers or booleans are written
// plain. Scalars parsed as strings are quoted where the plain form would
// read back as another type ("8080", "true"), and parsed nulls are written
// as null.
//
// RenderFlow satisfies maputil.SequenceRenderer.
func RenderFlow(n *document.Node) (string, error) {
	yn, err := toYAMLNode(n, false)
	if err != nil {
		return "", err
	}
	setFlow(yn)

	data, err := yaml.Marshal(yn)
	if err != nil {
		return "", fmt.Errorf("failed to render YAML flow: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// toYAMLNode builds the yaml.v3 AST for n. With strTags set, scalars carry
// an explicit !!str tag, which makes the encoder quote ambiguous values.
func toYAMLNode(n *document.Node, strTags bool) (*yaml.Node, error) {
	scalar := func(v string) *yaml.Node {
		s := &yaml.Node{Kind: yaml.ScalarNode, Value: v}
		if strTags {
			s.Tag = "!!str"
		}
		return s
	}

	switch n.Kind {
	case document.ScalarKind:
		if !strTags {
			switch n.Tag {
			case "!!null":
				return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
			case "!!str":
				return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Value}, nil
			}
		}
		return scalar(n.Value), nil

	case document.MappingKind:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range n.Entries {
			child, err := toYAMLNode(e.Node, strTags)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, scalar(e.Key), child)
		}
		return out, nil

	case document.SequenceKind:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.Items {
			child, err := toYAMLNode(item, strTags)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, child)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("cannot encode node of kind %s", n.Kind)
	}
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		setFlow(c)
	}
}

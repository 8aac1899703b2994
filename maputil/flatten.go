package maputil

import (
	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/dotkey"
	"github.com/yacchi/propyaml/flatmap"
)

// SequenceRenderer renders a sequence node to a single scalar string.
type SequenceRenderer func(n *document.Node) (string, error)

// FlattenOption configures Flatten.
type FlattenOption func(*flattener)

// WithSequenceRenderer makes Flatten render sequence values with fn
// instead of rejecting them. A nil fn keeps the default behaviour.
func WithSequenceRenderer(fn SequenceRenderer) FlattenOption {
	return func(f *flattener) {
		f.renderSequence = fn
	}
}

type flattener struct {
	renderSequence SequenceRenderer

	out *flatmap.Map
	// prefixes maps every proper prefix of an emitted key to the first
	// emitted key below it.
	prefixes map[string]string
}

// Flatten produces a flat map whose keys are the dot-joined paths from
// root to each scalar leaf, in depth-first document order.
//
// Sequences fail with *document.UnsupportedValueError unless a renderer is
// configured with WithSequenceRenderer. Empty mappings produce no entries.
// Two paths that flatten to the same key, or a scalar whose key is a prefix
// of another emitted key, fail with *document.CollisionError; the result
// can therefore always be nested again.
func Flatten(root *document.Node, opts ...FlattenOption) (*flatmap.Map, error) {
	f := &flattener{
		out:      flatmap.New(),
		prefixes: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if root == nil {
		return f.out, nil
	}
	if !root.IsMapping() {
		return nil, document.UnsupportedAt("", root.Kind.String())
	}
	if err := f.walk("", root); err != nil {
		return nil, err
	}
	return f.out, nil
}

func (f *flattener) walk(prefix string, node *document.Node) error {
	for _, e := range node.Entries {
		key := dotkey.Append(prefix, e.Key)
		if e.Key == "" {
			return &document.InvalidKeyError{Key: key, Reason: "mapping key is empty"}
		}
		if err := dotkey.Validate(key); err != nil {
			return &document.InvalidKeyError{Key: key, Reason: err.Error()}
		}

		switch e.Node.Kind {
		case document.MappingKind:
			if err := f.walk(key, e.Node); err != nil {
				return err
			}

		case document.ScalarKind:
			if err := f.emit(key, e.Node.Value); err != nil {
				return err
			}

		case document.SequenceKind:
			if f.renderSequence == nil {
				return document.UnsupportedAt(key, e.Node.Kind.String())
			}
			s, err := f.renderSequence(e.Node)
			if err != nil {
				return err
			}
			if err := f.emit(key, s); err != nil {
				return err
			}

		default:
			return document.UnsupportedAt(key, e.Node.Kind.String())
		}
	}
	return nil
}

func (f *flattener) emit(key, value string) error {
	if f.out.Has(key) {
		return document.Collision(key, key, "flat key produced twice")
	}
	if below, ok := f.prefixes[key]; ok {
		return document.Collision(key, below, key+" already has nested keys")
	}
	for _, p := range dotkey.Prefixes(key) {
		if f.out.Has(p) {
			return document.Collision(key, p, p+" is already bound to a scalar")
		}
	}

	for _, p := range dotkey.Prefixes(key) {
		if _, ok := f.prefixes[p]; !ok {
			f.prefixes[p] = key
		}
	}
	f.out.Set(key, value)
	return nil
}

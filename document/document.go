// Package document defines the nested node tree shared by the format
// adapters and the error types reported while converting documents.
//
// A Node is a tagged value: a scalar string, an ordered mapping of named
// children, or a sequence. Sequences only exist so that a parsed YAML
// document can be resolved once at parse time; the flat properties model
// has no representation for them.
package document

import "fmt"

// Kind identifies which variant a Node holds.
type Kind int

const (
	// ScalarKind is a leaf carrying a string value.
	ScalarKind Kind = iota
	// MappingKind is an ordered set of uniquely named children.
	MappingKind
	// SequenceKind is an ordered list of items.
	SequenceKind
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is a named child of a mapping node.
type Entry struct {
	Key  string
	Node *Node
}

// Node is a nested configuration value.
//
// Only the fields matching Kind are meaningful: Value for ScalarKind,
// Entries for MappingKind and Items for SequenceKind. Line and Column hold
// the 1-based source position when the node was produced by a parser, and
// are zero otherwise.
//
// Tag is the resolved short tag of a parsed YAML scalar ("!!str",
// "!!int", "!!null"), empty for nodes built in memory.
type Node struct {
	Kind    Kind
	Value   string
	Entries []Entry
	Items   []*Node
	Tag     string

	Line   int
	Column int
}

// Scalar creates a scalar node.
func Scalar(value string) *Node {
	return &Node{Kind: ScalarKind, Value: value}
}

// Mapping creates a mapping node with the given entries.
// Entries are kept in the order given; callers are responsible for key
// uniqueness.
func Mapping(entries ...Entry) *Node {
	return &Node{Kind: MappingKind, Entries: entries}
}

// Sequence creates a sequence node.
func Sequence(items ...*Node) *Node {
	return &Node{Kind: SequenceKind, Items: items}
}

// IsMapping reports whether n is a mapping node.
func (n *Node) IsMapping() bool {
	return n != nil && n.Kind == MappingKind
}

// IsScalar reports whether n is a scalar node.
func (n *Node) IsScalar() bool {
	return n != nil && n.Kind == ScalarKind
}

// Len returns the number of children of a mapping or sequence node.
// Scalars have no children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case MappingKind:
		return len(n.Entries)
	case SequenceKind:
		return len(n.Items)
	default:
		return 0
	}
}

// Get returns the child of a mapping node with the given key.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMapping() {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Node, true
		}
	}
	return nil, false
}

// Set binds key to child in a mapping node. An existing child with the same
// key is replaced in place so the mapping keeps its original ordering.
// Set is a no-op on non-mapping nodes.
func (n *Node) Set(key string, child *Node) {
	if !n.IsMapping() {
		return
	}
	for i := range n.Entries {
		if n.Entries[i].Key == key {
			n.Entries[i].Node = child
			return
		}
	}
	n.Entries = append(n.Entries, Entry{Key: key, Node: child})
}

// Keys returns the keys of a mapping node in order.
func (n *Node) Keys() []string {
	if !n.IsMapping() {
		return nil
	}
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}

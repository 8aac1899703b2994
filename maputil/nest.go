// Package maputil converts between the flat dotted-key model of a
// properties file and the nested node tree of a YAML document.
//
// Nest and Flatten are inverse operations: for every flat map m that Nest
// accepts, Flatten(Nest(m)) holds the same entries as m. The reverse does
// not hold for trees containing empty mappings, which have no flat form.
package maputil

import (
	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/dotkey"
	"github.com/yacchi/propyaml/flatmap"
)

// Nest builds a mapping tree from a flat map.
//
// Entries are processed in the map's iteration order and mapping children
// keep the order in which they were first created. A key whose prefix is
// already bound to a scalar, or a key that names an existing mapping,
// fails with *document.CollisionError naming both keys. Keys with empty
// segments fail with *document.InvalidKeyError.
//
// Example:
//
//	m := flatmap.FromPairs("a.b.c", "1", "a.b.d", "2")
//	root, _ := Nest(m)  // a: {b: {c: "1", d: "2"}}
func Nest(m *flatmap.Map) (*document.Node, error) {
	root := document.Mapping()
	if m == nil {
		return root, nil
	}

	for key, value := range m.All() {
		if err := dotkey.Validate(key); err != nil {
			return nil, &document.InvalidKeyError{Key: key, Reason: err.Error()}
		}
		if err := setLeaf(root, key, value); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// setLeaf walks or creates the mappings along key and binds the final
// segment to a scalar.
func setLeaf(root *document.Node, key, value string) error {
	segs := dotkey.Split(key)
	current := root

	for i, seg := range segs[:len(segs)-1] {
		next, ok := current.Get(seg)
		if !ok {
			next = document.Mapping()
			current.Set(seg, next)
		} else if next.IsScalar() {
			conflict := dotkey.Join(segs[:i+1]...)
			return document.Collision(key, conflict, conflict+" is already bound to a scalar")
		}
		current = next
	}

	last := segs[len(segs)-1]
	if existing, ok := current.Get(last); ok && existing.IsMapping() {
		return document.Collision(key, firstLeafKey(key, existing), key+" already has nested keys")
	}
	current.Set(last, document.Scalar(value))
	return nil
}

// firstLeafKey returns the dotted key of the first scalar below n.
// Mappings built by Nest always end in a scalar, so the walk terminates
// at a leaf; prefix is returned unchanged if it does not.
func firstLeafKey(prefix string, n *document.Node) string {
	for n.IsMapping() && len(n.Entries) > 0 {
		e := n.Entries[0]
		prefix = dotkey.Append(prefix, e.Key)
		n = e.Node
	}
	return prefix
}

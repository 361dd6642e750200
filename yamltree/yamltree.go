// Package yamltree stores parsed YAML documents as region object graphs.
//
// A document becomes a graph of region-resident nodes: scalars hold their
// value as a region string, sequences hold a vector of node references,
// mappings hold an insertion-ordered dictionary keyed by scalar text. The
// whole document therefore inherits the region's properties: it relocates
// as raw bytes, snapshots without serialization, and maps from a file.
//
// Anchors and aliases are preserved structurally: an alias resolves to the
// same region node as its anchor. Marshalling expands them. Only scalar
// mapping keys are supported.
package yamltree

import (
	"errors"
	"fmt"
	"iter"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/regio"
)

// Kind discriminates node shapes.
type Kind uint8

const (
	// KindScalar is a leaf holding a text value.
	KindScalar Kind = iota + 1
	// KindSequence is an ordered list of nodes.
	KindSequence
	// KindMapping is an insertion-ordered dictionary of scalar keys to
	// nodes.
	KindMapping
)

// ErrUnsupportedKey is returned for mappings with non-scalar keys.
var ErrUnsupportedKey = errors.New("yamltree: mapping keys must be scalars")

var hasher = regio.StringHasher{}

// Node is one YAML node resident in a region. Exactly one of the shape
// fields is populated, selected by kind.
type Node struct {
	kind  Kind
	tag   regio.StringRef
	value regio.StringRef
	items regio.Vector[regio.Off[Node]]
	pairs regio.OrderedMap[regio.StringRef, regio.Off[Node]]
}

// Document is the region root: a reference to the top-level node, which is
// unset for an empty document.
type Document struct {
	root regio.Off[Node]
}

// Load parses YAML and builds a fresh heap-backed region holding it. The
// region is sized generously relative to the input; use Import to target an
// existing (for example file-backed) region instead.
func Load(data []byte, opts ...regio.Option) (*regio.Region, error) {
	reserve := len(data)*16 + 4096

	rg, err := regio.Create[Document](reserve, opts...)
	if err != nil {
		return nil, err
	}

	var yn yaml.Node
	if err := yaml.Unmarshal(data, &yn); err != nil {
		_ = rg.Close()
		return nil, fmt.Errorf("yamltree: parse: %w", err)
	}

	if err := Import(rg, &yn); err != nil {
		_ = rg.Close()
		return nil, err
	}
	return rg, nil
}

// Import builds the document graph for yn inside rg, which must have been
// created with root type Document. Node contents are written through raw
// pointers, so file-backed regions should be flushed with FlushFull.
func Import(rg *regio.Region, yn *yaml.Node) error {
	root, err := regio.Root[Document](rg)
	if err != nil {
		return err
	}

	// A zero node is what an empty input decodes to.
	if yn.Kind == 0 {
		root.Get().root = regio.Off[Node]{}
		return nil
	}
	if yn.Kind == yaml.DocumentNode {
		if len(yn.Content) == 0 {
			root.Get().root = regio.Off[Node]{}
			return nil
		}
		yn = yn.Content[0]
	}

	seen := make(map[*yaml.Node]regio.Off[Node])
	off, err := importNode(rg, yn, seen)
	if err != nil {
		return err
	}
	root.Get().root = off

	return nil
}

func importNode(rg *regio.Region, yn *yaml.Node, seen map[*yaml.Node]regio.Off[Node]) (regio.Off[Node], error) {
	if yn.Kind == yaml.AliasNode {
		yn = yn.Alias
	}
	if off, ok := seen[yn]; ok {
		return off, nil
	}

	h, err := regio.Alloc[Node](rg)
	if err != nil {
		return regio.Off[Node]{}, err
	}
	n := h.Get()
	seen[yn] = h.Off()

	if yn.Tag != "" {
		if n.tag, err = regio.NewStringRef(rg, yn.Tag); err != nil {
			return regio.Off[Node]{}, err
		}
	}

	switch yn.Kind {
	case yaml.ScalarNode:
		n.kind = KindScalar
		if n.value, err = regio.NewStringRef(rg, yn.Value); err != nil {
			return regio.Off[Node]{}, err
		}

	case yaml.SequenceNode:
		n.kind = KindSequence
		for _, child := range yn.Content {
			off, err := importNode(rg, child, seen)
			if err != nil {
				return regio.Off[Node]{}, err
			}
			if err := n.items.PushBack(rg, off); err != nil {
				return regio.Off[Node]{}, err
			}
		}

	case yaml.MappingNode:
		n.kind = KindMapping
		for i := 0; i+1 < len(yn.Content); i += 2 {
			key := yn.Content[i]
			if key.Kind != yaml.ScalarNode {
				return regio.Off[Node]{}, ErrUnsupportedKey
			}
			keyRef, err := regio.NewStringRef(rg, key.Value)
			if err != nil {
				return regio.Off[Node]{}, err
			}
			off, err := importNode(rg, yn.Content[i+1], seen)
			if err != nil {
				return regio.Off[Node]{}, err
			}
			if err := n.pairs.Put(rg, hasher, keyRef, off); err != nil {
				return regio.Off[Node]{}, err
			}
		}

	default:
		return regio.Off[Node]{}, fmt.Errorf("yamltree: unsupported node kind %d", yn.Kind)
	}

	return h.Off(), nil
}

// Marshal renders the document back to YAML text. Nodes shared through
// anchors are expanded at each reference.
func Marshal(rg *regio.Region) ([]byte, error) {
	root, err := RootNode(rg)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return []byte{}, nil
	}

	yn, err := exportNode(rg, root)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(yn)
}

func exportNode(rg *regio.Region, n *Node) (*yaml.Node, error) {
	yn := &yaml.Node{}
	if s := n.tag.In(rg); s != nil {
		yn.Tag = s.String()
	}

	switch n.kind {
	case KindScalar:
		yn.Kind = yaml.ScalarNode
		if s := n.value.In(rg); s != nil {
			yn.Value = s.String()
		}

	case KindSequence:
		yn.Kind = yaml.SequenceNode
		for _, off := range n.items.All() {
			child, err := exportNode(rg, off.In(rg))
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, child)
		}

	case KindMapping:
		yn.Kind = yaml.MappingNode
		for key, off := range n.pairs.All() {
			k := &yaml.Node{Kind: yaml.ScalarNode}
			if s := key.In(rg); s != nil {
				k.Value = s.String()
			}
			child, err := exportNode(rg, off.In(rg))
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, k, child)
		}

	default:
		return nil, fmt.Errorf("yamltree: corrupt node kind %d", n.kind)
	}

	return yn, nil
}

// RootNode returns the document's top-level node, or nil for an empty
// document.
func RootNode(rg *regio.Region) (*Node, error) {
	root, err := regio.Root[Document](rg)
	if err != nil {
		return nil, err
	}
	return root.Get().root.In(rg), nil
}

// Kind returns the node's shape.
func (n *Node) Kind() Kind {
	return n.kind
}

// Tag returns the node's resolved YAML tag ("!!str", "!!int", ...).
func (n *Node) Tag(rg *regio.Region) string {
	if s := n.tag.In(rg); s != nil {
		return s.String()
	}
	return ""
}

// Value returns a scalar's text, or "" for non-scalars.
func (n *Node) Value(rg *regio.Region) string {
	if s := n.value.In(rg); s != nil {
		return s.String()
	}
	return ""
}

// Len returns the element count of a sequence or mapping, zero for scalars.
func (n *Node) Len() int {
	switch n.kind {
	case KindSequence:
		return n.items.Len()
	case KindMapping:
		return n.pairs.Len()
	default:
		return 0
	}
}

// Item returns the i-th element of a sequence.
func (n *Node) Item(rg *regio.Region, i int) (*Node, error) {
	off, err := n.items.At(i)
	if err != nil {
		return nil, err
	}
	return off.In(rg), nil
}

// Get looks a mapping entry up by key text.
func (n *Node) Get(rg *regio.Region, key string) (*Node, bool) {
	off, ok := regio.Lookup(&n.pairs, rg, regio.StringProbe{}, key)
	if !ok {
		return nil, false
	}
	return off.In(rg), true
}

// Items iterates a sequence's elements in order.
func (n *Node) Items(rg *regio.Region) iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		for i, off := range n.items.All() {
			if !yield(i, off.In(rg)) {
				return
			}
		}
	}
}

// Pairs iterates a mapping's entries in insertion order.
func (n *Node) Pairs(rg *regio.Region) iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for key, off := range n.pairs.All() {
			k := ""
			if s := key.In(rg); s != nil {
				k = s.String()
			}
			if !yield(k, off.In(rg)) {
				return
			}
		}
	}
}

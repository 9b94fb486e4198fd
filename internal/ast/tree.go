package ast

import (
	"github.com/refu-lang/refu-sub002/internal/source"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// Node is one syntax tree element. The wire fields come from the parser;
// Type and State are filled in by analysis.
type Node struct {
	Kind     Kind            `msgpack:"k"`
	Span     source.Span     `msgpack:"s"`
	Children []NodeID        `msgpack:"c,omitempty"`
	Name     source.StringID `msgpack:"n,omitempty"`
	Bin      BinaryOp        `msgpack:"b,omitempty"`
	Un       UnaryOp         `msgpack:"u,omitempty"`
	TypeOp   types.Op        `msgpack:"o,omitempty"`
	Int      uint64          `msgpack:"i,omitempty"`
	Float    float64         `msgpack:"f,omitempty"`
	Bool     bool            `msgpack:"t,omitempty"`
	Str      string          `msgpack:"l,omitempty"`
	Dims     []uint64        `msgpack:"d,omitempty"`

	Type  types.TypeID `msgpack:"-"`
	State State        `msgpack:"-"`
}

// Tree owns the nodes of one compilation unit and the names they use.
type Tree struct {
	Nodes   *Arena[Node]
	Strings *source.Interner
	Root    NodeID
}

func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Tree{
		Nodes:   NewArena[Node](capHint),
		Strings: source.NewInterner(),
	}
}

func (t *Tree) New(n Node) NodeID {
	return NodeID(t.Nodes.Allocate(n))
}

func (t *Tree) Get(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Len() uint32 { return t.Nodes.Len() }

// Kind returns KindInvalid for absent nodes.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

// Name resolves the node's interned name.
func (t *Tree) Name(id NodeID) string {
	n := t.Get(id)
	if n == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(n.Name)
	return s
}

// Child returns the i-th child or NoNodeID.
func (t *Tree) Child(id NodeID, i int) NodeID {
	n := t.Get(id)
	if n == nil || i < 0 || i >= len(n.Children) {
		return NoNodeID
	}
	return n.Children[i]
}

// ChildrenOf returns the children of kind k in order.
func (t *Tree) ChildrenOf(id NodeID, k Kind) []NodeID {
	n := t.Get(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for _, c := range n.Children {
		if t.Kind(c) == k {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tree) Span(id NodeID) source.Span {
	if n := t.Get(id); n != nil {
		return n.Span
	}
	return source.Span{}
}

// SetType records the resolved type of a node.
func (t *Tree) SetType(id NodeID, ty types.TypeID) {
	if n := t.Get(id); n != nil {
		n.Type = ty
	}
}

func (t *Tree) TypeOf(id NodeID) types.TypeID {
	if n := t.Get(id); n != nil {
		return n.Type
	}
	return types.NoTypeID
}

// Advance moves the node's state forward. It never moves backwards.
func (t *Tree) Advance(id NodeID, s State) {
	if n := t.Get(id); n != nil && n.State < s {
		n.State = s
	}
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID, *Node) bool) {
	n := t.Get(id)
	if n == nil {
		return
	}
	if !fn(id, n) {
		return
	}
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

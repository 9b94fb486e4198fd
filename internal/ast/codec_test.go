package ast

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/refu-lang/refu-sub002/internal/source"
)

func sampleTree() *Tree {
	b := NewBuilder(0)
	b.At(source.Span{File: 1, Start: 0, End: 4})
	shape := b.TypeDecl("Shape", b.TypeDesc(b.Sum(b.TypeRef("i32"), b.Leaf("name", b.TypeRef("string")))))
	body := b.Block(
		b.Var("xs", b.ArraySpec(b.TypeRef("u8"), 3), NoNodeID),
		b.For("x", b.Ident("xs"), b.Block(b.Call("print", b.String("hi")))),
		b.Return(b.Binary(BinAdd, b.Int(1), b.Float(2.5))),
	)
	main := b.FnImpl(b.FnDecl("main", NoNodeID, b.TypeRef("u32")), body)
	b.Root("app", shape, main)
	return b.Tree
}

func TestEncodeDecodeKeepsStructure(t *testing.T) {
	tree := sampleTree()
	var buf bytes.Buffer
	if err := Encode(&buf, tree); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Len() != tree.Len() || got.Root != tree.Root {
		t.Fatalf("len/root = %d/%d, want %d/%d", got.Len(), got.Root, tree.Len(), tree.Root)
	}
	for id := NodeID(1); uint32(id) <= tree.Len(); id++ {
		a, b := tree.Get(id), got.Get(id)
		if a.Kind != b.Kind || tree.Name(id) != got.Name(id) || len(a.Children) != len(b.Children) ||
			a.Str != b.Str || a.Int != b.Int || a.Float != b.Float || a.Span != b.Span {
			t.Fatalf("node %d differs: %+v vs %+v", id, a, b)
		}
	}
}

func TestDecodeRejectsDanglingChild(t *testing.T) {
	doc := File{Version: FileVersion, Strings: []string{""}, Nodes: []Node{{Kind: KindBlock, Children: []NodeID{7}}}, Root: 1}
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrBadChild) {
		t.Fatalf("err = %v, want ErrBadChild", err)
	}

	doc.Version = 9
	data, _ = msgpack.Marshal(&doc)
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}

func TestWalkAndState(t *testing.T) {
	tree := sampleTree()
	var fors int
	tree.Walk(tree.Root, func(id NodeID, n *Node) bool {
		if n.Kind == KindFor {
			fors++
			if tree.Name(id) != "x" {
				t.Fatalf("loop var = %q", tree.Name(id))
			}
		}
		return n.Kind != KindTypeDecl
	})
	if fors != 1 {
		t.Fatalf("found %d for loops", fors)
	}
	tree.Advance(tree.Root, StateTypeChecked)
	tree.Advance(tree.Root, StateSymbolsDone)
	if tree.Get(tree.Root).State != StateTypeChecked {
		t.Fatalf("state moved backwards")
	}
}

package ast

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/refu-lang/refu-sub002/internal/source"
)

// FileVersion is the schema version of the parser handoff document.
const FileVersion = 1

var (
	ErrVersion  = errors.New("ast: unsupported tree version")
	ErrBadChild = errors.New("ast: child id out of range")
)

// File is the msgpack document exchanged with the parser.
type File struct {
	Version uint16   `msgpack:"v"`
	Strings []string `msgpack:"strings"`
	Nodes   []Node   `msgpack:"nodes"`
	Root    NodeID   `msgpack:"root"`
}

// Encode writes tree as a handoff document.
func Encode(w io.Writer, tree *Tree) error {
	doc := File{
		Version: FileVersion,
		Strings: tree.Strings.Snapshot(),
		Nodes:   tree.Nodes.Slice(),
		Root:    tree.Root,
	}
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.UseCompactInts(true)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return bw.Flush()
}

// Decode reads a handoff document and checks that every child id resolves.
func Decode(r io.Reader) (*Tree, error) {
	var doc File
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if doc.Version != FileVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	tree := &Tree{
		Nodes:   NewArena[Node](uint(len(doc.Nodes))),
		Strings: source.InternerFrom(doc.Strings),
	}
	limit := len(doc.Nodes)
	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if int(c) > limit {
				return nil, fmt.Errorf("%w: node %d references %d", ErrBadChild, i+1, c)
			}
		}
		if _, ok := tree.Strings.Lookup(doc.Nodes[i].Name); !ok {
			return nil, fmt.Errorf("ast: node %d names unknown string %d", i+1, doc.Nodes[i].Name)
		}
		tree.New(doc.Nodes[i])
	}
	if int(doc.Root) > limit {
		return nil, fmt.Errorf("%w: root %d", ErrBadChild, doc.Root)
	}
	tree.Root = doc.Root
	return tree, nil
}

// ReadFile decodes a tree stored at path.
func ReadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

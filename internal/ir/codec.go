package ir

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// WireVersion is the schema version of the binary IR document.
const WireVersion = 1

var ErrVersion = errors.New("ir: unsupported document version")

type wireGlobal struct {
	Name    string `msgpack:"n"`
	Type    Type   `msgpack:"t"`
	Literal string `msgpack:"l"`
}

type wireTypedef struct {
	Name   string `msgpack:"n"`
	Union  bool   `msgpack:"u,omitempty"`
	Fields []Type `msgpack:"f"`
}

type wireBlock struct {
	Label string  `msgpack:"l"`
	Exprs []*Expr `msgpack:"e,omitempty"`
	Exit  Exit    `msgpack:"x"`
}

type wireFunc struct {
	Name   string      `msgpack:"n"`
	Args   []Type      `msgpack:"a,omitempty"`
	Ret    Type        `msgpack:"r"`
	Blocks []wireBlock `msgpack:"b,omitempty"`
}

type wireModule struct {
	Version  uint16        `msgpack:"v"`
	Name     string        `msgpack:"name"`
	Globals  []wireGlobal  `msgpack:"globals,omitempty"`
	Typedefs []wireTypedef `msgpack:"typedefs,omitempty"`
	Decls    []wireFunc    `msgpack:"decls,omitempty"`
	Funcs    []wireFunc    `msgpack:"funcs,omitempty"`
}

func toWireFunc(f *Function) wireFunc {
	wf := wireFunc{Name: f.Name, Args: f.Args, Ret: f.Ret}
	for _, b := range f.Blocks {
		wb := wireBlock{Label: b.Label, Exit: b.Exit}
		for _, o := range b.Exprs {
			wb.Exprs = append(wb.Exprs, o.Expr)
		}
		wf.Blocks = append(wf.Blocks, wb)
	}
	return wf
}

// EncodeModule writes m as a msgpack document.
func EncodeModule(w io.Writer, m *Module) error {
	doc := wireModule{Version: WireVersion, Name: m.Name}
	for _, g := range m.Globals {
		doc.Globals = append(doc.Globals, wireGlobal{Name: g.Name, Type: g.Type, Literal: g.Literal})
	}
	for _, td := range m.Typedefs {
		doc.Typedefs = append(doc.Typedefs, wireTypedef{Name: td.Name, Union: td.Union, Fields: td.Fields})
	}
	for _, f := range m.Decls {
		doc.Decls = append(doc.Decls, toWireFunc(f))
	}
	for _, f := range m.Funcs {
		doc.Funcs = append(doc.Funcs, toWireFunc(f))
	}
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.UseCompactInts(true)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode module %s: %w", m.Name, err)
	}
	return bw.Flush()
}

// DecodeModule reads a document written by EncodeModule and rebuilds the
// module through the same assembly paths the text parser uses.
func DecodeModule(r io.Reader) (*Module, error) {
	var doc wireModule
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	if doc.Version != WireVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	m := NewModule(doc.Name)
	for _, g := range doc.Globals {
		if _, err := m.AddGlobal(g.Name, g.Type, g.Literal); err != nil {
			return nil, err
		}
	}
	for _, td := range doc.Typedefs {
		if _, err := m.AddTypedef(td.Name, td.Union, td.Fields); err != nil {
			return nil, err
		}
	}
	for _, wf := range doc.Decls {
		if _, err := m.DeclareFunction(wf.Name, wf.Args, wf.Ret); err != nil {
			return nil, err
		}
	}
	defs := make([]*Function, len(doc.Funcs))
	for i, wf := range doc.Funcs {
		f, err := m.DefineFunction(wf.Name, wf.Args, wf.Ret)
		if err != nil {
			return nil, err
		}
		defs[i] = f
	}
	for i, wf := range doc.Funcs {
		if err := decodeBody(m, defs[i], wf.Blocks); err != nil {
			return nil, fmt.Errorf("decode %s: %w", wf.Name, err)
		}
	}
	return m, nil
}

func decodeBody(m *Module, f *Function, blocks []wireBlock) error {
	vars := make(map[string]Value)
	for _, o := range f.Params {
		vars[o.Var.Name] = *o.Var
	}
	if f.RetSlot != nil {
		vars[f.RetSlot.Var.Name] = *f.RetSlot.Var
	}
	byLabel := make(map[string]*Block, len(blocks))
	placed := make([]*Block, len(blocks))
	for i, wb := range blocks {
		if _, dup := byLabel[wb.Label]; dup {
			return fmt.Errorf("label %%%s: %w", wb.Label, ErrDuplicateObject)
		}
		placed[i] = m.NewBlock(f, wb.Label)
		byLabel[wb.Label] = placed[i]
	}
	bind := func(v Value) (Value, error) {
		if !v.IsVariable() {
			return v, nil
		}
		if got, ok := vars[v.Name]; ok {
			return got, nil
		}
		if g, ok := m.Global(v.Name); ok {
			return g.Value(), nil
		}
		return Value{}, fmt.Errorf("%s: %w", v, ErrUnresolved)
	}
	target := func(label string) (*Block, error) {
		b, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("label %%%s: %w", label, ErrUnresolved)
		}
		return b, nil
	}
	for i, wb := range blocks {
		b := placed[i]
		if err := m.Place(f, b); err != nil {
			return err
		}
		for _, e := range wb.Exprs {
			name := ""
			if e.HasValue() {
				name = e.Val.Name
			}
			for j, a := range e.Args {
				v, err := bind(a)
				if err != nil {
					return err
				}
				e.Args[j] = v
			}
			v, err := m.emit(f, b, e, name)
			if err != nil {
				return err
			}
			if v.IsVariable() {
				vars[v.Name] = v
			}
		}
		var err error
		switch x := wb.Exit; x.Kind {
		case ExitBranch:
			var dst *Block
			if dst, err = target(x.Target); err == nil {
				err = b.Branch(dst)
			}
		case ExitCondBranch:
			var cond Value
			var taken, fall *Block
			if cond, err = bind(x.Cond); err != nil {
				return err
			}
			if taken, err = target(x.Target); err != nil {
				return err
			}
			if fall, err = target(x.Fallthrough); err != nil {
				return err
			}
			err = b.CondBranch(cond, taken, fall)
		case ExitReturn:
			var v Value
			if v, err = bind(x.Value); err == nil {
				err = b.Return(v)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

package ir

import (
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/types"
)

// Typedef is a named struct (fields laid out in order) or union.
type Typedef struct {
	Name   string
	Union  bool
	Fields []Type
	Object ObjectID
}

// Global is a module-level constant, such as an interned string literal.
type Global struct {
	Name    string
	Type    Type
	Literal string
	Object  ObjectID
}

func (g *Global) Value() Value {
	return Value{Category: ValVariable, Type: g.Type, Name: g.Name, Object: g.Object}
}

// Module is the lowered form of one compilation unit.
type Module struct {
	Name     string
	Objects  *Objects
	Resolver *Resolver
	Typedefs []*Typedef
	Globals  []*Global
	Decls    []*Function
	Funcs    []*Function

	typedefs map[string]*Typedef
	globals  map[string]*Global
	strings  map[string]*Global
	funcs    map[string]*Function
}

func NewModule(name string) *Module {
	return &Module{
		Name:     name,
		Objects:  NewObjects(0),
		Resolver: NewResolver(),
		typedefs: make(map[string]*Typedef),
		globals:  make(map[string]*Global),
		strings:  make(map[string]*Global),
		funcs:    make(map[string]*Function),
	}
}

// AddTypedef registers a typedef and binds its name at module level.
func (m *Module) AddTypedef(name string, union bool, fields []Type) (*Typedef, error) {
	if _, ok := m.typedefs[name]; ok {
		return nil, fmt.Errorf("typedef %q: %w", name, ErrDuplicateObject)
	}
	o := m.Objects.New(ObjTypeDef)
	td := &Typedef{Name: name, Union: union, Fields: fields, Object: o.ID}
	o.Typedef = td
	if err := m.bindGlobal(name, o.ID); err != nil {
		m.Objects.Destroy(o.ID, nil)
		return nil, err
	}
	m.typedefs[name] = td
	m.Typedefs = append(m.Typedefs, td)
	return td, nil
}

func (m *Module) Typedef(name string) (*Typedef, bool) {
	td, ok := m.typedefs[name]
	return td, ok
}

// AddGlobal registers a global value.
func (m *Module) AddGlobal(name string, t Type, literal string) (*Global, error) {
	if _, ok := m.globals[name]; ok {
		return nil, fmt.Errorf("global %q: %w", name, ErrDuplicateObject)
	}
	o := m.Objects.New(ObjGlobal)
	g := &Global{Name: name, Type: t, Literal: literal, Object: o.ID}
	o.Global = g
	if err := m.bindGlobal(name, o.ID); err != nil {
		m.Objects.Destroy(o.ID, nil)
		return nil, err
	}
	m.globals[name] = g
	m.Globals = append(m.Globals, g)
	if t.Elem == types.ElemString && !t.Pointer {
		if _, ok := m.strings[literal]; !ok {
			m.strings[literal] = g
		}
	}
	return g, nil
}

func (m *Module) Global(name string) (*Global, bool) {
	g, ok := m.globals[name]
	return g, ok
}

// bindGlobal binds at module level even while a function is active.
func (m *Module) bindGlobal(name string, id ObjectID) error {
	if _, ok := m.Resolver.global.names[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateObject)
	}
	m.Resolver.global.names[name] = id
	return nil
}

// DeclareFunction adds a foreign function declaration.
func (m *Module) DeclareFunction(name string, args []Type, ret Type) (*Function, error) {
	if _, ok := m.funcs[name]; ok {
		return nil, fmt.Errorf("function %q: %w", name, ErrDuplicateObject)
	}
	f := newFunction(name, args, ret, true)
	m.funcs[name] = f
	m.Decls = append(m.Decls, f)
	return f, nil
}

// DefineFunction adds a function with a body. Its argument variables and
// return slot are created immediately.
func (m *Module) DefineFunction(name string, args []Type, ret Type) (*Function, error) {
	if _, ok := m.funcs[name]; ok {
		return nil, fmt.Errorf("function %q: %w", name, ErrDuplicateObject)
	}
	f := newFunction(name, args, ret, false)
	for _, a := range args {
		f.Params = append(f.Params, m.newVariable(f, a))
	}
	if !ret.IsNil() {
		f.RetSlot = m.newVariable(f, ret.PointerTo())
	}
	m.funcs[name] = f
	m.Funcs = append(m.Funcs, f)
	return f, nil
}

func (m *Module) newVariable(f *Function, t Type) *Object {
	o := m.Objects.New(ObjVariable)
	o.Var = &Value{Category: ValVariable, Type: t, Name: f.varName(), Object: o.ID}
	return o
}

// Function finds a declared or defined function.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.funcs[name]
	return f, ok
}

// NewBlock creates an unplaced block of f. An empty label gets a fresh
// label_N name.
func (m *Module) NewBlock(f *Function, label string) *Block {
	if label == "" {
		label = f.labelName()
	}
	o := m.Objects.New(ObjBlock)
	b := &Block{Label: label, Object: o.ID}
	o.Block = b
	return b
}

// Place appends b to f's block list. A block that cannot be placed is
// destroyed.
func (m *Module) Place(f *Function, b *Block) error {
	if _, ok := f.byLabel[b.Label]; ok {
		m.Objects.Destroy(b.Object, m.Resolver)
		return fmt.Errorf("%s: label %%%s: %w", f.Name, b.Label, ErrDuplicateObject)
	}
	b.Scope = m.Resolver.Current()
	f.byLabel[b.Label] = b
	f.Blocks = append(f.Blocks, b)
	return nil
}

// SizeOf is the storage size of t in bytes. Strings are a length and a
// data pointer.
func (m *Module) SizeOf(t Type) (uint64, error) {
	return m.sizeOf(t, 0)
}

func (m *Module) sizeOf(t Type, depth int) (uint64, error) {
	if depth > len(m.Typedefs)+1 {
		return 0, fmt.Errorf("typedef %q contains itself", t.Name)
	}
	var size uint64
	switch {
	case t.Pointer:
		return 8, nil
	case t.Elem == types.ElemString:
		size = 16
	case t.Elem != types.ElemInvalid:
		size = uint64(t.Elem.Bits() / 8)
	default:
		td, ok := m.typedefs[t.Name]
		if !ok {
			return 0, fmt.Errorf("unknown typedef %q", t.Name)
		}
		s, err := m.byteSize(td, depth+1)
		if err != nil {
			return 0, err
		}
		size = s
	}
	for _, d := range t.Dims {
		size *= d
	}
	return size, nil
}

// ByteSize is the size of a typedef: the sum of its fields for a struct,
// the largest member plus a 4 byte variant index for a union.
func (m *Module) ByteSize(td *Typedef) (uint64, error) {
	return m.byteSize(td, 0)
}

func (m *Module) byteSize(td *Typedef, depth int) (uint64, error) {
	var total uint64
	for _, f := range td.Fields {
		s, err := m.sizeOf(f, depth)
		if err != nil {
			return 0, fmt.Errorf("typedef %s: %w", td.Name, err)
		}
		if td.Union {
			total = max(total, s)
		} else {
			total += s
		}
	}
	if td.Union {
		total += 4
	}
	return total, nil
}

// Teardown releases every object of the module.
func (m *Module) Teardown() int {
	m.Resolver = NewResolver()
	return m.Objects.Teardown()
}

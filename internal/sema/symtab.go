package sema

import (
	"errors"
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// ErrDuplicateSymbol is returned when a scope already holds the name.
var ErrDuplicateSymbol = errors.New("symbol already declared in this scope")

// SymbolKind tells what a name denotes.
type SymbolKind uint8

const (
	SymVar SymbolKind = iota + 1
	SymArg
	SymLoopVar
	SymBinding
	SymFunc
	SymType
	SymGeneric
	SymTypeclass
)

func (k SymbolKind) String() string {
	switch k {
	case SymVar:
		return "variable"
	case SymArg:
		return "argument"
	case SymLoopVar:
		return "loop variable"
	case SymBinding:
		return "match binding"
	case SymFunc:
		return "function"
	case SymType:
		return "type"
	case SymGeneric:
		return "generic parameter"
	case SymTypeclass:
		return "typeclass"
	default:
		return fmt.Sprintf("SymbolKind(%d)", k)
	}
}

// IsValue holds for symbols that name runtime values.
func (k SymbolKind) IsValue() bool {
	return k >= SymVar && k <= SymBinding
}

type Symbol struct {
	Name string
	Kind SymbolKind
	Type types.TypeID
	Decl ast.NodeID
	Func *Func // SymFunc
}

// ScopeKind names what opened a scope.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota + 1
	ScopeFunction
	ScopeBlock
	ScopeLoop
	ScopeCase
	ScopeGenerics
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	case ScopeCase:
		return "case"
	case ScopeGenerics:
		return "generics"
	default:
		return fmt.Sprintf("ScopeKind(%d)", k)
	}
}

// Scope maps names to symbols and chains to its lexical parent.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	Owner  ast.NodeID
	names  map[string]*Symbol
	order  []*Symbol
}

func NewScope(kind ScopeKind, parent *Scope, owner ast.NodeID) *Scope {
	return &Scope{Kind: kind, Parent: parent, Owner: owner, names: make(map[string]*Symbol)}
}

// Declare adds sym unless this scope already holds its name.
func (s *Scope) Declare(sym *Symbol) error {
	if prev, ok := s.names[sym.Name]; ok {
		return fmt.Errorf("%w: %q (previous %s)", ErrDuplicateSymbol, sym.Name, prev.Kind)
	}
	s.names[sym.Name] = sym
	s.order = append(s.order, sym)
	return nil
}

// LookupLocal checks this scope only.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.names[name]
	return sym, ok
}

// Lookup walks the parent chain.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Symbols lists declarations in declaration order.
func (s *Scope) Symbols() []*Symbol {
	return append([]*Symbol(nil), s.order...)
}

// SymbolTable keeps the module scope and the scope opened by each node.
type SymbolTable struct {
	Global *Scope
	byNode map[ast.NodeID]*Scope
}

func NewSymbolTable(root ast.NodeID) *SymbolTable {
	return &SymbolTable{
		Global: NewScope(ScopeModule, nil, root),
		byNode: make(map[ast.NodeID]*Scope),
	}
}

// Open creates a child scope owned by node.
func (t *SymbolTable) Open(kind ScopeKind, parent *Scope, owner ast.NodeID) *Scope {
	s := NewScope(kind, parent, owner)
	if owner.IsValid() {
		t.byNode[owner] = s
	}
	return s
}

// ScopeOf returns the scope opened by node, if any.
func (t *SymbolTable) ScopeOf(node ast.NodeID) (*Scope, bool) {
	s, ok := t.byNode[node]
	return s, ok
}

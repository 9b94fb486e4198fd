package sema

import (
	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// Param is one named function argument.
type Param struct {
	Name string
	Type types.TypeID
}

// Func is a declared or implemented function.
type Func struct {
	Name     string
	Type     types.TypeID // implication args -> ret
	Params   []Param
	Ret      types.TypeID // ElemNil when nothing is returned
	Decl     ast.NodeID
	Impl     ast.NodeID // NoNodeID for declarations
	Generic  bool
	Foreign  bool   // declared here or provided by a dependency
	Module   string // owning module for imported declarations
	resolved bool
}

// Typeclass is a named set of method signatures over one generic parameter.
type Typeclass struct {
	Name    string
	Decl    ast.NodeID
	Param   string
	Methods []ast.NodeID // FnDecl nodes
}

// Instance implements a typeclass for a concrete type.
type Instance struct {
	Class  string
	Target types.TypeID
	Decl   ast.NodeID
	Impls  []*Func
}

// CaseInfo records what a match arm selects.
type CaseInfo struct {
	Index   int          // variant index, -1 for the wildcard
	Variant types.TypeID // variant type with leaves kept
	Pattern types.TypeID // resolved pattern; its leaf names are bound in the arm
}

// Callee is what a Call node invokes.
type Callee struct {
	Func        *Func
	Constructor types.TypeID // set when the callee names a product type
}

// Unit is the analysed form of one module.
type Unit struct {
	Name      string
	Tree      *ast.Tree
	Types     *types.Set
	Symbols   *SymbolTable
	Funcs     []*Func
	TypeDecls []types.TypeID
	Classes   map[string]*Typeclass
	Instances []*Instance
	Cases     map[ast.NodeID]CaseInfo
	Calls     map[ast.NodeID]Callee
	// Common is the type binary operators compute in, keyed by node.
	Common map[ast.NodeID]types.TypeID

	funcs  map[string]*Func
	result Result
}

// Func looks a function up by name.
func (u *Unit) Func(name string) (*Func, bool) {
	f, ok := u.funcs[name]
	return f, ok
}

// Result is the folded outcome of analysis.
func (u *Unit) Result() Result { return u.result }

// Failed reports whether any semantic error was recorded.
func (u *Unit) Failed() bool { return u.result.Failed() }

// Exports lists the functions a dependent module may call.
func (u *Unit) Exports() []*Func {
	out := make([]*Func, 0, len(u.Funcs))
	for _, f := range u.Funcs {
		if f.Module == "" || f.Module == u.Name {
			out = append(out, f)
		}
	}
	return out
}

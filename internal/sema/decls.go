package sema

import (
	"errors"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// importDeps copies dependency types and exposes their functions as foreign
// declarations.
func (c *checker) importDeps(deps []*Unit) Result {
	res := Continue
	global := c.unit.Symbols.Global
	for _, dep := range deps {
		remap, err := c.set.Import(dep.Types)
		if err != nil {
			return c.fatal(err)
		}
		for _, t := range dep.TypeDecls {
			nt := remap[t]
			c.unit.TypeDecls = append(c.unit.TypeDecls, nt)
			sym := &Symbol{Name: c.set.MustLookup(nt).Name, Kind: SymType, Type: nt}
			if err := global.Declare(sym); err != nil {
				res = res.Join(c.errorf(diag.SemaDuplicateDecl, c.tree.Root,
					"type %q from module %q is already declared", sym.Name, dep.Name))
			}
		}
		for _, f := range dep.Exports() {
			imported := &Func{
				Name:     f.Name,
				Type:     remap[f.Type],
				Ret:      remap[f.Ret],
				Generic:  f.Generic,
				Foreign:  true,
				Module:   dep.Name,
				resolved: true,
			}
			for _, p := range f.Params {
				imported.Params = append(imported.Params, Param{Name: p.Name, Type: remap[p.Type]})
			}
			res = res.Join(c.declareFunc(imported, c.tree.Root))
		}
	}
	return res
}

func (c *checker) declareFunc(f *Func, at ast.NodeID) Result {
	sym := &Symbol{Name: f.Name, Kind: SymFunc, Decl: f.Decl, Func: f}
	if err := c.unit.Symbols.Global.Declare(sym); err != nil {
		return c.errorf(diag.SemaDuplicateDecl, at, "function %q is already declared", f.Name)
	}
	c.unit.Funcs = append(c.unit.Funcs, f)
	c.unit.funcs[f.Name] = f
	return Continue
}

// collectSymbols declares every top-level name so that declarations may
// refer to each other regardless of order.
func (c *checker) collectSymbols() Result {
	res := Continue
	global := c.unit.Symbols.Global
	for _, item := range c.items() {
		name := c.tree.Name(item)
		switch c.tree.Kind(item) {
		case ast.KindImport:
			if _, ok := c.deps[name]; !ok && name != c.unit.Name {
				res = res.Join(c.errorf(diag.SemaUndeclared, item, "unknown module %q", name))
			}
		case ast.KindTypeDecl:
			sym := &Symbol{Name: name, Kind: SymType, Decl: item}
			if err := global.Declare(sym); err != nil {
				res = res.Join(c.duplicate(item, name, err))
			}
		case ast.KindFnDecl:
			res = res.Join(c.declareFunc(&Func{Name: name, Decl: item, Foreign: true}, item))
		case ast.KindFnImpl:
			decl := c.tree.Child(item, 0)
			if c.tree.Kind(decl) != ast.KindFnDecl {
				return c.fatal(errors.New("function implementation without declaration"))
			}
			res = res.Join(c.declareFunc(&Func{Name: c.tree.Name(decl), Decl: decl, Impl: item}, item))
		case ast.KindTypeclass:
			class := &Typeclass{Name: name, Decl: item, Methods: c.tree.ChildrenOf(item, ast.KindFnDecl)}
			if gens := c.tree.ChildrenOf(item, ast.KindGeneric); len(gens) > 0 {
				class.Param = c.tree.Name(gens[0])
			}
			if err := global.Declare(&Symbol{Name: name, Kind: SymTypeclass, Decl: item}); err != nil {
				res = res.Join(c.duplicate(item, name, err))
				continue
			}
			c.unit.Classes[name] = class
		case ast.KindTypeInstance:
			c.unit.Instances = append(c.unit.Instances, &Instance{Class: name, Decl: item})
		default:
			res = res.Join(c.errorf(diag.SemaError, item, "unexpected %s at module level", c.tree.Kind(item)))
			continue
		}
		c.tree.Advance(item, ast.StateSymbolsDone)
	}
	return res
}

func (c *checker) duplicate(node ast.NodeID, name string, err error) Result {
	if prev, ok := c.unit.Symbols.Global.LookupLocal(name); ok && prev.Decl.IsValid() {
		return c.errorNote(diag.SemaDuplicateDecl, node, "previous declaration here", c.tree.Span(prev.Decl),
			"%q is already declared", name)
	}
	return c.errorf(diag.SemaDuplicateDecl, node, "%v", err)
}

// resolveDecls assigns types to type declarations, function signatures and
// typeclass method signatures.
func (c *checker) resolveDecls() Result {
	res := Continue
	for _, sym := range c.unit.Symbols.Global.Symbols() {
		if sym.Kind != SymType {
			continue
		}
		if res = res.Join(c.resolveTypeDecl(sym)); res == Fatal {
			return res
		}
	}
	for _, f := range c.unit.Funcs {
		if res = res.Join(c.resolveFunc(f)); res == Fatal {
			return res
		}
	}
	for _, sym := range c.unit.Symbols.Global.Symbols() {
		class, ok := c.unit.Classes[sym.Name]
		if !ok || sym.Kind != SymTypeclass {
			continue
		}
		scope := c.genericScope(c.unit.Symbols.Global, class.Decl, c.tree.ChildrenOf(class.Decl, ast.KindGeneric))
		for _, m := range class.Methods {
			_, _, _, r := c.resolveSignature(scope, m)
			if res = res.Join(r); res == Fatal {
				return res
			}
		}
		c.tree.Advance(class.Decl, ast.StateTypeChecked)
	}
	return res
}

func (c *checker) resolveTypeDecl(sym *Symbol) Result {
	if sym.Type != types.NoTypeID || !sym.Decl.IsValid() {
		return Continue
	}
	if c.broken[sym] {
		return SoftError
	}
	if c.resolving[sym] {
		c.broken[sym] = true
		return c.errorf(diag.SemaError, sym.Decl, "type %q refers to itself", sym.Name)
	}
	c.resolving[sym] = true
	defer delete(c.resolving, sym)

	scope := c.genericScope(c.unit.Symbols.Global, sym.Decl, c.tree.ChildrenOf(sym.Decl, ast.KindGeneric))
	inner, r := c.resolveType(scope, c.tree.Child(sym.Decl, 0))
	if r.Failed() || inner == types.NoTypeID {
		c.broken[sym] = true
		return r.Join(SoftError)
	}
	id, r := c.intern(types.MakeDefined(sym.Name, inner))
	if r == Fatal {
		return r
	}
	sym.Type = id
	c.tree.SetType(sym.Decl, id)
	c.tree.Advance(sym.Decl, ast.StateTypeChecked)
	c.unit.TypeDecls = append(c.unit.TypeDecls, id)
	return Continue
}

// genericScope opens a scope declaring each generic parameter.
func (c *checker) genericScope(parent *Scope, owner ast.NodeID, generics []ast.NodeID) *Scope {
	if len(generics) == 0 {
		return parent
	}
	if s, ok := c.unit.Symbols.ScopeOf(owner); ok {
		return s
	}
	scope := c.unit.Symbols.Open(ScopeGenerics, parent, owner)
	for _, g := range generics {
		name := c.tree.Name(g)
		id, err := c.set.Generic(name)
		if err != nil {
			continue
		}
		c.tree.SetType(g, id)
		if err := scope.Declare(&Symbol{Name: name, Kind: SymGeneric, Type: id, Decl: g}); err != nil {
			c.errorf(diag.SemaDuplicateDecl, g, "generic parameter %q repeated", name)
		}
	}
	return scope
}

func (c *checker) resolveFunc(f *Func) Result {
	if f.resolved {
		return Continue
	}
	f.resolved = true
	generics := c.tree.ChildrenOf(f.Decl, ast.KindGeneric)
	f.Generic = len(generics) > 0
	scope := c.genericScope(c.unit.Symbols.Global, f.Decl, generics)
	params, ret, fnType, r := c.resolveSignature(scope, f.Decl)
	f.Params, f.Ret, f.Type = params, ret, fnType
	return r
}

// resolveSignature resolves a FnDecl node in scope.
func (c *checker) resolveSignature(scope *Scope, decl ast.NodeID) ([]Param, types.TypeID, types.TypeID, Result) {
	res := Continue
	args := c.nilType()
	if n := c.tree.Child(decl, 0); n.IsValid() {
		t, r := c.resolveType(scope, n)
		if res = res.Join(r); res == Fatal {
			return nil, 0, 0, res
		}
		args = t
	}
	ret := c.nilType()
	if n := c.tree.Child(decl, 1); n.IsValid() {
		t, r := c.resolveType(scope, n)
		if res = res.Join(r); res == Fatal {
			return nil, 0, 0, res
		}
		ret = t
	}
	if args == types.NoTypeID || ret == types.NoTypeID {
		return nil, ret, types.NoTypeID, res.Join(SoftError)
	}
	fnType, r := c.intern(types.MakeOperator(types.OpImplication, args, ret))
	if r == Fatal {
		return nil, 0, 0, r
	}
	c.tree.SetType(decl, fnType)
	c.tree.Advance(decl, ast.StateTypeChecked)
	return ParamsOf(c.set, args), ret, fnType, res
}

// ParamsOf splits an argument type into named parameters. A product of
// leaves yields one parameter per operand; nil yields none.
func ParamsOf(set *types.Set, args types.TypeID) []Param {
	if e, ok := set.ElementaryOf(args); ok && e == types.ElemNil {
		return nil
	}
	t := set.MustLookup(args)
	if t.Category == types.CategoryOperator && t.Op == types.OpProduct {
		out := make([]Param, 0, len(t.Operands))
		for _, op := range t.Operands {
			out = append(out, paramOf(set, op))
		}
		return out
	}
	return []Param{paramOf(set, args)}
}

func paramOf(set *types.Set, t types.TypeID) Param {
	desc := set.MustLookup(t)
	if desc.Category == types.CategoryLeaf {
		return Param{Name: desc.Name, Type: desc.Inner}
	}
	return Param{Type: t}
}

// CaseBindings lists the names a match pattern introduces: the leaf name of
// a leaf pattern, or the leaf names of a product pattern.
func CaseBindings(set *types.Set, pattern types.TypeID) []Param {
	t, ok := set.Lookup(pattern)
	if !ok {
		return nil
	}
	switch {
	case t.Category == types.CategoryLeaf:
		return []Param{{Name: t.Name, Type: t.Inner}}
	case t.Category == types.CategoryOperator && t.Op == types.OpProduct:
		var out []Param
		for _, op := range t.Operands {
			if p := paramOf(set, op); p.Name != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

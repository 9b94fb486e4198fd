package sema

import (
	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

const wildcardName = "_"

// resolveType interns the type a type expression denotes.
func (c *checker) resolveType(scope *Scope, node ast.NodeID) (types.TypeID, Result) {
	n := c.tree.Get(node)
	if n == nil {
		return types.NoTypeID, c.fatal(errNoNode(node))
	}
	var (
		id  types.TypeID
		res = Continue
	)
	switch n.Kind {
	case ast.KindTypeDesc:
		return c.resolveType(scope, c.tree.Child(node, 0))
	case ast.KindTypeOp:
		ops := make([]types.TypeID, 0, len(n.Children))
		for _, child := range n.Children {
			t, r := c.resolveType(scope, child)
			res = res.Join(r)
			if r.Failed() {
				continue
			}
			ops = append(ops, t)
		}
		if res.Failed() {
			return types.NoTypeID, res
		}
		switch {
		case len(ops) == 0:
			return types.NoTypeID, c.errorf(diag.SemaError, node, "empty %s type", n.TypeOp)
		case n.TypeOp == types.OpImplication && len(ops) != 2:
			return types.NoTypeID, c.errorf(diag.SemaError, node, "implication needs 2 operands, got %d", len(ops))
		case len(ops) == 1:
			id = ops[0]
		default:
			id, res = c.intern(types.MakeOperator(n.TypeOp, ops...))
		}
	case ast.KindTypeLeaf:
		inner, r := c.resolveType(scope, c.tree.Child(node, 0))
		if r.Failed() {
			return types.NoTypeID, r
		}
		id, res = c.intern(types.MakeLeaf(c.tree.Name(node), inner))
	case ast.KindTypeRef:
		id, res = c.resolveTypeName(scope, node)
	case ast.KindArraySpec:
		member, r := c.resolveType(scope, c.tree.Child(node, 0))
		if r.Failed() {
			return types.NoTypeID, r
		}
		if len(n.Dims) == 0 {
			return types.NoTypeID, c.errorf(diag.SemaError, node, "array type without dimensions")
		}
		for _, d := range n.Dims {
			if d == 0 {
				return types.NoTypeID, c.errorf(diag.SemaError, node, "array dimension must be positive")
			}
		}
		id, res = c.intern(types.MakeArray(member, n.Dims...))
	default:
		return types.NoTypeID, c.errorf(diag.SemaError, node, "%s is not a type", n.Kind)
	}
	if id != types.NoTypeID {
		c.tree.SetType(node, id)
	}
	return id, res
}

func (c *checker) resolveTypeName(scope *Scope, node ast.NodeID) (types.TypeID, Result) {
	name := c.tree.Name(node)
	if name == wildcardName {
		return c.set.Wildcard(), Continue
	}
	if e, ok := types.ElementaryByName(name); ok {
		return c.set.Elementary(e), Continue
	}
	sym, ok := scope.Lookup(name)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaUndeclared, node, "unknown type %q", name)
	}
	switch sym.Kind {
	case SymType:
		if sym.Type == types.NoTypeID {
			if r := c.resolveTypeDecl(sym); r.Failed() {
				return types.NoTypeID, r
			}
		}
		return sym.Type, Continue
	case SymGeneric:
		return sym.Type, Continue
	default:
		return types.NoTypeID, c.errorf(diag.SemaError, node, "%q is a %s, not a type", name, sym.Kind)
	}
}

package sema

import (
	"strings"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// checkBodies type checks every implemented, non-generic function.
func (c *checker) checkBodies() Result {
	res := Continue
	for _, f := range c.unit.Funcs {
		r := c.checkFuncBody(f)
		if r == Stop {
			continue
		}
		if res = res.Join(r); res == Fatal {
			return res
		}
	}
	return res
}

// checkFuncBody returns Stop without visiting the body of a declaration or
// of a function whose signature did not resolve; the latter was reported
// by the declaration pass.
func (c *checker) checkFuncBody(f *Func) Result {
	if !f.Impl.IsValid() || f.Type == types.NoTypeID {
		return Stop
	}
	parent := c.unit.Symbols.Global
	if s, ok := c.unit.Symbols.ScopeOf(f.Decl); ok {
		parent = s
	}
	scope := c.unit.Symbols.Open(ScopeFunction, parent, f.Impl)
	res := Continue
	for _, p := range f.Params {
		if p.Name == "" {
			continue
		}
		if err := scope.Declare(&Symbol{Name: p.Name, Kind: SymArg, Type: p.Type, Decl: f.Decl}); err != nil {
			res = res.Join(c.errorf(diag.SemaDuplicateDecl, f.Decl, "argument %q repeated", p.Name))
		}
	}
	prev := c.fn
	c.fn = f
	defer func() { c.fn = prev }()

	body := c.tree.Child(f.Impl, 1)
	if res = res.Join(c.checkBlock(scope, body)); res == Fatal {
		return res
	}
	if !c.isNil(f.Ret) && !res.Failed() && !c.alwaysReturns(body) {
		res = res.Join(c.errorf(diag.SemaReturnMismatch, f.Impl,
			"function %q must return a value of type %s", f.Name, c.typeName(f.Ret)))
	}
	c.tree.Advance(f.Impl, ast.StateTypeChecked)
	return res
}

func (c *checker) isNil(t types.TypeID) bool {
	e, ok := c.set.ElementaryOf(t)
	return ok && e == types.ElemNil
}

// alwaysReturns holds when every path through block ends in a return.
func (c *checker) alwaysReturns(block ast.NodeID) bool {
	n := c.tree.Get(block)
	if n == nil || len(n.Children) == 0 {
		return false
	}
	last := n.Children[len(n.Children)-1]
	switch c.tree.Kind(last) {
	case ast.KindReturn:
		return true
	case ast.KindBlock:
		return c.alwaysReturns(last)
	case ast.KindIf:
		node := c.tree.Get(last)
		if !c.alwaysReturns(node.Children[1]) {
			return false
		}
		hasElse := false
		for _, tail := range node.Children[2:] {
			switch c.tree.Kind(tail) {
			case ast.KindElif:
				if !c.alwaysReturns(c.tree.Child(tail, 1)) {
					return false
				}
			case ast.KindElse:
				hasElse = true
				if !c.alwaysReturns(c.tree.Child(tail, 0)) {
					return false
				}
			}
		}
		return hasElse
	case ast.KindMatch:
		if !c.exhaustive[last] {
			return false
		}
		for _, mc := range c.tree.ChildrenOf(last, ast.KindMatchCase) {
			if !c.alwaysReturns(c.tree.Child(mc, 1)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (c *checker) checkBlock(parent *Scope, block ast.NodeID) Result {
	n := c.tree.Get(block)
	if n == nil || n.Kind != ast.KindBlock {
		return c.fatal(errNoNode(block))
	}
	scope := c.unit.Symbols.Open(ScopeBlock, parent, block)
	res := Continue
	for _, stmt := range n.Children {
		if res = res.Join(c.checkStmt(scope, stmt)); res == Fatal {
			return res
		}
	}
	c.tree.Advance(block, ast.StateTypeChecked)
	return res
}

func (c *checker) checkStmt(scope *Scope, stmt ast.NodeID) Result {
	var res Result
	switch k := c.tree.Kind(stmt); {
	case k == ast.KindVarDecl:
		res = c.checkVarDecl(scope, stmt)
	case k == ast.KindReturn:
		res = c.checkReturn(scope, stmt)
	case k == ast.KindIf:
		res = c.checkIf(scope, stmt)
	case k == ast.KindFor:
		res = c.checkFor(scope, stmt)
	case k == ast.KindMatch:
		res = c.checkMatch(scope, stmt)
	case k == ast.KindBlock:
		return c.checkBlock(scope, stmt)
	case k.IsExpr():
		_, res = c.checkExpr(scope, stmt)
		return res
	default:
		return c.errorf(diag.SemaError, stmt, "unexpected %s in a block", k)
	}
	c.tree.Advance(stmt, ast.StateTypeChecked)
	return res
}

func (c *checker) checkVarDecl(scope *Scope, stmt ast.NodeID) Result {
	name := c.tree.Name(stmt)
	typNode, init := c.tree.Child(stmt, 0), c.tree.Child(stmt, 1)
	res := Continue
	var declT types.TypeID
	if typNode.IsValid() {
		t, r := c.resolveType(scope, typNode)
		if res = res.Join(r); res == Fatal {
			return res
		}
		declT = t
	}
	if init.IsValid() {
		initT, r := c.checkExpr(scope, init)
		if res = res.Join(r); res == Fatal {
			return res
		}
		switch {
		case !typNode.IsValid():
			declT = initT
		case !c.convertible(init, initT, declT):
			res = res.Join(c.errorf(diag.SemaTypeMismatch, init,
				"cannot initialize %q of type %s with %s", name, c.typeName(declT), c.typeName(initT)))
		}
	}
	if !typNode.IsValid() && !init.IsValid() {
		res = res.Join(c.errorf(diag.SemaError, stmt, "variable %q needs a type or an initializer", name))
	}
	if err := scope.Declare(&Symbol{Name: name, Kind: SymVar, Type: declT, Decl: stmt}); err != nil {
		res = res.Join(c.errorf(diag.SemaDuplicateDecl, stmt, "%q is already declared in this block", name))
	}
	c.tree.SetType(stmt, declT)
	return res
}

func (c *checker) checkReturn(scope *Scope, stmt ast.NodeID) Result {
	want := c.nilType()
	if c.fn != nil {
		want = c.fn.Ret
	}
	val := c.tree.Child(stmt, 0)
	if !val.IsValid() {
		if !c.isNil(want) {
			return c.errorf(diag.SemaReturnMismatch, stmt, "missing return value of type %s", c.typeName(want))
		}
		return Continue
	}
	t, res := c.checkExpr(scope, val)
	if res.Failed() {
		return res
	}
	if c.isNil(want) {
		return c.errorf(diag.SemaReturnMismatch, val, "function returns nothing but a value of type %s is returned", c.typeName(t))
	}
	if !c.convertible(val, t, want) {
		return c.errorf(diag.SemaReturnMismatch, val, "cannot return %s from a function returning %s",
			c.typeName(t), c.typeName(want))
	}
	c.tree.SetType(stmt, want)
	return res
}

func (c *checker) checkCond(scope *Scope, cond ast.NodeID) Result {
	t, res := c.checkExpr(scope, cond)
	if res.Failed() || t == types.NoTypeID {
		return res
	}
	if !types.Compare(c.set, t, c.set.Elementary(types.ElemBool), types.ModeImplicitConversion, nil) {
		return c.errorf(diag.SemaTypeMismatch, cond, "condition must be bool, got %s", c.typeName(t))
	}
	return res
}

func (c *checker) checkIf(scope *Scope, stmt ast.NodeID) Result {
	n := c.tree.Get(stmt)
	res := c.checkCond(scope, n.Children[0])
	res = res.Join(c.checkBlock(scope, n.Children[1]))
	for _, tail := range n.Children[2:] {
		if res == Fatal {
			return res
		}
		switch c.tree.Kind(tail) {
		case ast.KindElif:
			res = res.Join(c.checkCond(scope, c.tree.Child(tail, 0)))
			res = res.Join(c.checkBlock(scope, c.tree.Child(tail, 1)))
		case ast.KindElse:
			res = res.Join(c.checkBlock(scope, c.tree.Child(tail, 0)))
		default:
			res = res.Join(c.errorf(diag.SemaError, tail, "unexpected %s after if", c.tree.Kind(tail)))
		}
		c.tree.Advance(tail, ast.StateTypeChecked)
	}
	return res
}

// ElementOf is the type one iteration over an array yields: the member type
// for one dimension, the array of the remaining dimensions otherwise.
func ElementOf(set *types.Set, arr types.TypeID) (types.TypeID, bool) {
	t, ok := set.Lookup(set.Strip(arr))
	if !ok || t.Category != types.CategoryArray {
		return types.NoTypeID, false
	}
	if len(t.Dims) == 1 {
		return t.Inner, true
	}
	id, err := set.Array(t.Inner, t.Dims[1:]...)
	if err != nil {
		return types.NoTypeID, false
	}
	return id, true
}

func (c *checker) checkFor(scope *Scope, stmt ast.NodeID) Result {
	iter := c.tree.Child(stmt, 0)
	t, res := c.checkExpr(scope, iter)
	if res == Fatal {
		return res
	}
	elem := types.NoTypeID
	if t != types.NoTypeID {
		var ok bool
		if elem, ok = ElementOf(c.set, t); !ok {
			res = res.Join(c.errorf(diag.SemaNotIterable, iter, "cannot iterate over %s", c.typeName(t)))
		}
	}
	loop := c.unit.Symbols.Open(ScopeLoop, scope, stmt)
	name := c.tree.Name(stmt)
	if err := loop.Declare(&Symbol{Name: name, Kind: SymLoopVar, Type: elem, Decl: stmt}); err != nil {
		return c.fatal(err)
	}
	c.tree.SetType(stmt, elem)
	return res.Join(c.checkBlock(loop, c.tree.Child(stmt, 1)))
}

func (c *checker) checkMatch(scope *Scope, stmt ast.NodeID) Result {
	scrut := c.tree.Child(stmt, 0)
	t, res := c.checkExpr(scope, scrut)
	if res.Failed() || t == types.NoTypeID {
		return res
	}
	mc, err := NewMatchContext(c.set, t)
	if err != nil {
		return c.errorf(diag.SemaMatchNonSum, scrut, "%v", err)
	}
	c.tree.SetType(stmt, t)
	for _, mcase := range c.tree.ChildrenOf(stmt, ast.KindMatchCase) {
		if res = res.Join(c.checkCase(scope, mc, t, mcase)); res == Fatal {
			return res
		}
	}
	if !mc.IsExhaustive() {
		missing := make([]string, 0, len(mc.Missing()))
		for _, m := range mc.Missing() {
			missing = append(missing, c.typeName(m))
		}
		diag.ReportError(c.reporter, diag.SemaNonexhaustiveMatch, c.tree.Span(stmt),
			"match over "+c.typeName(t)+" is not exhaustive").
			WithNote(c.tree.Span(scrut), "missing: "+strings.Join(missing, ", ")).
			Emit()
		return res.Join(SoftError)
	}
	c.exhaustive[stmt] = true
	return res
}

func (c *checker) checkCase(scope *Scope, mc *MatchContext, scrutT types.TypeID, mcase ast.NodeID) Result {
	patNode := c.tree.Child(mcase, 0)
	pattern, res := c.resolveType(scope, patNode)
	if res.Failed() {
		return res
	}
	outcome, idx := mc.Accept(pattern)
	switch outcome {
	case CaseUnreachable:
		res = res.Join(c.errorf(diag.SemaUnreachableCase, mcase, "case %s follows a wildcard and is never reached", c.typeName(pattern)))
	case CaseDuplicate:
		res = res.Join(c.errorf(diag.SemaDuplicateCase, mcase, "variant %s is already matched", c.typeName(pattern)))
	case CaseUnknown:
		res = res.Join(c.errorf(diag.SemaUnknownVariant, patNode, "%s is not a variant of %s",
			c.typeName(pattern), c.typeName(scrutT)))
	}
	info := CaseInfo{Index: idx, Variant: scrutT, Pattern: pattern}
	if idx >= 0 {
		info.Variant = mc.Parts()[idx]
	}
	arm := c.unit.Symbols.Open(ScopeCase, scope, mcase)
	if outcome == CaseAccepted {
		c.unit.Cases[mcase] = info
		if idx >= 0 {
			for _, b := range CaseBindings(c.set, pattern) {
				if err := arm.Declare(&Symbol{Name: b.Name, Kind: SymBinding, Type: b.Type, Decl: mcase}); err != nil {
					res = res.Join(c.errorf(diag.SemaDuplicateDecl, patNode, "pattern binds %q twice", b.Name))
				}
			}
		}
		if name := c.tree.Name(mcase); name != "" {
			payload := c.set.Unleaf(info.Variant)
			if err := arm.Declare(&Symbol{Name: name, Kind: SymBinding, Type: payload, Decl: mcase}); err != nil {
				res = res.Join(c.errorf(diag.SemaDuplicateDecl, mcase, "%q is already bound by the pattern", name))
			}
		}
	}
	c.tree.SetType(mcase, info.Variant)
	res = res.Join(c.checkBlock(arm, c.tree.Child(mcase, 1)))
	c.tree.Advance(mcase, ast.StateTypeChecked)
	return res
}

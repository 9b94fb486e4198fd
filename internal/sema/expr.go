package sema

import (
	"math"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// checkExpr types an expression. A NoTypeID result means an error was
// already reported for it.
func (c *checker) checkExpr(scope *Scope, e ast.NodeID) (types.TypeID, Result) {
	n := c.tree.Get(e)
	if n == nil {
		return types.NoTypeID, c.fatal(errNoNode(e))
	}
	var (
		t   types.TypeID
		res = Continue
	)
	switch n.Kind {
	case ast.KindIdentifier:
		t, res = c.checkIdent(scope, e)
	case ast.KindIntConst:
		t = c.set.Elementary(smallestUnsigned(n.Int))
	case ast.KindFloatConst:
		t = c.set.Elementary(types.ElemF64)
	case ast.KindBoolConst:
		t = c.set.Elementary(types.ElemBool)
	case ast.KindStringLit:
		t = c.set.Elementary(types.ElemString)
	case ast.KindUnary:
		t, res = c.checkUnary(scope, e, n)
	case ast.KindBinary:
		t, res = c.checkBinary(scope, e, n)
	case ast.KindCall:
		t, res = c.checkCall(scope, e)
	case ast.KindIndex:
		t, res = c.checkIndex(scope, e)
	case ast.KindMember:
		t, res = c.checkMember(scope, e)
	default:
		return types.NoTypeID, c.errorf(diag.SemaError, e, "%s is not an expression", n.Kind)
	}
	if t != types.NoTypeID {
		c.tree.SetType(e, t)
	}
	c.tree.Advance(e, ast.StateTypeChecked)
	return t, res
}

func (c *checker) checkIdent(scope *Scope, e ast.NodeID) (types.TypeID, Result) {
	name := c.tree.Name(e)
	sym, ok := scope.Lookup(name)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaUndeclared, e, "undeclared identifier %q", name)
	}
	if !sym.Kind.IsValue() {
		return types.NoTypeID, c.errorf(diag.SemaError, e, "%q is a %s, not a value", name, sym.Kind)
	}
	return sym.Type, Continue
}

func smallestUnsigned(v uint64) types.Elementary {
	switch {
	case v <= math.MaxUint8:
		return types.ElemU8
	case v <= math.MaxUint16:
		return types.ElemU16
	case v <= math.MaxUint32:
		return types.ElemU32
	default:
		return types.ElemU64
	}
}

// fitsIn reports whether the constant v, negated when neg is set, is
// representable in e.
func fitsIn(e types.Elementary, v uint64, neg bool) bool {
	bits := e.Bits()
	switch {
	case e.IsFloat():
		return true
	case !e.IsInteger():
		return false
	case e.IsSigned():
		limit := uint64(1) << (bits - 1)
		if neg {
			return v <= limit
		}
		return v < limit
	case neg:
		return v == 0
	default:
		return bits == 64 || v < uint64(1)<<bits
	}
}

func signedOf(e types.Elementary) types.Elementary {
	switch e {
	case types.ElemU8:
		return types.ElemI8
	case types.ElemU16:
		return types.ElemI16
	case types.ElemU32:
		return types.ElemI32
	case types.ElemU64:
		return types.ElemI64
	case types.ElemUint:
		return types.ElemInt
	default:
		return e
	}
}

// adaptLiteral retypes a numeric constant (or a negated one) to the scalar
// behind to when its value fits there.
func (c *checker) adaptLiteral(node ast.NodeID, to types.TypeID) bool {
	e, ok := c.set.ElementaryOf(to)
	if !ok || !e.IsNumeric() {
		return false
	}
	target := c.set.Elementary(e)
	n := c.tree.Get(node)
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.KindIntConst:
		if !fitsIn(e, n.Int, false) {
			return false
		}
	case ast.KindFloatConst:
		if !e.IsFloat() {
			return false
		}
	case ast.KindUnary:
		inner := c.tree.Child(node, 0)
		in := c.tree.Get(inner)
		if n.Un != ast.UnMinus || in == nil {
			return false
		}
		switch {
		case in.Kind == ast.KindIntConst && fitsIn(e, in.Int, true):
		case in.Kind == ast.KindFloatConst && e.IsFloat():
		default:
			return false
		}
		c.tree.SetType(inner, target)
	default:
		return false
	}
	c.tree.SetType(node, target)
	return true
}

// convertible reports whether a value of type from, produced by node, may
// be used where to is expected.
func (c *checker) convertible(node ast.NodeID, from, to types.TypeID) bool {
	if from == types.NoTypeID || to == types.NoTypeID {
		return true
	}
	if from == to || c.adaptLiteral(node, to) {
		return true
	}
	return types.Compare(c.set, from, to, types.ModeImplicitConversion, nil)
}

func (c *checker) checkUnary(scope *Scope, e ast.NodeID, n *ast.Node) (types.TypeID, Result) {
	spec, ok := UnarySpecFor(n.Un)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaError, e, "unknown operator %s", n.Un)
	}
	operand := n.Children[0]
	t, res := c.checkExpr(scope, operand)
	if res.Failed() || t == types.NoTypeID {
		return types.NoTypeID, res
	}
	if !spec.Operand.accepts(familyOf(c.set, t)) {
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, e, "operator %s does not apply to %s", n.Un, c.typeName(t))
	}
	if spec.Bool {
		return c.set.Elementary(types.ElemBool), res
	}
	if in := c.tree.Get(operand); in.Kind == ast.KindIntConst {
		for _, cand := range []types.Elementary{types.ElemI8, types.ElemI16, types.ElemI32, types.ElemI64} {
			if fitsIn(cand, in.Int, true) {
				lit := c.set.Elementary(cand)
				c.tree.SetType(operand, lit)
				return lit, res
			}
		}
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, e, "constant -%d does not fit in i64", in.Int)
	}
	if el, ok := c.set.ElementaryOf(t); ok && el.IsInteger() && !el.IsSigned() {
		signed := signedOf(el)
		c.warnf(diag.SemaSignChange, e, "negating a value of unsigned type %s yields %s", el, signed)
		return c.set.Elementary(signed), res
	}
	return t, res
}

func (c *checker) checkBinary(scope *Scope, e ast.NodeID, n *ast.Node) (types.TypeID, Result) {
	spec, ok := BinarySpecFor(n.Bin)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaError, e, "unknown operator %s", n.Bin)
	}
	if spec.Assignment {
		return c.checkAssign(scope, e, n)
	}
	lhs, rhs := n.Children[0], n.Children[1]
	lt, res := c.checkExpr(scope, lhs)
	rt, r := c.checkExpr(scope, rhs)
	if res = res.Join(r); res.Failed() || lt == types.NoTypeID || rt == types.NoTypeID {
		return types.NoTypeID, res
	}
	if !spec.Left.accepts(familyOf(c.set, lt)) {
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, lhs, "left operand of %s cannot be %s", n.Bin, c.typeName(lt))
	}
	if !spec.Right.accepts(familyOf(c.set, rt)) {
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, rhs, "right operand of %s cannot be %s", n.Bin, c.typeName(rt))
	}
	common, r := c.unify(e, lhs, rhs, lt, rt)
	if res = res.Join(r); common == types.NoTypeID {
		return types.NoTypeID, res
	}
	c.unit.Common[e] = common
	if spec.Result == BinaryResultBool {
		return c.set.Elementary(types.ElemBool), res
	}
	return common, res
}

// unify picks the type both operands of a binary operator convert to.
// Implicit conversions go either way; otherwise the right operand is
// converted to the left one with a warning.
func (c *checker) unify(e, lhs, rhs ast.NodeID, lt, rt types.TypeID) (types.TypeID, Result) {
	if c.adaptLiteral(rhs, lt) {
		return lt, Continue
	}
	if c.adaptLiteral(lhs, rt) {
		return rt, Continue
	}
	if types.Compare(c.set, lt, rt, types.ModeImplicitConversion, nil) {
		return rt, Continue
	}
	if types.Compare(c.set, rt, lt, types.ModeImplicitConversion, nil) {
		return lt, Continue
	}
	var cc types.CompareCtx
	if !types.Compare(c.set, rt, lt, types.ModeGeneric, &cc) {
		return types.NoTypeID, c.errorf(diag.SemaTypeMismatch, e, "mismatched operand types %s and %s",
			c.typeName(lt), c.typeName(rt))
	}
	if cc.Flags.Has(types.FlagSignedToUnsigned) {
		c.warnf(diag.SemaSignChange, e, "implicit conversion from %s to %s changes signedness", c.typeName(rt), c.typeName(lt))
	}
	if cc.Flags.Has(types.FlagLargerToSmaller) {
		c.warnf(diag.SemaNarrowing, e, "implicit conversion from %s to %s may lose precision", c.typeName(rt), c.typeName(lt))
	}
	return lt, Continue
}

func (c *checker) checkAssign(scope *Scope, e ast.NodeID, n *ast.Node) (types.TypeID, Result) {
	lhs, rhs := n.Children[0], n.Children[1]
	switch c.tree.Kind(lhs) {
	case ast.KindIdentifier, ast.KindMember, ast.KindIndex:
	default:
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, lhs, "left side of an assignment must be a variable, member or element")
	}
	if c.tree.Kind(lhs) == ast.KindIdentifier {
		name := c.tree.Name(lhs)
		if sym, ok := scope.Lookup(name); ok && (sym.Kind == SymLoopVar || sym.Kind == SymBinding) {
			return types.NoTypeID, c.errorf(diag.SemaBadOperand, lhs, "cannot assign to %s %q", sym.Kind, name)
		}
	}
	lt, res := c.checkExpr(scope, lhs)
	rt, r := c.checkExpr(scope, rhs)
	if res = res.Join(r); res.Failed() || lt == types.NoTypeID || rt == types.NoTypeID {
		return types.NoTypeID, res
	}
	if !c.convertible(rhs, rt, lt) {
		return types.NoTypeID, c.errorf(diag.SemaTypeMismatch, e, "cannot assign %s to %s", c.typeName(rt), c.typeName(lt))
	}
	c.unit.Common[e] = lt
	return lt, res
}

// ConstructorFields are the member types a type constructor call takes.
// Sum types have no constructor.
func ConstructorFields(set *types.Set, t types.TypeID) ([]types.TypeID, bool) {
	under := set.Underlying(t)
	desc, ok := set.Lookup(under)
	if !ok {
		return nil, false
	}
	if desc.Category == types.CategoryOperator {
		if desc.Op != types.OpProduct {
			return nil, false
		}
		out := make([]types.TypeID, len(desc.Operands))
		for i, op := range desc.Operands {
			out[i] = set.Unleaf(op)
		}
		return out, true
	}
	return []types.TypeID{set.Unleaf(under)}, true
}

func (c *checker) checkCall(scope *Scope, e ast.NodeID) (types.TypeID, Result) {
	name := c.tree.Name(e)
	args := c.tree.Get(e).Children
	argTs := make([]types.TypeID, len(args))
	res := Continue
	for i, a := range args {
		t, r := c.checkExpr(scope, a)
		if res = res.Join(r); res == Fatal {
			return types.NoTypeID, res
		}
		argTs[i] = t
	}
	sym, ok := scope.Lookup(name)
	if !ok {
		return types.NoTypeID, res.Join(c.errorf(diag.SemaUndeclared, e, "undeclared function %q", name))
	}
	var (
		want   []types.TypeID
		result types.TypeID
		callee Callee
	)
	switch sym.Kind {
	case SymType:
		if sym.Type == types.NoTypeID {
			return types.NoTypeID, res.Join(SoftError)
		}
		fields, ok := ConstructorFields(c.set, sym.Type)
		if !ok {
			return types.NoTypeID, res.Join(c.errorf(diag.SemaNotCallable, e,
				"type %q cannot be constructed directly", name))
		}
		want, result, callee = fields, sym.Type, Callee{Constructor: sym.Type}
	case SymFunc:
		f := sym.Func
		if f.Type == types.NoTypeID {
			return types.NoTypeID, res.Join(SoftError)
		}
		if f.Generic {
			return types.NoTypeID, res.Join(c.errorf(diag.SemaUnsupportedGeneric, e,
				"calls to generic function %q are not supported", name))
		}
		for _, p := range f.Params {
			want = append(want, p.Type)
		}
		result, callee = f.Ret, Callee{Func: f}
	default:
		return types.NoTypeID, res.Join(c.errorf(diag.SemaNotCallable, e, "%q is a %s and cannot be called", name, sym.Kind))
	}
	if len(args) != len(want) {
		return types.NoTypeID, res.Join(c.errorf(diag.SemaArgCount, e, "%q takes %d arguments, got %d", name, len(want), len(args)))
	}
	for i, a := range args {
		if !c.convertible(a, argTs[i], want[i]) {
			res = res.Join(c.errorf(diag.SemaTypeMismatch, a, "argument %d of %q: cannot use %s as %s",
				i+1, name, c.typeName(argTs[i]), c.typeName(want[i])))
		}
	}
	c.unit.Calls[e] = callee
	return result, res
}

func (c *checker) checkIndex(scope *Scope, e ast.NodeID) (types.TypeID, Result) {
	arr, idx := c.tree.Child(e, 0), c.tree.Child(e, 1)
	at, res := c.checkExpr(scope, arr)
	it, r := c.checkExpr(scope, idx)
	if res = res.Join(r); res.Failed() || at == types.NoTypeID || it == types.NoTypeID {
		return types.NoTypeID, res
	}
	elem, ok := ElementOf(c.set, at)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, arr, "cannot index a value of type %s", c.typeName(at))
	}
	if !FamilyIntegral.accepts(familyOf(c.set, it)) {
		return types.NoTypeID, c.errorf(diag.SemaBadOperand, idx, "array index must be an integer, got %s", c.typeName(it))
	}
	if n := c.tree.Get(idx); n.Kind == ast.KindIntConst {
		desc := c.set.MustLookup(c.set.Strip(at))
		if n.Int >= desc.Dims[0] {
			return types.NoTypeID, c.errorf(diag.SemaBadOperand, idx, "index %d is out of range for %s", n.Int, c.typeName(at))
		}
	}
	return elem, res
}

// MemberIndex locates a named field of a product type.
func MemberIndex(set *types.Set, t types.TypeID, name string) (int, types.TypeID, bool) {
	desc, ok := set.Lookup(set.Strip(t))
	if !ok || desc.Category != types.CategoryOperator || desc.Op != types.OpProduct {
		return -1, types.NoTypeID, false
	}
	for i, op := range desc.Operands {
		leaf := set.MustLookup(op)
		if leaf.Category == types.CategoryLeaf && leaf.Name == name {
			return i, leaf.Inner, true
		}
	}
	return -1, types.NoTypeID, false
}

func (c *checker) checkMember(scope *Scope, e ast.NodeID) (types.TypeID, Result) {
	obj := c.tree.Child(e, 0)
	t, res := c.checkExpr(scope, obj)
	if res.Failed() || t == types.NoTypeID {
		return types.NoTypeID, res
	}
	name := c.tree.Name(e)
	_, mt, ok := MemberIndex(c.set, t, name)
	if !ok {
		return types.NoTypeID, c.errorf(diag.SemaUnknownMember, e, "%s has no member %q", c.typeName(t), name)
	}
	return mt, res
}

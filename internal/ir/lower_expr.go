package ir

import (
	"fmt"
	"math"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/sema"
	"github.com/refu-lang/refu-sub002/internal/types"
)

var binaryOps = map[ast.BinaryOp]Op{
	ast.BinAdd: OpAdd,
	ast.BinSub: OpSub,
	ast.BinMul: OpMul,
	ast.BinDiv: OpDiv,
	ast.BinEq:  OpCmpEQ,
	ast.BinNe:  OpCmpNE,
	ast.BinGt:  OpCmpGT,
	ast.BinGe:  OpCmpGE,
	ast.BinLt:  OpCmpLT,
	ast.BinLe:  OpCmpLE,
	ast.BinAnd: OpLogicAnd,
	ast.BinOr:  OpLogicOr,
}

// lowerExpr produces the value of e. Names bound to storage are read.
func (l *lowerer) lowerExpr(e ast.NodeID) (Value, error) {
	n := l.tree.Get(e)
	if n == nil {
		return Value{}, fmt.Errorf("node %d: %w", e, ErrUnresolved)
	}
	defer l.tree.Advance(e, ast.StateLowered)
	switch n.Kind {
	case ast.KindIdentifier:
		v, err := l.lookup(l.tree.Name(e))
		if err != nil || !v.Type.Pointer {
			return v, err
		}
		return l.b.Read(v)
	case ast.KindIntConst:
		t, err := l.tm.irType(l.tree.TypeOf(e))
		if err != nil {
			return Value{}, err
		}
		if n.Int > math.MaxInt64 {
			return Value{}, fmt.Errorf("constant %d: %w", n.Int, ErrUnsupported)
		}
		return IntConst(int64(n.Int), t), nil
	case ast.KindFloatConst:
		t, err := l.tm.irType(l.tree.TypeOf(e))
		if err != nil {
			return Value{}, err
		}
		return FloatConst(n.Float, t), nil
	case ast.KindBoolConst:
		return BoolConst(n.Bool), nil
	case ast.KindStringLit:
		return l.m.StringGlobal(n.Str)
	case ast.KindUnary:
		return l.lowerUnary(e, n)
	case ast.KindBinary:
		if n.Bin == ast.BinAssign {
			return l.lowerAssign(n)
		}
		return l.lowerBinary(e, n)
	case ast.KindCall:
		return l.lowerCall(e, n)
	case ast.KindIndex, ast.KindMember:
		ptr, ok, err := l.lowerPlace(e)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return l.b.Read(ptr)
		}
		return l.lowerAccess(e, n)
	default:
		return Value{}, fmt.Errorf("%s expression: %w", n.Kind, ErrUnsupported)
	}
}

func (l *lowerer) lookup(name string) (Value, error) {
	id, err := l.m.Resolver.GetObject(name)
	if err != nil {
		return Value{}, err
	}
	return l.m.Objects.Value(id)
}

// lowerPlace yields a pointer to the storage e denotes. The second result
// is false when e is not addressable.
func (l *lowerer) lowerPlace(e ast.NodeID) (Value, bool, error) {
	switch l.tree.Kind(e) {
	case ast.KindIdentifier:
		v, err := l.lookup(l.tree.Name(e))
		if err != nil {
			return Value{}, false, err
		}
		return v, v.Type.Pointer, nil
	case ast.KindIndex:
		arr, ok, err := l.lowerPlace(l.tree.Child(e, 0))
		if err != nil || !ok {
			return Value{}, false, err
		}
		idx, err := l.lowerIndexValue(l.tree.Child(e, 1))
		if err != nil {
			return Value{}, false, err
		}
		p, err := l.b.ObjIdx(arr, idx)
		return p, err == nil, err
	case ast.KindMember:
		obj := l.tree.Child(e, 0)
		base, ok, err := l.lowerPlace(obj)
		if err != nil || !ok {
			return Value{}, false, err
		}
		i, err := l.memberIndex(obj, e)
		if err != nil {
			return Value{}, false, err
		}
		p, err := l.b.ObjMemberAt(base, i)
		return p, err == nil, err
	default:
		return Value{}, false, nil
	}
}

// lowerAccess indexes or selects from a value that has no storage, such
// as a call result.
func (l *lowerer) lowerAccess(e ast.NodeID, n *ast.Node) (Value, error) {
	base, err := l.lowerExpr(n.Children[0])
	if err != nil {
		return Value{}, err
	}
	if n.Kind == ast.KindIndex {
		idx, err := l.lowerIndexValue(n.Children[1])
		if err != nil {
			return Value{}, err
		}
		return l.b.ObjIdx(base, idx)
	}
	i, err := l.memberIndex(n.Children[0], e)
	if err != nil {
		return Value{}, err
	}
	return l.b.ObjMemberAt(base, i)
}

func (l *lowerer) lowerIndexValue(idx ast.NodeID) (Value, error) {
	v, err := l.lowerExpr(idx)
	if err != nil {
		return Value{}, err
	}
	if v.IsConstant() {
		return IntConst(v.Const.Int, U64Type), nil
	}
	if v.Type.Equal(U64Type) {
		return v, nil
	}
	return l.b.Convert(v, U64Type)
}

func (l *lowerer) memberIndex(obj, member ast.NodeID) (uint32, error) {
	name := l.tree.Name(member)
	i, _, ok := sema.MemberIndex(l.set, l.tree.TypeOf(obj), name)
	if !ok {
		return 0, fmt.Errorf("member %q of %s: %w", name, l.set.String(l.tree.TypeOf(obj)), ErrUnresolved)
	}
	return uint32(i), nil //nolint:gosec // operand counts are small
}

func (l *lowerer) lowerUnary(e ast.NodeID, n *ast.Node) (Value, error) {
	operand := n.Children[0]
	if n.Un == ast.UnNot {
		v, err := l.lowerExpr(operand)
		if err != nil {
			return Value{}, err
		}
		return l.b.Binary(OpCmpEQ, v, BoolConst(false))
	}
	t, err := l.tm.irType(l.tree.TypeOf(e))
	if err != nil {
		return Value{}, err
	}
	// negated literals fold into a signed constant
	if in := l.tree.Get(operand); in.Kind == ast.KindIntConst && in.Int <= math.MaxInt64+1 {
		l.tree.Advance(operand, ast.StateLowered)
		return IntConst(int64(-in.Int), t), nil //nolint:gosec // two's complement wraps MinInt64 exactly
	}
	if in := l.tree.Get(operand); in.Kind == ast.KindFloatConst {
		l.tree.Advance(operand, ast.StateLowered)
		return FloatConst(-in.Float, t), nil
	}
	v, err := l.lowerExpr(operand)
	if err != nil {
		return Value{}, err
	}
	if v, err = l.coerce(v, l.tree.TypeOf(operand), l.tree.TypeOf(e)); err != nil {
		return Value{}, err
	}
	minusOne := IntConst(-1, t)
	if t.Elem.IsFloat() {
		minusOne = FloatConst(-1, t)
	}
	return l.b.Binary(OpMul, v, minusOne)
}

func (l *lowerer) lowerBinary(e ast.NodeID, n *ast.Node) (Value, error) {
	op, ok := binaryOps[n.Bin]
	if !ok {
		return Value{}, fmt.Errorf("operator %s: %w", n.Bin, ErrUnsupported)
	}
	common := l.u.Common[e]
	operands := make([]Value, 2)
	for i, c := range n.Children[:2] {
		v, err := l.lowerExpr(c)
		if err != nil {
			return Value{}, err
		}
		if common != types.NoTypeID {
			if v, err = l.coerce(v, l.tree.TypeOf(c), common); err != nil {
				return Value{}, err
			}
		}
		operands[i] = v
	}
	return l.b.Binary(op, operands[0], operands[1])
}

func (l *lowerer) lowerAssign(n *ast.Node) (Value, error) {
	lhs, rhs := n.Children[0], n.Children[1]
	v, err := l.lowerExpr(rhs)
	if err != nil {
		return Value{}, err
	}
	ptr, ok, err := l.lowerPlace(lhs)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, fmt.Errorf("assignment to a value without storage: %w", ErrUnsupported)
	}
	l.tree.Advance(lhs, ast.StateLowered)
	if err := l.store(ptr, l.tree.TypeOf(lhs), v, l.tree.TypeOf(rhs)); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (l *lowerer) lowerCall(e ast.NodeID, n *ast.Node) (Value, error) {
	callee, ok := l.u.Calls[e]
	if !ok {
		return Value{}, fmt.Errorf("call to %q: %w", l.tree.Name(e), ErrUnresolved)
	}
	if callee.Func == nil {
		return l.lowerConstruct(callee.Constructor, n.Children)
	}
	f, ok := l.m.Function(callee.Func.Name)
	if !ok {
		return Value{}, fmt.Errorf("call to %q: %w", callee.Func.Name, ErrUnresolved)
	}
	args := make([]Value, len(n.Children))
	for i, a := range n.Children {
		v, err := l.lowerExpr(a)
		if err != nil {
			return Value{}, err
		}
		if args[i], err = l.coerce(v, l.tree.TypeOf(a), callee.Func.Params[i].Type); err != nil {
			return Value{}, err
		}
	}
	return l.b.Call(f, args...)
}

// lowerConstruct builds a value of a product or single-field type in a
// temporary and reads it back.
func (l *lowerer) lowerConstruct(t types.TypeID, args []ast.NodeID) (Value, error) {
	fields, ok := sema.ConstructorFields(l.set, t)
	if !ok || len(fields) != len(args) {
		return Value{}, fmt.Errorf("constructor of %s: %w", l.set.String(t), ErrTypeMismatch)
	}
	it, err := l.tm.irType(t)
	if err != nil {
		return Value{}, err
	}
	slot, err := l.b.Alloca(it)
	if err != nil {
		return Value{}, err
	}
	for i, a := range args {
		v, err := l.lowerExpr(a)
		if err != nil {
			return Value{}, err
		}
		member, err := l.b.ObjMemberAt(slot, uint32(i)) //nolint:gosec // operand counts are small
		if err != nil {
			return Value{}, err
		}
		if err := l.store(member, fields[i], v, l.tree.TypeOf(a)); err != nil {
			return Value{}, err
		}
	}
	return l.b.Read(slot)
}

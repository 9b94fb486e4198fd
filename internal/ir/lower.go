package ir

import (
	"context"
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/sema"
	"github.com/refu-lang/refu-sub002/internal/trace"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// Lower builds the IR module of an analysed unit. Generic functions and
// typeclass instance methods are not lowered.
func Lower(ctx context.Context, u *sema.Unit) (*Module, error) {
	if u == nil {
		return nil, fmt.Errorf("lower: nil unit: %w", ErrFailedUnit)
	}
	if u.Failed() {
		return nil, fmt.Errorf("lower %s: %w", u.Name, ErrFailedUnit)
	}
	m := NewModule(u.Name)
	l := &lowerer{
		ctx:  ctx,
		u:    u,
		set:  u.Types,
		tree: u.Tree,
		m:    m,
		tm:   newTypeMapper(m, u.Types),
	}

	_, span := trace.Start(ctx, trace.ScopePass, "ir.typedefs")
	err := l.tm.emit(u.TypeDecls)
	span.End(fmt.Sprintf("%d typedefs", len(m.Typedefs)))
	if err != nil {
		return nil, fmt.Errorf("lower %s: %w", u.Name, err)
	}

	var bodies []*sema.Func
	for _, f := range u.Funcs {
		if f.Generic {
			continue
		}
		args, ret, err := l.signature(f)
		if err != nil {
			return nil, fmt.Errorf("lower %s: %w", f.Name, err)
		}
		if !f.Impl.IsValid() {
			if _, err := m.DeclareFunction(f.Name, args, ret); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := m.DefineFunction(f.Name, args, ret); err != nil {
			return nil, err
		}
		bodies = append(bodies, f)
	}

	_, span = trace.Start(ctx, trace.ScopePass, "ir.lower")
	defer func() { span.End(fmt.Sprintf("%d functions", len(bodies))) }()
	for _, f := range bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.lowerFunc(f); err != nil {
			return nil, fmt.Errorf("lower %s: %w", f.Name, err)
		}
	}
	return m, nil
}

type lowerer struct {
	ctx  context.Context
	u    *sema.Unit
	set  *types.Set
	tree *ast.Tree
	m    *Module
	tm   *typeMapper

	// per function
	fn      *sema.Func
	b       *Builder
	end     *Block
	retSlot Value
}

func (l *lowerer) signature(f *sema.Func) ([]Type, Type, error) {
	args := make([]Type, 0, len(f.Params))
	for _, p := range f.Params {
		t, err := l.tm.irType(p.Type)
		if err != nil {
			return nil, Type{}, err
		}
		args = append(args, t)
	}
	ret, err := l.tm.irType(f.Ret)
	return args, ret, err
}

func (l *lowerer) lowerFunc(sf *sema.Func) error {
	_, span := trace.Start(l.ctx, trace.ScopeModule, "ir.lower."+sf.Name)
	defer span.End("")

	f, _ := l.m.Function(sf.Name)
	l.m.Resolver.EnterFunction()
	defer l.m.Resolver.LeaveFunction()
	l.fn = sf
	l.b = NewBuilder(l.m, f)
	l.retSlot = Value{}

	// the exit block is filled first so its read follows the return slot
	l.end = l.m.NewBlock(f, EndLabel)
	l.b.cur = l.end
	if f.RetSlot != nil {
		l.retSlot = *f.RetSlot.Var
		r, err := l.b.Read(l.retSlot)
		if err != nil {
			return err
		}
		if err := l.b.Return(r); err != nil {
			return err
		}
	} else if err := l.b.Return(Nil); err != nil {
		return err
	}

	if err := l.b.Place(l.m.NewBlock(f, StartLabel)); err != nil {
		return err
	}
	for i, p := range sf.Params {
		if p.Name == "" {
			continue
		}
		arg := *f.Params[i].Var
		slot, err := l.b.Alloca(arg.Type)
		if err != nil {
			return err
		}
		if err := l.b.Write(slot, arg); err != nil {
			return err
		}
		if err := l.m.Resolver.AddObject(p.Name, slot.Object); err != nil {
			return err
		}
	}
	if err := l.lowerBlock(l.tree.Child(sf.Impl, 1)); err != nil {
		return err
	}
	if !l.b.Terminated() {
		if err := l.b.Branch(l.end); err != nil {
			return err
		}
	}
	if err := l.m.Place(f, l.end); err != nil {
		return err
	}
	l.tree.Advance(sf.Impl, ast.StateLowered)
	return nil
}

// lowerBlock lowers statements in a nested scope. Statements after the
// block has been terminated are unreachable and skipped.
func (l *lowerer) lowerBlock(block ast.NodeID) error {
	l.m.Resolver.Push()
	defer l.m.Resolver.Pop()
	for _, stmt := range l.tree.Get(block).Children {
		if l.b.Terminated() {
			break
		}
		if err := l.lowerStmt(stmt); err != nil {
			return err
		}
	}
	l.tree.Advance(block, ast.StateLowered)
	return nil
}

func (l *lowerer) lowerStmt(stmt ast.NodeID) error {
	var err error
	switch k := l.tree.Kind(stmt); {
	case k == ast.KindVarDecl:
		err = l.lowerVarDecl(stmt)
	case k == ast.KindReturn:
		err = l.lowerReturn(stmt)
	case k == ast.KindIf:
		err = l.lowerIf(stmt)
	case k == ast.KindFor:
		err = l.lowerFor(stmt)
	case k == ast.KindMatch:
		err = l.lowerMatch(stmt)
	case k == ast.KindBlock:
		err = l.lowerBlock(stmt)
	case k.IsExpr():
		_, err = l.lowerExpr(stmt)
	default:
		err = fmt.Errorf("%s statement: %w", k, ErrUnsupported)
	}
	if err != nil {
		return err
	}
	l.tree.Advance(stmt, ast.StateLowered)
	return nil
}

func (l *lowerer) lowerVarDecl(stmt ast.NodeID) error {
	declT := l.tree.TypeOf(stmt)
	t, err := l.tm.irType(declT)
	if err != nil {
		return err
	}
	var init Value
	initNode := l.tree.Child(stmt, 1)
	if initNode.IsValid() {
		if init, err = l.lowerExpr(initNode); err != nil {
			return err
		}
	}
	slot, err := l.b.Alloca(t)
	if err != nil {
		return err
	}
	if initNode.IsValid() {
		if err := l.store(slot, declT, init, l.tree.TypeOf(initNode)); err != nil {
			return err
		}
	}
	return l.m.Resolver.AddObject(l.tree.Name(stmt), slot.Object)
}

func (l *lowerer) lowerReturn(stmt ast.NodeID) error {
	if val := l.tree.Child(stmt, 0); val.IsValid() {
		v, err := l.lowerExpr(val)
		if err != nil {
			return err
		}
		if err := l.store(l.retSlot, l.fn.Ret, v, l.tree.TypeOf(val)); err != nil {
			return err
		}
	}
	return l.b.Branch(l.end)
}

// store writes v, of checked type from, through ptr, which points at a
// location of checked type target. Values stored into a sum select their
// variant first.
func (l *lowerer) store(ptr Value, target types.TypeID, v Value, from types.TypeID) error {
	if l.isSumInjection(target, from) {
		idx, ok := l.set.VariantIndex(from, target)
		if !ok {
			return fmt.Errorf("%s into %s: %w", l.set.String(from), l.set.String(target), ErrTypeMismatch)
		}
		k := uint32(idx)
		if err := l.b.SetUnionIdx(ptr, k); err != nil {
			return err
		}
		member, err := l.b.UnionMemberAt(ptr, k)
		if err != nil {
			return err
		}
		cv, err := l.coerce(v, from, l.set.Unleaf(l.set.Subtype(target, idx)))
		if err != nil {
			return err
		}
		return l.b.Write(member, cv)
	}
	cv, err := l.coerce(v, from, target)
	if err != nil {
		return err
	}
	return l.b.Write(ptr, cv)
}

func (l *lowerer) isSumInjection(target, from types.TypeID) bool {
	st := l.set.Strip(target)
	d, ok := l.set.Lookup(st)
	return ok && d.IsSum() && l.set.Strip(from) != st
}

// coerce converts v, of checked type from, to checked type to.
func (l *lowerer) coerce(v Value, from, to types.TypeID) (Value, error) {
	want, err := l.tm.irType(to)
	if err != nil {
		return Value{}, err
	}
	if v.Type.Equal(want) {
		return v, nil
	}
	if l.isSumInjection(to, from) {
		tmp, err := l.b.Alloca(want)
		if err != nil {
			return Value{}, err
		}
		if err := l.store(tmp, to, v, from); err != nil {
			return Value{}, err
		}
		return l.b.Read(tmp)
	}
	if (v.Type.IsScalar() && want.IsScalar()) || types.Compare(l.set, from, to, types.ModeGeneric, nil) {
		return l.b.Convert(v, want)
	}
	return Value{}, fmt.Errorf("%s to %s: %w", v.Type, want, ErrTypeMismatch)
}

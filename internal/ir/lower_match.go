package ir

import (
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// lowerMatch dispatches on the variant index of the scrutinee. Every arm
// but the last tests its index; the last arm of an exhaustive match and a
// wildcard arm are entered unconditionally.
func (l *lowerer) lowerMatch(stmt ast.NodeID) error {
	scrut := l.tree.Child(stmt, 0)
	ptr, ok, err := l.lowerPlace(scrut)
	if err != nil {
		return err
	}
	if !ok {
		v, err := l.lowerExpr(scrut)
		if err != nil {
			return err
		}
		if ptr, err = l.b.Alloca(v.Type); err != nil {
			return err
		}
		if err := l.b.Write(ptr, v); err != nil {
			return err
		}
	}
	l.tree.Advance(scrut, ast.StateLowered)

	cases := l.tree.ChildrenOf(stmt, ast.KindMatchCase)
	var variant Value
	if len(cases) > 1 {
		if variant, err = l.b.GetUnionIdx(ptr); err != nil {
			return err
		}
	}

	var after *Block
	for i, mc := range cases {
		info, ok := l.u.Cases[mc]
		if !ok {
			return fmt.Errorf("match case %d: %w", i, ErrUnresolved)
		}
		arm := l.b.NewBlock()
		last := i == len(cases)-1 || info.Index < 0
		var next *Block
		if last {
			if err := l.b.Branch(arm); err != nil {
				return err
			}
		} else {
			hit, err := l.b.Binary(OpCmpEQ, variant, IntConst(int64(info.Index), U32Type))
			if err != nil {
				return err
			}
			next = l.b.NewBlock()
			if err := l.b.CondBranch(hit, arm, next); err != nil {
				return err
			}
		}
		if err := l.b.Place(arm); err != nil {
			return err
		}
		if err := l.lowerCase(mc, ptr, info.Index, info.Pattern); err != nil {
			return err
		}
		if !l.b.Terminated() {
			if after == nil {
				after = l.b.NewBlock()
			}
			if err := l.b.Branch(after); err != nil {
				return err
			}
		}
		l.tree.Advance(mc, ast.StateLowered)
		if last {
			break
		}
		if err := l.b.Place(next); err != nil {
			return err
		}
	}
	if after == nil {
		return nil
	}
	return l.b.Place(after)
}

// lowerCase binds the arm's names and lowers its body. Pattern leaves bind
// to the variant payload or to its members; a wildcard arm binds the
// scrutinee itself.
func (l *lowerer) lowerCase(mc ast.NodeID, scrut Value, index int, pattern types.TypeID) error {
	l.m.Resolver.Push()
	defer l.m.Resolver.Pop()
	name := l.tree.Name(mc)
	if index < 0 {
		if name != "" {
			if err := l.m.Resolver.AddObject(name, scrut.Object); err != nil {
				return err
			}
		}
		return l.lowerBlock(l.tree.Child(mc, 1))
	}

	var payload Value
	member := func() (Value, error) {
		if payload.Category == ValNil {
			v, err := l.b.UnionMemberAt(scrut, uint32(index)) //nolint:gosec // variant counts are small
			if err != nil {
				return Value{}, err
			}
			payload = v
		}
		return payload, nil
	}
	bind := func(name string, v func() (Value, error)) error {
		val, err := v()
		if err != nil {
			return err
		}
		return l.m.Resolver.AddObject(name, val.Object)
	}

	d, _ := l.set.Lookup(pattern)
	switch {
	case d.Category == types.CategoryLeaf:
		if err := bind(d.Name, member); err != nil {
			return err
		}
	case d.Category == types.CategoryOperator && d.Op == types.OpProduct:
		for j, op := range d.Operands {
			leaf, _ := l.set.Lookup(op)
			if leaf.Category != types.CategoryLeaf {
				continue
			}
			err := bind(leaf.Name, func() (Value, error) {
				p, err := member()
				if err != nil {
					return Value{}, err
				}
				return l.b.ObjMemberAt(p, uint32(j)) //nolint:gosec // operand counts are small
			})
			if err != nil {
				return err
			}
		}
	}
	if name != "" {
		if err := bind(name, member); err != nil {
			return err
		}
	}
	return l.lowerBlock(l.tree.Child(mc, 1))
}
